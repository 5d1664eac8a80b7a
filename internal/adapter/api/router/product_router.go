package router

import (
	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/handler"
	"handcraft/internal/adapter/api/middleware"
)

func SetupProductRoutes(e *echo.Echo, h *handler.ProductHandler, auth *middleware.AuthMiddleware) {
	group := e.Group("/v1/products")

	group.GET("", h.List)
	group.GET("/mine", h.Mine, auth.Authenticate)
	group.GET("/:id", h.Get)

	group.POST("", h.Create, auth.Authenticate)
	group.PUT("/:id", h.Update, auth.Authenticate)
	group.DELETE("/:id", h.Delete, auth.Authenticate)
}

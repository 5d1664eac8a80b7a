package router

import (
	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/handler"
	"handcraft/internal/adapter/api/middleware"
)

func SetupCartRoutes(e *echo.Echo, h *handler.CartHandler, auth *middleware.AuthMiddleware) {
	group := e.Group("/v1/cart", auth.Authenticate)

	group.GET("", h.Get)
	group.DELETE("", h.Clear)
	group.POST("/items", h.AddItem)
	group.PUT("/items/:productId", h.UpdateItem)
	group.DELETE("/items/:productId", h.RemoveItem)
}

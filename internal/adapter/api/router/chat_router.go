package router

import (
	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/handler"
	"handcraft/internal/adapter/api/middleware"
)

// SetupChatRoutes registers the conversation REST surface. The GET
// endpoints are also the polling fallback for degraded clients.
func SetupChatRoutes(e *echo.Echo, h *handler.ChatHandler, auth *middleware.AuthMiddleware) {
	group := e.Group("/v1/conversations", auth.Authenticate)

	group.GET("", h.List)
	group.POST("", h.Start)
	group.GET("/:id", h.Get)
	group.PUT("/:id/read", h.MarkRead)
}

func SetupWebSocketRoutes(e *echo.Echo, h *handler.WebSocketHandler) {
	e.GET("/ws", h.Connect)
}

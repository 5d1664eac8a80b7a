package handler

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"handcraft/internal/infrastructure/websocket"
	"handcraft/pkg/logger"
)

// WebSocketHandler upgrades connections and hands them to the gateway.
// Authentication happens in-band over the socket, not at upgrade time.
type WebSocketHandler struct {
	gateway  *websocket.Gateway
	upgrader gorilla.Upgrader
}

func NewWebSocketHandler(gateway *websocket.Gateway) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) Connect(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("ws: upgrade failed: %v", err)
		return err
	}

	h.gateway.HandleConnection(conn)
	return nil
}

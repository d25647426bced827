package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Public endpoint: viewers and installation clients connect from
	// arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	// Blocks until the peer disconnects; the gateway owns the connection
	// from here on.
	s.gateway.HandleConnection(conn, c.RealIP())
	return nil
}

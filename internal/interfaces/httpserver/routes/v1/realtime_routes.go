package v1

import (
	"github.com/gin-gonic/gin"

	"rentacar-server/chat-api/internal/interfaces/httpserver/socket"
)

// RegisterRealtimeRoutes registers the WebSocket endpoint.
func RegisterRealtimeRoutes(router gin.IRoutes, handler *socket.Handler) {
	router.GET("/ws", openSocket(handler))
}

// openSocket godoc
// @Summary      Open the realtime chat channel
// @Description  Upgrades to WebSocket. The bearer token comes from the Authorization header or the token query parameter. Frames are {"event": name, "data": payload}.
// @Tags         Chat Realtime
// @Param        token query string false "Bearer token for browser clients"
// @Success      101
// @Failure      401 {object} responses.ErrorResponse
// @Failure      403 "origin not allowed"
// @Router       /chat/ws [get]
func openSocket(handler *socket.Handler) gin.HandlerFunc {
	return handler.Serve
}

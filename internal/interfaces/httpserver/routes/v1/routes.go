package v1

import (
	"github.com/gin-gonic/gin"

	"rentacar-server/chat-api/internal/interfaces/httpserver/handlers"
	"rentacar-server/chat-api/internal/interfaces/httpserver/socket"
)

// Routes holds the v1 route configuration.
type Routes struct {
	handlers *handlers.Provider
	socket   *socket.Handler
}

// NewRoutes creates a new v1 routes instance.
func NewRoutes(handlerProvider *handlers.Provider, socketHandler *socket.Handler) *Routes {
	return &Routes{
		handlers: handlerProvider,
		socket:   socketHandler,
	}
}

// Register registers all v1 routes on the engine. The realtime handshake
// authenticates itself; every REST route goes through authMiddleware.
func (r *Routes) Register(engine *gin.Engine, authMiddleware gin.HandlerFunc) {
	chat := engine.Group("/v1/chat")
	RegisterRealtimeRoutes(chat, r.socket)

	authed := chat.Group("")
	if authMiddleware != nil {
		authed.Use(authMiddleware)
	}
	RegisterChatRoutes(authed, r.handlers.Chat)
}

package routes

import (
	"github.com/gin-gonic/gin"

	"rentacar-server/chat-api/internal/interfaces/httpserver/handlers"
	"rentacar-server/chat-api/internal/interfaces/httpserver/middlewares"
	v1 "rentacar-server/chat-api/internal/interfaces/httpserver/routes/v1"
	"rentacar-server/chat-api/internal/interfaces/httpserver/socket"
)

// Provider holds all route providers.
type Provider struct {
	V1       *v1.Routes
	verifier middlewares.TokenVerifier
}

// NewProvider creates a new route provider.
func NewProvider(handlerProvider *handlers.Provider, socketHandler *socket.Handler, verifier middlewares.TokenVerifier) *Provider {
	return &Provider{
		V1:       v1.NewRoutes(handlerProvider, socketHandler),
		verifier: verifier,
	}
}

// Register registers all routes on the engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.V1.Register(engine, middlewares.RequireAuth(p.verifier))
}

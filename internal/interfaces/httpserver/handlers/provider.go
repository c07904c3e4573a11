package handlers

import (
	"github.com/google/wire"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/message"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Chat *ChatHandler
}

// NewProvider creates a new handler provider.
func NewProvider(conversations conversation.Service, messages message.Service) *Provider {
	return &Provider{
		Chat: NewChatHandler(conversations, messages),
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewProvider,
)

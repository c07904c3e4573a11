package handlers

import (
	"context"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
)

// ChatHandler serves the chat REST endpoints.
type ChatHandler struct {
	conversations conversation.Service
	messages      message.Service
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(conversations conversation.Service, messages message.Service) *ChatHandler {
	return &ChatHandler{conversations: conversations, messages: messages}
}

// MyConversation returns the caller's conversation, creating it on first
// contact, together with its full history.
func (h *ChatHandler) MyConversation(ctx context.Context, principal identity.Principal) (*conversation.Conversation, []*message.Message, error) {
	conv, err := h.conversations.GetOrCreateForUser(ctx, principal.ID)
	if err != nil {
		return nil, nil, err
	}
	history, err := h.messages.ListForConversation(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, history, nil
}

// ListConversations returns the admin summaries, most recently active first.
func (h *ChatHandler) ListConversations(ctx context.Context) ([]*conversation.Summary, error) {
	return h.conversations.ListForAdmin(ctx)
}

// ConversationMessages returns the history of one conversation. With no
// cursor and no limit the whole history is returned.
func (h *ChatHandler) ConversationMessages(ctx context.Context, id uint, afterID uint, limit int) ([]*message.Message, error) {
	if _, err := h.conversations.Get(ctx, id); err != nil {
		return nil, err
	}
	if afterID == 0 && limit == 0 {
		return h.messages.ListForConversation(ctx, id)
	}
	return h.messages.ListPage(ctx, id, afterID, limit)
}

// CloseConversation closes a conversation. Closing twice is allowed.
func (h *ChatHandler) CloseConversation(ctx context.Context, id uint) (*conversation.Conversation, error) {
	return h.conversations.Close(ctx, id)
}

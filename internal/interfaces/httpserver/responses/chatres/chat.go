// Package chatres contains HTTP response DTOs for chat endpoints.
package chatres

import (
	"time"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/message"
)

// ConversationResponse is a conversation in API responses.
type ConversationResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse is a message in API responses. It matches the new_message payload.
type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderRole     string    `json:"sender_role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SummaryResponse is one row of the admin conversation list.
type SummaryResponse struct {
	ConversationResponse
	UserName         string  `json:"user_name"`
	UserEmail        string  `json:"user_email"`
	LastMessage      *string `json:"last_message"`
	UserMessageCount int64   `json:"user_message_count"`
}

// MyConversationResponse is returned to the customer widget.
type MyConversationResponse struct {
	Conversation *ConversationResponse `json:"conversation"`
	Messages     []*MessageResponse    `json:"messages"`
}

// NewConversationResponse converts a domain conversation.
func NewConversationResponse(c *conversation.Conversation) *ConversationResponse {
	if c == nil {
		return nil
	}
	return &ConversationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewMessageResponse converts a domain message.
func NewMessageResponse(m *message.Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     string(m.SenderRole),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// NewMessageListResponse converts messages, never returning nil so the JSON is [].
func NewMessageListResponse(list []*message.Message) []*MessageResponse {
	out := make([]*MessageResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NewMessageResponse(m))
	}
	return out
}

// NewMyConversationResponse pairs the conversation with its history.
func NewMyConversationResponse(c *conversation.Conversation, list []*message.Message) *MyConversationResponse {
	return &MyConversationResponse{
		Conversation: NewConversationResponse(c),
		Messages:     NewMessageListResponse(list),
	}
}

// NewSummaryListResponse converts admin summaries.
func NewSummaryListResponse(list []*conversation.Summary) []*SummaryResponse {
	out := make([]*SummaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, &SummaryResponse{
			ConversationResponse: *NewConversationResponse(&s.Conversation),
			UserName:             s.UserName,
			UserEmail:            s.UserEmail,
			LastMessage:          s.LastMessage,
			UserMessageCount:     s.UserMessageCount,
		})
	}
	return out
}

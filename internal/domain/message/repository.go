package message

import "context"

// Repository is the append-only message store.
type Repository interface {
	Create(ctx context.Context, msg *Message) error
	// ListByConversation returns every message of the conversation, oldest first.
	ListByConversation(ctx context.Context, conversationID uint) ([]*Message, error)
	// ListAfter returns up to limit messages that sort after the message afterID, oldest first.
	ListAfter(ctx context.Context, conversationID uint, afterID uint, limit int) ([]*Message, error)
}

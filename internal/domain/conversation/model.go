package conversation

import "time"

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Conversation is the single support thread between a customer and the admin team.
type Conversation struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the conversation still accepts messages.
func (c *Conversation) IsOpen() bool {
	return c != nil && c.Status == StatusOpen
}

// Summary is the admin list row: the conversation joined with its owner and
// last activity.
type Summary struct {
	Conversation
	UserName         string  `json:"user_name"`
	UserEmail        string  `json:"user_email"`
	LastMessage      *string `json:"last_message"`
	UserMessageCount int64   `json:"user_message_count"`
}

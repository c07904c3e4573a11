package chatclient

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ConsoleAPI is the REST side of the admin console. *Client implements it.
type ConsoleAPI interface {
	ListConversations(ctx context.Context) ([]Summary, error)
	ConversationMessages(ctx context.Context, id uint) ([]Message, error)
	CloseConversation(ctx context.Context, id uint) (*Conversation, error)
}

// Console is the admin console: the conversation list kept live from the
// admin firehose, plus one selected conversation.
type Console struct {
	api    ConsoleAPI
	socket Transport
	log    *MessageLog

	mu        sync.RWMutex
	summaries []Summary
	selected  uint
	stale     bool
}

// NewConsole creates a console. Wire HandleMessage into the socket handlers.
func NewConsole(api ConsoleAPI, socket Transport) *Console {
	return &Console{api: api, socket: socket, log: NewMessageLog()}
}

// Load fetches the conversation list.
func (c *Console) Load(ctx context.Context) error {
	list, err := c.api.ListConversations(ctx)
	if err != nil {
		return err
	}
	sortSummaries(list)

	c.mu.Lock()
	c.summaries = list
	c.stale = false
	c.mu.Unlock()
	return nil
}

// Select joins the conversation room before fetching its history.
func (c *Console) Select(ctx context.Context, id uint) error {
	c.mu.Lock()
	previous := c.selected
	c.selected = id
	c.mu.Unlock()

	if previous != 0 && previous != id {
		if err := c.socket.Leave(previous); err != nil {
			return err
		}
	}
	c.log.Reset()
	if err := c.socket.Join(id); err != nil {
		return err
	}

	history, err := c.api.ConversationMessages(ctx, id)
	if err != nil {
		return err
	}
	c.log.Merge(history)
	return nil
}

// HandleMessage updates the list row of the message's conversation and the
// selected history. A message for an unknown conversation marks the list
// stale so the caller reloads it.
func (c *Console) HandleMessage(m Message) {
	c.mu.Lock()
	found := false
	for i := range c.summaries {
		s := &c.summaries[i]
		if s.ID != m.ConversationID {
			continue
		}
		found = true
		content := m.Content
		s.LastMessage = &content
		if m.SenderRole == "user" {
			s.UserMessageCount++
		}
		if m.CreatedAt.After(s.UpdatedAt) {
			s.UpdatedAt = m.CreatedAt
		}
		break
	}
	if found {
		sortSummaries(c.summaries)
	} else {
		c.stale = true
	}
	selected := c.selected
	c.mu.Unlock()

	if selected == m.ConversationID {
		c.log.Add(m)
	}
}

// Send replies in the selected conversation when it is open.
func (c *Console) Send(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}

	summary, ok := c.Selected()
	if !ok {
		return "", ErrNoConversation
	}
	if !summary.IsOpen() {
		return "", ErrConversationClosed
	}

	correlationID := uuid.NewString()
	if err := c.socket.Send(summary.ID, content, correlationID); err != nil {
		return "", err
	}
	return correlationID, nil
}

// CloseConversation closes id on the server and updates its row.
func (c *Console) CloseConversation(ctx context.Context, id uint) error {
	conv, err := c.api.CloseConversation(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.summaries {
		if c.summaries[i].ID == id {
			c.summaries[i].Status = conv.Status
		}
	}
	return nil
}

// Summaries returns a copy of the list, most recently active first.
func (c *Console) Summaries() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Summary, len(c.summaries))
	copy(out, c.summaries)
	return out
}

// Selected returns the selected row.
func (c *Console) Selected() (Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.summaries {
		if s.ID == c.selected {
			return s, true
		}
	}
	return Summary{}, false
}

// Messages returns the selected conversation's history, oldest first.
func (c *Console) Messages() []Message {
	return c.log.Messages()
}

// Stale reports whether a message arrived for a conversation not in the list.
func (c *Console) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

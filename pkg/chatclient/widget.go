package chatclient

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Transport is the realtime side the widget and console drive. *Socket implements it.
type Transport interface {
	Join(conversationID uint) error
	Leave(conversationID uint) error
	Send(conversationID uint, content, correlationID string) error
}

// WidgetAPI is the REST side of the customer widget. *Client implements it.
type WidgetAPI interface {
	MyConversation(ctx context.Context) (*Conversation, []Message, error)
}

// Widget is the customer chat widget: one conversation, its history, and a
// send box that only works while the conversation is open.
type Widget struct {
	api    WidgetAPI
	socket Transport
	log    *MessageLog

	mu   sync.RWMutex
	conv *Conversation
}

// NewWidget creates a widget. Wire HandleMessage and HandleAck into the socket handlers.
func NewWidget(api WidgetAPI, socket Transport) *Widget {
	return &Widget{api: api, socket: socket, log: NewMessageLog()}
}

// Open loads the conversation, joins its room, then fetches once more so a
// message sent between the first fetch and the join is not lost.
func (w *Widget) Open(ctx context.Context) error {
	if err := w.Refresh(ctx); err != nil {
		return err
	}

	w.mu.RLock()
	id := w.conv.ID
	w.mu.RUnlock()

	if err := w.socket.Join(id); err != nil {
		return err
	}
	return w.Refresh(ctx)
}

// Refresh re-reads the conversation state and merges its history.
func (w *Widget) Refresh(ctx context.Context) error {
	conv, history, err := w.api.MyConversation(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conv = conv
	w.mu.Unlock()

	w.log.Merge(history)
	return nil
}

// HandleMessage merges a live message of this conversation.
func (w *Widget) HandleMessage(m Message) {
	w.mu.RLock()
	conv := w.conv
	w.mu.RUnlock()

	if conv == nil || m.ConversationID != conv.ID {
		return
	}
	w.log.Add(m)
}

// HandleAck marks the conversation closed when the server says so.
func (w *Widget) HandleAck(a Ack) {
	if a.Status != "rejected_closed" {
		return
	}
	w.mu.Lock()
	if w.conv != nil {
		w.conv.Status = StatusClosed
	}
	w.mu.Unlock()
}

// CanSend reports whether the send box is enabled.
func (w *Widget) CanSend() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conv.IsOpen()
}

// Send trims content and sends it when the conversation is open. The
// returned correlation id matches the message_ack.
func (w *Widget) Send(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}

	w.mu.RLock()
	conv := w.conv
	w.mu.RUnlock()

	if conv == nil {
		return "", ErrNoConversation
	}
	if !conv.IsOpen() {
		return "", ErrConversationClosed
	}

	correlationID := uuid.NewString()
	if err := w.socket.Send(conv.ID, content, correlationID); err != nil {
		return "", err
	}
	return correlationID, nil
}

// Conversation returns a copy of the loaded conversation, or nil.
func (w *Widget) Conversation() *Conversation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conv == nil {
		return nil
	}
	c := *w.conv
	return &c
}

// Messages returns the history, oldest first.
func (w *Widget) Messages() []Message {
	return w.log.Messages()
}

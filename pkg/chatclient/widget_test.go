package chatclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentFrame struct {
	conversationID uint
	content        string
	correlationID  string
}

type fakeTransport struct {
	mu      sync.Mutex
	calls   []string
	joined  map[uint]bool
	sent    []sentFrame
	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{joined: map[uint]bool{}}
}

func (f *fakeTransport) Join(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "join")
	f.joined[id] = true
	return nil
}

func (f *fakeTransport) Leave(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "leave")
	delete(f.joined, id)
	return nil
}

func (f *fakeTransport) Send(id uint, content, correlationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentFrame{id, content, correlationID})
	return nil
}

type fakeWidgetAPI struct {
	transport *fakeTransport
	conv      Conversation
	history   [][]Message
	calls     int
}

func (f *fakeWidgetAPI) MyConversation(context.Context) (*Conversation, []Message, error) {
	f.transport.mu.Lock()
	f.transport.calls = append(f.transport.calls, "fetch")
	f.transport.mu.Unlock()

	idx := f.calls
	if idx >= len(f.history) {
		idx = len(f.history) - 1
	}
	f.calls++
	c := f.conv
	return &c, f.history[idx], nil
}

func TestWidgetOpenJoinsAndClosesFetchGap(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	transport := newFakeTransport()
	api := &fakeWidgetAPI{
		transport: transport,
		conv:      Conversation{ID: 5, UserID: "u-1", Status: StatusOpen},
		history: [][]Message{
			{msgAt(1, base, "hello")},
			{msgAt(1, base, "hello"), msgAt(2, base.Add(time.Second), "sent during join")},
		},
	}

	w := NewWidget(api, transport)
	require.NoError(t, w.Open(context.Background()))

	assert.Equal(t, []string{"fetch", "join", "fetch"}, transport.calls)
	assert.True(t, transport.joined[5])
	got := w.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "sent during join", got[1].Content)

	w.HandleMessage(Message{ID: 2, ConversationID: 5, Content: "sent during join", CreatedAt: base.Add(time.Second)})
	w.HandleMessage(Message{ID: 3, ConversationID: 5, Content: "live", CreatedAt: base.Add(2 * time.Second)})
	w.HandleMessage(Message{ID: 4, ConversationID: 99, Content: "other conversation", CreatedAt: base.Add(3 * time.Second)})
	assert.Len(t, w.Messages(), 3)
}

func TestWidgetSendGating(t *testing.T) {
	transport := newFakeTransport()
	api := &fakeWidgetAPI{
		transport: transport,
		conv:      Conversation{ID: 5, Status: StatusOpen},
		history:   [][]Message{{}},
	}
	w := NewWidget(api, transport)

	_, err := w.Send("hi")
	assert.ErrorIs(t, err, ErrNoConversation)

	require.NoError(t, w.Open(context.Background()))
	assert.True(t, w.CanSend())

	_, err = w.Send("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	corr, err := w.Send("  is the car ready?  ")
	require.NoError(t, err)
	assert.NotEmpty(t, corr)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sentFrame{5, "is the car ready?", corr}, transport.sent[0])

	w.HandleAck(Ack{CorrelationID: corr, Status: "rejected_closed"})
	assert.False(t, w.CanSend())
	assert.Equal(t, StatusClosed, w.Conversation().Status)

	_, err = w.Send("still there?")
	assert.ErrorIs(t, err, ErrConversationClosed)
	assert.Len(t, transport.sent, 1)
}

func TestWidgetPropagatesTransportError(t *testing.T) {
	transport := newFakeTransport()
	transport.sendErr = ErrNotConnected
	w := NewWidget(&fakeWidgetAPI{transport: transport, conv: Conversation{ID: 1, Status: StatusOpen}, history: [][]Message{{}}}, transport)
	require.NoError(t, w.Open(context.Background()))

	_, err := w.Send("hello")
	assert.ErrorIs(t, err, ErrNotConnected)
}

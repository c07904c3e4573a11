package chatclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsoleAPI struct {
	summaries []Summary
	history   map[uint][]Message
	closed    []uint
}

func (f *fakeConsoleAPI) ListConversations(context.Context) ([]Summary, error) {
	out := make([]Summary, len(f.summaries))
	copy(out, f.summaries)
	return out, nil
}

func (f *fakeConsoleAPI) ConversationMessages(_ context.Context, id uint) ([]Message, error) {
	return f.history[id], nil
}

func (f *fakeConsoleAPI) CloseConversation(_ context.Context, id uint) (*Conversation, error) {
	f.closed = append(f.closed, id)
	return &Conversation{ID: id, Status: StatusClosed}, nil
}

func summary(id uint, updated time.Time, status string) Summary {
	return Summary{Conversation: Conversation{ID: id, Status: status, UpdatedAt: updated}}
}

func TestConsoleLiveListUpdates(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeConsoleAPI{summaries: []Summary{
		summary(1, base, StatusOpen),
		summary(2, base.Add(time.Minute), StatusOpen),
	}}
	c := NewConsole(api, newFakeTransport())
	require.NoError(t, c.Load(context.Background()))

	list := c.Summaries()
	require.Len(t, list, 2)
	assert.Equal(t, uint(2), list[0].ID)

	c.HandleMessage(Message{ID: 10, ConversationID: 1, SenderRole: "user", Content: "any news?", CreatedAt: base.Add(2 * time.Minute)})
	list = c.Summaries()
	assert.Equal(t, uint(1), list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "any news?", *list[0].LastMessage)
	assert.Equal(t, int64(1), list[0].UserMessageCount)

	c.HandleMessage(Message{ID: 11, ConversationID: 1, SenderRole: "admin", Content: "on it", CreatedAt: base.Add(3 * time.Minute)})
	list = c.Summaries()
	assert.Equal(t, "on it", *list[0].LastMessage)
	assert.Equal(t, int64(1), list[0].UserMessageCount)

	assert.False(t, c.Stale())
	c.HandleMessage(Message{ID: 12, ConversationID: 3, SenderRole: "user", Content: "new customer", CreatedAt: base.Add(4 * time.Minute)})
	assert.True(t, c.Stale())
	require.NoError(t, c.Load(context.Background()))
	assert.False(t, c.Stale())
}

func TestConsoleSelectJoinsBeforeFetch(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeConsoleAPI{
		summaries: []Summary{summary(1, base, StatusOpen), summary(2, base, StatusOpen)},
		history: map[uint][]Message{
			1: {msgAt(1, base, "first")},
			2: {{ID: 5, ConversationID: 2, Content: "other", CreatedAt: base}},
		},
	}
	transport := newFakeTransport()
	c := NewConsole(api, transport)
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.Select(context.Background(), 1))
	assert.True(t, transport.joined[1])
	assert.Len(t, c.Messages(), 1)

	c.HandleMessage(Message{ID: 1, ConversationID: 1, Content: "first", CreatedAt: base})
	c.HandleMessage(Message{ID: 2, ConversationID: 1, Content: "second", CreatedAt: base.Add(time.Second)})
	assert.Len(t, c.Messages(), 2)

	require.NoError(t, c.Select(context.Background(), 2))
	assert.False(t, transport.joined[1])
	assert.True(t, transport.joined[2])
	got := c.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "other", got[0].Content)
}

func TestConsoleSendAndClose(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeConsoleAPI{summaries: []Summary{summary(1, base, StatusOpen)}, history: map[uint][]Message{}}
	transport := newFakeTransport()
	c := NewConsole(api, transport)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	_, err := c.Send("hello")
	assert.ErrorIs(t, err, ErrNoConversation)

	require.NoError(t, c.Select(ctx, 1))
	_, err = c.Send(" ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.Send(" we can help ")
	require.NoError(t, err)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "we can help", transport.sent[0].content)

	require.NoError(t, c.CloseConversation(ctx, 1))
	assert.Equal(t, []uint{1}, api.closed)
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, StatusClosed, sel.Status)

	_, err = c.Send("after close")
	assert.ErrorIs(t, err, ErrConversationClosed)
}

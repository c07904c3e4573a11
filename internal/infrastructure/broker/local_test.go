package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar-server/chat-api/internal/domain/message"
)

func TestLocalBrokerRequiresSubscriber(t *testing.T) {
	b := NewLocalBroker()
	err := b.Publish(context.Background(), &message.Message{ID: 1})
	assert.ErrorIs(t, err, ErrNoSubscriber)
}

func TestLocalBrokerDelivers(t *testing.T) {
	b := NewLocalBroker()

	var got []*message.Message
	require.NoError(t, b.Subscribe(context.Background(), func(m *message.Message) {
		got = append(got, m)
	}))

	require.NoError(t, b.Publish(context.Background(), &message.Message{ID: 7, ConversationID: 3}))
	require.Len(t, got, 1)
	assert.Equal(t, uint(7), got[0].ID)
}

func TestLocalBrokerHonoursCancelledContext(t *testing.T) {
	b := NewLocalBroker()
	require.NoError(t, b.Subscribe(context.Background(), func(*message.Message) {
		t.Fatal("must not deliver on a cancelled context")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Publish(ctx, &message.Message{ID: 1}), context.Canceled)
}

// Package broker carries persisted chat messages to the realtime gateways.
package broker

import (
	"context"
	"errors"
	"sync"

	"rentacar-server/chat-api/internal/domain/message"
)

// ErrNoSubscriber is returned by Publish before anything subscribed.
var ErrNoSubscriber = errors.New("broker: no subscriber")

// LocalBroker delivers in process. It serves a single instance deployment.
type LocalBroker struct {
	mu      sync.RWMutex
	deliver func(*message.Message)
}

// NewLocalBroker creates an in-process broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

// Subscribe registers the delivery callback, replacing any previous one.
func (b *LocalBroker) Subscribe(_ context.Context, deliver func(*message.Message)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	return nil
}

// Publish hands the message to the subscriber synchronously.
func (b *LocalBroker) Publish(ctx context.Context, msg *message.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()

	if deliver == nil {
		return ErrNoSubscriber
	}
	deliver(msg)
	return nil
}

// Close is a no-op kept so both brokers share the shutdown path.
func (b *LocalBroker) Close() error {
	return nil
}

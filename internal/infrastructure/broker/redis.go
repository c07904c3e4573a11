package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/infrastructure/metrics"
)

// RedisBroker fans messages out through Redis pub/sub so every instance can
// deliver to the connections it holds.
type RedisBroker struct {
	client  redis.UniversalClient
	channel string
	log     zerolog.Logger

	pubsub    *redis.PubSub
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRedisBroker creates a broker on the given pub/sub channel.
func NewRedisBroker(client redis.UniversalClient, channel string, log zerolog.Logger) *RedisBroker {
	return &RedisBroker{
		client:  client,
		channel: channel,
		log:     log.With().Str("component", "redis-broker").Str("channel", channel).Logger(),
		done:    make(chan struct{}),
	}
}

// Subscribe joins the channel and starts the receive loop. Only the first
// call subscribes.
func (b *RedisBroker) Subscribe(ctx context.Context, deliver func(*message.Message)) error {
	var err error
	b.startOnce.Do(func() {
		pubsub := b.client.Subscribe(ctx, b.channel)
		if _, err = pubsub.Receive(ctx); err != nil {
			metrics.BrokerErrors.WithLabelValues("redis", "subscribe").Inc()
			_ = pubsub.Close()
			err = fmt.Errorf("subscribe %s: %w", b.channel, err)
			return
		}
		b.pubsub = pubsub

		b.wg.Add(1)
		go b.run(ctx, pubsub.Channel(), deliver)
		b.log.Info().Msg("redis broker subscribed")
	})
	return err
}

// Publish sends the message to every subscribed instance.
func (b *RedisBroker) Publish(ctx context.Context, msg *message.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		metrics.BrokerErrors.WithLabelValues("redis", "publish").Inc()
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close stops the receive loop. Safe to call multiple times.
func (b *RedisBroker) Close() error {
	var err error
	b.stopOnce.Do(func() {
		close(b.done)
		if b.pubsub != nil {
			err = b.pubsub.Close()
		}
		b.wg.Wait()
		b.log.Info().Msg("redis broker stopped")
	})
	return err
}

func (b *RedisBroker) run(ctx context.Context, ch <-chan *redis.Message, deliver func(*message.Message)) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var msg message.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				metrics.BrokerErrors.WithLabelValues("redis", "decode").Inc()
				b.log.Warn().Err(err).Msg("dropping undecodable broker payload")
				continue
			}
			deliver(&msg)
		}
	}
}

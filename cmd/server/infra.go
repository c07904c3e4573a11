package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"rentacar-server/chat-api/internal/config"
	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/domain/realtime"
	"rentacar-server/chat-api/internal/infrastructure/broker"
	"rentacar-server/chat-api/internal/infrastructure/database"
	"rentacar-server/chat-api/internal/infrastructure/lock"
	"rentacar-server/chat-api/internal/infrastructure/redisclient"
	"rentacar-server/chat-api/internal/infrastructure/repository/chatrepo"
	"rentacar-server/chat-api/internal/interfaces/httpserver"
)

// Infrastructure is the storage, locking and fan-out backend selected by config.
type Infrastructure struct {
	Conversations conversation.Repository
	Messages      message.Repository
	Locker        conversation.Locker
	Broker        interface {
		realtime.Broker
		Close() error
	}
	Checks httpserver.ReadinessChecks

	closers []func() error
}

// ProvideInfrastructure connects PostgreSQL when DATABASE_URL is set and Redis
// when REDIS_URL is set, falling back to in-process implementations.
func ProvideInfrastructure(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{Checks: httpserver.ReadinessChecks{}}

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(database.ConfigFrom(cfg))
		if err != nil {
			return nil, err
		}
		infra.closers = append(infra.closers, func() error { return database.Close(db) })

		if cfg.DBAutoMigrate {
			if err := database.AutoMigrate(ctx, db, log); err != nil {
				infra.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		infra.Conversations = chatrepo.NewConversationRepository(db)
		infra.Messages = chatrepo.NewMessageRepository(db)
		infra.Checks["database"] = dbCheck(db)
		log.Info().Msg("using postgres chat store")
	} else {
		store := chatrepo.NewMemoryStore()
		infra.Conversations = store.Conversations()
		infra.Messages = store.Messages()
		log.Warn().Msg("DATABASE_URL not set, using in-memory chat store")
	}

	if cfg.RedisURL != "" {
		client, err := redisclient.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			infra.Close()
			return nil, err
		}
		redisBroker := broker.NewRedisBroker(client, cfg.RedisChannel, log)
		infra.Broker = redisBroker
		infra.Locker = lock.NewRedisLocker(client, cfg.LockTTL, log)
		infra.Checks["redis"] = redisCheck(client)
		infra.closers = append(infra.closers, redisBroker.Close, client.Close)
	} else {
		infra.Broker = broker.NewLocalBroker()
		infra.Locker = lock.NewKeyedMutex()
	}

	return infra, nil
}

// Close releases connections in reverse order of acquisition.
func (i *Infrastructure) Close() {
	for idx := len(i.closers) - 1; idx >= 0; idx-- {
		_ = i.closers[idx]()
	}
	i.closers = nil
}

// ProvideConversationRepository exposes the selected repository to wire.
func ProvideConversationRepository(i *Infrastructure) conversation.Repository {
	return i.Conversations
}

// ProvideMessageRepository exposes the selected repository to wire.
func ProvideMessageRepository(i *Infrastructure) message.Repository {
	return i.Messages
}

// ProvideLocker exposes the selected locker to wire.
func ProvideLocker(i *Infrastructure) conversation.Locker {
	return i.Locker
}

// ProvideBroker exposes the selected broker to wire.
func ProvideBroker(i *Infrastructure) realtime.Broker {
	return i.Broker
}

// ProvideReadinessChecks exposes the dependency probes to wire.
func ProvideReadinessChecks(i *Infrastructure) httpserver.ReadinessChecks {
	return i.Checks
}

func dbCheck(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func redisCheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

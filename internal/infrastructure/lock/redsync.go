package lock

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisLockPrefix     = "chat:lock:"
	redisLockTries      = 64
	redisLockRetryDelay = 50 * time.Millisecond
)

// RedisLocker serializes a key across every instance sharing the Redis server.
type RedisLocker struct {
	rs  *redsync.Redsync
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisLocker creates a redsync backed locker. ttl bounds how long a
// crashed holder can block others.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		rs:  redsync.New(goredis.NewPool(client)),
		ttl: ttl,
		log: log.With().Str("component", "redis-locker").Logger(),
	}
}

// Acquire takes the distributed lock for key.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(redisLockPrefix+key,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(redisLockTries),
		redsync.WithRetryDelay(redisLockRetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}

	return func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), l.ttl)
		defer cancel()
		if _, err := mutex.UnlockContext(unlockCtx); err != nil {
			l.log.Error().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}, nil
}

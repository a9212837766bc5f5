// Package redis provides the reminder cycle lock shared by replicas.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// CycleLock implements ports.CycleLock with SET NX PX.
type CycleLock struct {
	client *redis.Client
}

var _ ports.CycleLock = (*CycleLock)(nil)

// NewCycleLock connects to Redis. An unreachable server is logged, not
// fatal; TryAcquire reports the error on each cycle instead.
func NewCycleLock(cfg Config, logger *slog.Logger) *CycleLock {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", "addr", cfg.Addr, "error", err)
	} else {
		logger.Info("connected to redis", "addr", cfg.Addr)
	}

	return &CycleLock{client: client}
}

// TryAcquire takes key for ttl. The returned release func is a no-op once
// the key has expired or been taken by another holder.
func (l *CycleLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return release, true, nil
}

// Ping verifies Redis connectivity.
func (l *CycleLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the client.
func (l *CycleLock) Close() error {
	return l.client.Close()
}

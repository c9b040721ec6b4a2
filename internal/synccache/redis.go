// Package synccache stores last-sync timestamps for the mandi sync job.
// Postgres persistence lives in the database package; this package adds
// Redis and in-process stores with the same method set.
package synccache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trogers1052/mandi-price-service/internal/config"
)

// Redis keeps last-sync timestamps in Redis
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (r *Redis) key(scope string) string {
	return r.prefix + ":last_sync:" + scope
}

// GetLastSync returns the last sync time for scope, or nil if never synced
func (r *Redis) GetLastSync(ctx context.Context, scope string) (*time.Time, error) {
	v, err := r.client.Get(ctx, r.key(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get last sync: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("corrupt last sync value %q: %w", v, err)
	}
	return &t, nil
}

// SetLastSync records the last sync time for scope
func (r *Redis) SetLastSync(ctx context.Context, scope string, t time.Time) error {
	if err := r.client.Set(ctx, r.key(scope), t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("redis set last sync: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}

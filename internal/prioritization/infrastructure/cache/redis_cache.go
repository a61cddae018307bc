// Package cache stores computed rankings so identical requests are answered
// without rescoring.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces ranking entries in Redis.
const KeyPrefix = "taskrank:ranking:"

// RedisCache keeps rankings in Redis as JSON with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache on an existing client. A zero ttl stores
// entries without expiration.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached ranking or domain.ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.ScoredTask, error) {
	raw, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var ranked []domain.ScoredTask
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return nil, fmt.Errorf("decode cached ranking: %w", err)
	}
	return ranked, nil
}

// Set stores a ranking under key.
func (c *RedisCache) Set(ctx context.Context, key string, ranked []domain.ScoredTask) error {
	raw, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NoopCache never holds anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]domain.ScoredTask, error) {
	return nil, domain.ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, []domain.ScoredTask) error {
	return nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// tableCacheKeyPrefix is the prefix for table blob keys in Redis.
	tableCacheKeyPrefix = "table:"
)

// RedisBlobCache implements BlobCache using Redis as the backing store.
type RedisBlobCache struct {
	client *redis.Client
}

var _ BlobCache = (*RedisBlobCache)(nil)

// NewRedisBlobCache creates a new Redis-backed blob cache.
func NewRedisBlobCache(client *redis.Client) *RedisBlobCache {
	return &RedisBlobCache{
		client: client,
	}
}

// Get retrieves a blob from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisBlobCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.buildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores a blob in Redis cache with the specified TTL.
func (c *RedisBlobCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.buildKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a blob from Redis cache.
func (c *RedisBlobCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (c *RedisBlobCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// buildKey constructs the Redis key for a table blob.
func (c *RedisBlobCache) buildKey(key string) string {
	return tableCacheKeyPrefix + key
}

// Package cache provides a tiny Redis client wrapper for screening results,
// content-addressed by the uploaded image bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client for screening result storage
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new Cache instance connected to the specified Redis address.
// If addr is empty, defaults to localhost:6379.
func New(addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Key returns the cache key for an image payload. The same bytes always map
// to the same key, so repeated uploads of one photo hit the cache.
func Key(imageData []byte) string {
	sum := sha256.Sum256(imageData)
	return "screen:" + hex.EncodeToString(sum[:])
}

// SetResult stores a serialized screening result under key with the
// configured TTL
func (c *Cache) SetResult(ctx context.Context, key, data string) error {
	if c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	err := c.client.Set(ctx, key, data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set result for %s: %w", key, err)
	}

	return nil
}

// GetResult retrieves a serialized screening result. Returns "" when the key
// does not exist.
func (c *Cache) GetResult(ctx context.Context, key string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil // Key does not exist
	}
	if err != nil {
		return "", fmt.Errorf("failed to get result for %s: %w", key, err)
	}

	return data, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

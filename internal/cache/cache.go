package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small read-through cache for public API responses. It is best
// effort: every failure is treated as a miss and the caller falls back to
// the store.
type Cache struct {
	rdb *redis.Client
}

// New creates a Cache backed by Redis.
func New(redisURL, password string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// GetJSON loads key into dest. Reports false on miss, expiry or any error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON stores v under key for ttl. Errors are ignored; a failed write
// just means the next read misses.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, ttl) //nolint:errcheck
}

// Invalidate drops a key so the next read goes to the store.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.rdb.Del(ctx, key) //nolint:errcheck
}

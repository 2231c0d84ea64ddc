package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "profile:"

// Cache stores resolved profiles between requests.
type Cache interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Set(ctx context.Context, p *Profile) error
}

// RedisCache caches profiles as JSON with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed profile cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (c *RedisCache) Get(ctx context.Context, id string) (*Profile, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	p.Found = true
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+p.ID, raw, c.ttl).Err()
}

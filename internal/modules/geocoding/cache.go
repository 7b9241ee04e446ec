package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"entregas/internal/types"
)

// Cache memoizes resolved addresses keyed by the completed, lower-cased query.
type Cache interface {
	Get(ctx context.Context, key string) (types.Point, bool, error)
	Set(ctx context.Context, key string, p types.Point, ttl time.Duration) error
}

const redisKeyPrefix = "geocode:"

type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{redis: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (types.Point, bool, error) {
	raw, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Point{}, false, nil
	}
	if err != nil {
		return types.Point{}, false, err
	}
	var p types.Point
	if err := json.Unmarshal(raw, &p); err != nil {
		return types.Point{}, false, err
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, p types.Point, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	p       types.Point
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: make(map[string]cacheEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (types.Point, bool, error) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return types.Point{}, false, nil
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return types.Point{}, false, nil
	}
	return e.p, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, p types.Point, ttl time.Duration) error {
	c.mu.Lock()
	c.store[key] = cacheEntry{p: p, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

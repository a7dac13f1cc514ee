package memory

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrCacheMiss is returned by Cache.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Cache implements ports.CacheService in process. It stands in for valkey
// when no valkey address is configured or the server is unreachable.
type Cache struct {
	c *gocache.Cache
}

// NewCache creates a Cache that sweeps expired entries every cleanup.
func NewCache(cleanup time.Duration) *Cache {
	return &Cache{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v.([]byte), nil
}

// Set stores value; ttlSeconds <= 0 keeps it until deleted.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	ttl := gocache.NoExpiration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	c.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Delete(key)
	return nil
}

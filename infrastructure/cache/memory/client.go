// ABOUTME: In-memory cache implementation backed by patrickmn/go-cache
// ABOUTME: Provides TTL support with periodic cleanup of expired entries

package memory

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrCacheMiss is returned when a key is not found in the cache.
var ErrCacheMiss = errors.New("cache: key not found")

const (
	defaultExpiration = time.Hour
	cleanupInterval   = 10 * time.Minute
)

// MemoryCache implements the Cache interface over go-cache.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache instance with the
// default expiration and cleanup interval.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithExpiration(defaultExpiration)
}

// NewMemoryCacheWithExpiration creates a cache with a custom default
// expiration for entries stored with ttl 0.
func NewMemoryCacheWithExpiration(expiration time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(expiration, cleanupInterval),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	value, found := c.cache.Get(key)
	if !found {
		return nil, ErrCacheMiss
	}

	stored := value.([]byte)
	result := make([]byte, len(stored))
	copy(result, stored)
	return result, nil
}

// Set stores a value in the cache with the given TTL. A zero TTL keeps
// the entry until the cache's default expiration.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	if ttl == 0 {
		c.cache.SetDefault(key, stored)
		return nil
	}
	c.cache.Set(key, stored, ttl)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.cache.Delete(key)
	return nil
}

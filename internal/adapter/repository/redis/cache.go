package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheNamespace prefixes cache keys when no namespace is given.
const DefaultCacheNamespace = "procureledger:cache"

var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	errNoTTL = errors.New("cache entries need a positive ttl")
)

// Cache implements usecase.Cache on Redis strings. Every key lives under a
// namespace so several services can share one Redis database.
type Cache struct {
	client    redis.UniversalClient
	namespace string
}

// NewCache creates a Cache writing under namespace.
func NewCache(client redis.UniversalClient, namespace string) *Cache {
	if namespace == "" {
		namespace = DefaultCacheNamespace
	}
	return &Cache{client: client, namespace: namespace}
}

func (c *Cache) key(k string) string {
	return c.namespace + ":" + k
}

// Get returns the cached bytes for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

// Set stores value for ttl. Entries never outlive their ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errNoTTL
	}
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Delete evicts key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker holds a key while the first request is still running.
const pendingMarker = "processing"

// idempotencyPrefix namespaces claimed keys next to the cache's keys.
const idempotencyPrefix = "procureledger:idempotency:"

// IdempotencyStore claims request keys with SETNX so only the first of
// concurrent duplicates runs. It implements usecase.IdempotencyStore.
type IdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client, prefix: idempotencyPrefix}
}

func (s *IdempotencyStore) key(k string) string { return s.prefix + k }

// CheckAndSet claims key with response, or with a pending marker when response
// is nil. When the key is already held it returns true and the stored value.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.key(key)

	var value any = pendingMarker
	if response != nil {
		value = response
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET. Report it held; an empty value reads as in flight.
		return true, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, existing, nil
}

// Update replaces the in-flight marker with the final response and restarts its TTL.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), response, ttl).Err()
}

// Release drops a claimed key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

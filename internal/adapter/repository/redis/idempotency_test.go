package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStoreRequestLifecycle(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()
	const key = "u-fin:alloc-INV-00010-1"

	held, _, err := store.CheckAndSet(ctx, key, nil, time.Hour)
	if err != nil || held {
		t.Fatalf("first claim: held=%v err=%v", held, err)
	}

	held, value, err := store.CheckAndSet(ctx, key, nil, time.Hour)
	if err != nil || !held || string(value) != pendingMarker {
		t.Fatalf("retry while in flight: held=%v value=%s err=%v", held, value, err)
	}

	response := []byte(`{"entries":[]}`)
	if err := store.Update(ctx, key, response, 10*time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ttl := mr.TTL(store.prefix + key); ttl != 10*time.Minute {
		t.Fatalf("ttl = %v, want 10m", ttl)
	}

	held, value, err = store.CheckAndSet(ctx, key, nil, time.Hour)
	if err != nil || !held || string(value) != string(response) {
		t.Fatalf("replay: held=%v value=%s err=%v", held, value, err)
	}
}

func TestIdempotencyStoreReleaseAllowsRetry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if held, _, err := store.CheckAndSet(ctx, "k", nil, time.Hour); err != nil || held {
		t.Fatalf("claim: held=%v err=%v", held, err)
	}
	if err := store.Release(ctx, "k"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if mr.Exists(store.prefix + "k") {
		t.Fatal("expected key removed")
	}

	if held, _, err := store.CheckAndSet(ctx, "k", nil, time.Hour); err != nil || held {
		t.Fatalf("retry after release: held=%v err=%v", held, err)
	}
}

func TestIdempotencyStoreClaimWithResponseAndExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if held, _, err := store.CheckAndSet(ctx, "k", []byte("done"), time.Minute); err != nil || held {
		t.Fatalf("claim: held=%v err=%v", held, err)
	}
	if held, value, err := store.CheckAndSet(ctx, "k", nil, time.Minute); err != nil || !held || string(value) != "done" {
		t.Fatalf("stored response: held=%v value=%s err=%v", held, value, err)
	}

	mr.FastForward(2 * time.Minute)

	if held, _, err := store.CheckAndSet(ctx, "k", nil, time.Minute); err != nil || held {
		t.Fatalf("expired key should be claimable: held=%v err=%v", held, err)
	}
}

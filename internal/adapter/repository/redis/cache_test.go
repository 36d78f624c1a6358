package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheRoundTripUnderNamespace(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	tests := []struct {
		name      string
		namespace string
		storedAs  string
	}{
		{name: "default namespace", namespace: "", storedAs: DefaultCacheNamespace + ":process:Budget"},
		{name: "custom namespace", namespace: "tenant-a", storedAs: "tenant-a:process:Budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(client, tt.namespace)
			ctx := context.Background()

			if err := cache.Set(ctx, "process:Budget", []byte(`{"id":"proc-1"}`), time.Minute); err != nil {
				t.Fatalf("set failed: %v", err)
			}

			val, err := cache.Get(ctx, "process:Budget")
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if string(val) != `{"id":"proc-1"}` {
				t.Fatalf("unexpected value %s", val)
			}
			if !mr.Exists(tt.storedAs) {
				t.Fatalf("expected key %s, have %v", tt.storedAs, mr.Keys())
			}
		})
	}
}

func TestCacheMissAndExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client, "")
	ctx := context.Background()

	if _, err := cache.Get(ctx, "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := cache.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestCacheRejectsEntriesWithoutTTL(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client, "")
	if err := cache.Set(context.Background(), "forever", []byte("v"), 0); !errors.Is(err, errNoTTL) {
		t.Fatalf("expected errNoTTL, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("nothing should be written, have %v", mr.Keys())
	}
}

func TestCacheDeleteEvicts(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client, "")
	ctx := context.Background()

	if err := cache.Set(ctx, "process:Invoice", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "process:Invoice"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := cache.Delete(ctx, "process:Invoice"); err != nil {
		t.Fatalf("second delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "process:Invoice"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss for deleted key, got %v", err)
	}
}

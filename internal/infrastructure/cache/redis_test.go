package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestRedisBlobCache_Get_CacheHit(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisBlobCache(client)
	ctx := context.Background()

	blob := []byte(`[{"id":"c1","name":"Ana"}]`)
	if err := cache.Set(ctx, "coaches.json", blob, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, "coaches.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("Get() = %s, want %s", got, blob)
	}
}

func TestRedisBlobCache_Get_CacheMiss(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisBlobCache(client)

	got, err := cache.Get(context.Background(), "pricing-plans.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on cache miss, got %s", got)
	}
}

func TestRedisBlobCache_TTL(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisBlobCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "coaches.json", []byte("[]"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := mr.TTL(tableCacheKeyPrefix + "coaches.json"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "coaches.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired entry to miss, got %s", got)
	}
}

func TestRedisBlobCache_Delete(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisBlobCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "coaches.json", []byte("[]"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Delete(ctx, "coaches.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := cache.Get(ctx, "coaches.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %s", got)
	}
}

func TestRedisBlobCache_Delete_NonExistent(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisBlobCache(client)

	if err := cache.Delete(context.Background(), "missing.json"); err != nil {
		t.Errorf("Delete of non-existent key should not error, got: %v", err)
	}
}

func TestRedisBlobCache_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	cache := NewRedisBlobCache(client)

	if _, err := cache.Get(context.Background(), "coaches.json"); err == nil {
		t.Error("expected error when redis is down")
	}
	if err := cache.Ping(context.Background()); err == nil {
		t.Error("expected ping error when redis is down")
	}
}

func TestRedisBlobCache_buildKey(t *testing.T) {
	cache := &RedisBlobCache{}

	if got := cache.buildKey("coaches.json"); got != "table:coaches.json" {
		t.Errorf("buildKey() = %v, want table:coaches.json", got)
	}
}

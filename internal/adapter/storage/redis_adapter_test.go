package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestSetIdempotency_FirstWins(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := fmt.Sprintf("idempotency:order:test-%d", time.Now().UnixNano())
	defer client.Del(ctx, key)

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first set to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second set to be rejected")
	}

	ttl := client.TTL(ctx, key).Val()
	if ttl <= 0 || ttl > idempotencyKeyTTL {
		t.Errorf("unexpected ttl %v", ttl)
	}
}

func TestReleaseIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := fmt.Sprintf("idempotency:order:release-%d", time.Now().UnixNano())
	defer client.Del(ctx, key)

	if _, err := adapter.SetIdempotency(ctx, key); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := adapter.ReleaseIdempotency(ctx, key); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil || !ok {
		t.Errorf("expected key to be reusable after release: %v, %v", ok, err)
	}
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := fmt.Sprintf("idempotency:order:race-%d", time.Now().UnixNano())
	defer client.Del(ctx, key)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := adapter.SetIdempotency(ctx, key); err == nil && ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 winner, got %d", successCount.Load())
	}
}

func TestNoopCache(t *testing.T) {
	var cache NoopCache
	for i := 0; i < 2; i++ {
		ok, err := cache.SetIdempotency(context.Background(), "k")
		if err != nil || !ok {
			t.Errorf("noop cache must accept every key: %v, %v", ok, err)
		}
	}
}

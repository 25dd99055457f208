package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestSetIdempotency_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	client.Del(ctx, "checkout:test-idem-key")

	ok, err := adapter.SetIdempotency(ctx, "checkout:test-idem-key")
	require.NoError(t, err)
	assert.True(t, ok, "first call should acquire the key")

	ok, err = adapter.SetIdempotency(ctx, "checkout:test-idem-key")
	require.NoError(t, err)
	assert.False(t, ok, "second call should see the key")

	ttl, err := client.TTL(ctx, "checkout:test-idem-key").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestReleaseIdempotency_AllowsRetry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, 0)
	client.Del(ctx, "checkout:release-key")

	ok, err := adapter.SetIdempotency(ctx, "checkout:release-key")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, adapter.ReleaseIdempotency(ctx, "checkout:release-key"))

	ok, err = adapter.SetIdempotency(ctx, "checkout:release-key")
	require.NoError(t, err)
	assert.True(t, ok)

	// Releasing an absent key is not an error.
	client.Del(ctx, "checkout:release-key")
	assert.NoError(t, adapter.ReleaseIdempotency(ctx, "checkout:release-key"))
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	client.Del(ctx, "checkout:concurrent-idem-key")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	concurrency := 100

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, "checkout:concurrent-idem-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	// Only one should succeed
	assert.Equal(t, int32(1), successCount.Load())
}

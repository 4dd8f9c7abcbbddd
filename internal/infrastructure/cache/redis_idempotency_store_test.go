package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return addr
}

func TestRedisIdempotencyStore(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	t.Run("claim and release", func(t *testing.T) {
		ok, err := store.Acquire(ctx, "run-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Acquire(ctx, "run-a", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Release(ctx, "run-a"))
		ok, err = store.Acquire(ctx, "run-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("keys carry the prefix and ttl", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()

		_, err := store.Acquire(ctx, "run-b", 30*time.Second)
		require.NoError(t, err)

		ttl, err := client.TTL(ctx, DefaultKeyPrefix+"run-b").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, 30*time.Second)
	})

	t.Run("shared across clients", func(t *testing.T) {
		other, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
		require.NoError(t, err)
		defer other.Close()

		ok, err := store.Acquire(ctx, "run-c", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = other.Acquire(ctx, "run-c", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "a second instance sees the first claim")

		require.NoError(t, other.Release(ctx, "run-c"))
		ok, err = other.Acquire(ctx, "run-c", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "releasing a claim held elsewhere leaves it in place")
	})

	t.Run("expired claim can be taken over", func(t *testing.T) {
		ok, err := store.Acquire(ctx, "run-d", 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(100 * time.Millisecond)
		ok, err = store.Acquire(ctx, "run-d", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedisIdempotencyStore_ConnectFailure(t *testing.T) {
	_, err := NewRedisIdempotencyStore(context.Background(), RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
	})
	assert.Error(t, err)
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client), mr
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)
	ctx := context.Background()

	want := []bool{true, true, true, false}
	for i, expected := range want {
		result, err := limiter.Consume(ctx, "auth:login:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, expected, result.Allowed, "call %d", i+1)
	}
}

func TestRedisLimiterWindowExpires(t *testing.T) {
	limiter, mr := setupRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := limiter.Consume(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
	}

	mr.FastForward(time.Minute + time.Second)

	result, err := limiter.Consume(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2, result.Remaining)
}

func TestRedisLimiterClear(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := limiter.Consume(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, limiter.Clear(ctx, "k"))

	result, err := limiter.Consume(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := setupRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Consume(ctx, "a", 2, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Consume(ctx, "b", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

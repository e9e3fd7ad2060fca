package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	want := []bool{true, true, true, true, true, false}
	for i, expected := range want {
		result, err := limiter.Consume(ctx, "auth:login:10.0.0.1", 5, time.Second)
		require.NoError(t, err)
		assert.Equal(t, expected, result.Allowed, "call %d", i+1)
	}

	// After the window passes, the next call opens a fresh one.
	now = now.Add(time.Second + time.Millisecond)
	result, err := limiter.Consume(ctx, "auth:login:10.0.0.1", 5, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Consume(ctx, "a", 2, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Consume(ctx, "b", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiterRemainingNeverNegative(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		result, err := limiter.Consume(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Remaining, 0)
	}
}

func TestMemoryLimiterClear(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Consume(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, limiter.Clear(ctx, "k"))

	result, err := limiter.Consume(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestMemoryLimiterSweep(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_, err := limiter.Consume(ctx, fmt.Sprintf("key-%d", i), 5, time.Second)
		require.NoError(t, err)
	}
	require.Len(t, limiter.buckets, 100)

	now = now.Add(2 * time.Second)
	limiter.Sweep()
	assert.Empty(t, limiter.buckets)
}

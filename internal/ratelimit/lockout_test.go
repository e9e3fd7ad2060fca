package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(now *time.Time) *MemoryLockoutTracker {
	tracker := NewMemoryLockoutTracker(5, 15*time.Minute)
	tracker.now = func() time.Time { return *now }
	return tracker
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	now := time.Now()
	tracker := newTestTracker(&now)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		status, err := tracker.TrackFailure(ctx, "client@studio.example")
		require.NoError(t, err)
		assert.False(t, status.Locked, "failure %d", i)
		assert.Equal(t, i, status.Failures)
	}

	status, err := tracker.TrackFailure(ctx, "client@studio.example")
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.Equal(t, now.Add(15*time.Minute), status.LockedUntil)
}

func TestLockoutDoesNotExtend(t *testing.T) {
	now := time.Now()
	tracker := newTestTracker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.TrackFailure(ctx, "client@studio.example")
		require.NoError(t, err)
	}

	first, err := tracker.Check(ctx, "client@studio.example")
	require.NoError(t, err)
	require.True(t, first.Locked)

	now = now.Add(time.Minute)
	again, err := tracker.TrackFailure(ctx, "client@studio.example")
	require.NoError(t, err)
	assert.True(t, again.Locked)
	assert.Equal(t, first.LockedUntil, again.LockedUntil)
}

func TestLockoutExpiryResetsCounter(t *testing.T) {
	now := time.Now()
	tracker := newTestTracker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.TrackFailure(ctx, "client@studio.example")
		require.NoError(t, err)
	}

	now = now.Add(16 * time.Minute)

	status, err := tracker.Check(ctx, "client@studio.example")
	require.NoError(t, err)
	assert.False(t, status.Locked)

	// The first failure after expiry counts from one.
	status, err = tracker.TrackFailure(ctx, "client@studio.example")
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Equal(t, 1, status.Failures)
}

func TestLockoutClearOnSuccess(t *testing.T) {
	now := time.Now()
	tracker := newTestTracker(&now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := tracker.TrackFailure(ctx, "client@studio.example")
		require.NoError(t, err)
	}
	require.NoError(t, tracker.Clear(ctx, "client@studio.example"))

	status, err := tracker.TrackFailure(ctx, "client@studio.example")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Failures)
}

func TestLockoutNormalizesEmail(t *testing.T) {
	now := time.Now()
	tracker := newTestTracker(&now)
	ctx := context.Background()

	_, err := tracker.TrackFailure(ctx, " Client@Studio.Example ")
	require.NoError(t, err)

	status, err := tracker.TrackFailure(ctx, "client@studio.example")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Failures)
}

func TestLockoutSweep(t *testing.T) {
	now := time.Now()
	tracker := newTestTracker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.TrackFailure(ctx, "client@studio.example")
		require.NoError(t, err)
	}
	require.Len(t, tracker.entries, 1)

	now = now.Add(16 * time.Minute)
	tracker.Sweep()
	assert.Empty(t, tracker.entries)
}

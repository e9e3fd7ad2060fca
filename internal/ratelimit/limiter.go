package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports one consume decision. ResetAt is when the current
// window closes and the counter starts over.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a fixed-window counter keyed by arbitrary strings, e.g.
// "auth:login:203.0.113.9". The in-memory implementation below is
// per-process; horizontally scaled deployments must swap in the
// redis-backed one so instances share budgets.
type Limiter interface {
	Consume(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Clear(ctx context.Context, key string) error
}

// sweepThreshold bounds the bucket table. The sweep is opportunistic:
// letting it run late only delays memory reclamation, never changes
// counts.
const sweepThreshold = 10000

type bucket struct {
	count   int
	resetAt time.Time
}

type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Consume(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		if len(l.buckets) > sweepThreshold {
			l.sweepLocked(now)
		}
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
	}

	b.count++

	remaining := limit - b.count
	if remaining < 0 {
		remaining = 0
	}

	// The request that crosses the limit is rejected but still counted.
	return Result{
		Allowed:   b.count <= limit,
		Remaining: remaining,
		ResetAt:   b.resetAt,
	}, nil
}

func (l *MemoryLimiter) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// Sweep drops expired buckets. Called periodically by the scheduler in
// addition to the opportunistic sweep in Consume.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now())
}

func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}

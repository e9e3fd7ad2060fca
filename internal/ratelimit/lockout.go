package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LockStatus reports the lock state for one account.
type LockStatus struct {
	Locked      bool
	LockedUntil time.Time
	Failures    int
}

// LockoutTracker counts consecutive login failures per normalized email
// and locks the account once the configured threshold is reached. It is
// separate from the generic rate limiter: the limiter throttles an IP,
// the tracker protects one account regardless of where attempts come
// from.
type LockoutTracker interface {
	TrackFailure(ctx context.Context, email string) (LockStatus, error)
	Check(ctx context.Context, email string) (LockStatus, error)
	Clear(ctx context.Context, email string) error
}

type lockEntry struct {
	failures    int
	lockedUntil time.Time
}

type MemoryLockoutTracker struct {
	mu          sync.Mutex
	entries     map[string]*lockEntry
	maxFailures int
	duration    time.Duration
	now         func() time.Time
}

func NewMemoryLockoutTracker(maxFailures int, duration time.Duration) *MemoryLockoutTracker {
	return &MemoryLockoutTracker{
		entries:     make(map[string]*lockEntry),
		maxFailures: maxFailures,
		duration:    duration,
		now:         time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t *MemoryLockoutTracker) TrackFailure(_ context.Context, email string) (LockStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := NormalizeEmail(email)
	now := t.now()

	e, ok := t.entries[key]
	if !ok {
		e = &lockEntry{}
		t.entries[key] = e
	}

	if !e.lockedUntil.IsZero() {
		if now.Before(e.lockedUntil) {
			// Already locked: do not extend the lock.
			return LockStatus{Locked: true, LockedUntil: e.lockedUntil, Failures: e.failures}, nil
		}
		// Lock expired: start counting from scratch.
		*e = lockEntry{}
	}

	e.failures++
	if e.failures >= t.maxFailures {
		e.lockedUntil = now.Add(t.duration)
		return LockStatus{Locked: true, LockedUntil: e.lockedUntil, Failures: e.failures}, nil
	}

	return LockStatus{Failures: e.failures}, nil
}

func (t *MemoryLockoutTracker) Check(_ context.Context, email string) (LockStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[NormalizeEmail(email)]
	if !ok {
		return LockStatus{}, nil
	}

	if !e.lockedUntil.IsZero() && t.now().Before(e.lockedUntil) {
		return LockStatus{Locked: true, LockedUntil: e.lockedUntil, Failures: e.failures}, nil
	}
	return LockStatus{Failures: e.failures}, nil
}

func (t *MemoryLockoutTracker) Clear(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, NormalizeEmail(email))
	return nil
}

// Sweep drops entries whose lock expired and whose failure count no
// longer matters, bounding the table the same way the limiter does.
func (t *MemoryLockoutTracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, e := range t.entries {
		if !e.lockedUntil.IsZero() && now.After(e.lockedUntil) {
			delete(t.entries, key)
		}
	}
}

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aperture/api/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	err     error
}

func (s *memoryStore) Insert(_ context.Context, entry models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestRecorderWritesEntry(t *testing.T) {
	store := &memoryStore{}
	recorder := NewRecorder(store, zerolog.Nop(), false)

	recorder.Record(Entry{
		ActorUserID:  "admin-1",
		Action:       "admin.user_roles",
		ResourceType: "user",
		ResourceID:   "user-2",
		Payload:      map[string]any{"roles": []string{"customer"}},
		IP:           "203.0.113.9",
	})
	recorder.Drain()

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "admin-1", entry.ActorUserID)
	assert.Equal(t, "admin.user_roles", entry.Action)
	assert.Equal(t, "user", entry.ResourceType)
	assert.Equal(t, "user-2", entry.ResourceID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRecorderSwallowsStoreFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("connection refused")}
	recorder := NewRecorder(store, zerolog.Nop(), true)

	// Must not panic or surface the failure in any way.
	recorder.Record(Entry{Action: "auth.login", ResourceType: "user"})
	recorder.Drain()

	assert.Empty(t, store.entries)
}

func TestRecorderAcceptsSystemEvents(t *testing.T) {
	store := &memoryStore{}
	recorder := NewRecorder(store, zerolog.Nop(), false)

	recorder.Record(Entry{
		Action:       "system.seed_super_admin",
		ResourceType: "user",
	})
	recorder.Drain()

	require.Len(t, store.entries, 1)
	assert.Empty(t, store.entries[0].ActorUserID)
}

func TestRecorderConcurrentRecords(t *testing.T) {
	store := &memoryStore{}
	recorder := NewRecorder(store, zerolog.Nop(), false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Record(Entry{Action: "auth.login", ResourceType: "user"})
		}()
	}
	wg.Wait()
	recorder.Drain()

	assert.Len(t, store.entries, 50)
}

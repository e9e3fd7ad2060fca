// Package audit records security-relevant actions as a side effect.
// Recording is best-effort: a failed write is diagnosed, never
// propagated, and never rolls back the operation that triggered it.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aperture/api/internal/ids"
	"aperture/api/internal/models"
)

// writeTimeout bounds how long a single audit write may take so a slow
// store cannot stall request handling or shutdown.
const writeTimeout = 3 * time.Second

// Store persists entries. Implemented by the audit repository.
type Store interface {
	Insert(ctx context.Context, entry models.AuditLogEntry) error
}

// Entry is what callers supply; ActorUserID empty means a
// system-initiated event.
type Entry struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	Payload      map[string]any
	IP           string
}

type Recorder struct {
	store      Store
	log        zerolog.Logger
	production bool
	wg         sync.WaitGroup
}

func NewRecorder(store Store, log zerolog.Logger, production bool) *Recorder {
	return &Recorder{
		store:      store,
		log:        log,
		production: production,
	}
}

// Record writes the entry asynchronously. It returns immediately and
// never reports failure to the caller; callers invoke it exactly once
// per logical privileged mutation, after that mutation has committed.
func (r *Recorder) Record(entry Entry) {
	row := models.AuditLogEntry{
		ID:           ids.New(),
		ActorUserID:  entry.ActorUserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Payload:      entry.Payload,
		IP:           entry.IP,
		CreatedAt:    time.Now().UTC(),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.store.Insert(ctx, row); err != nil {
			event := r.log.Debug()
			if !r.production {
				event = r.log.Warn()
			}
			event.Err(err).
				Str("action", row.Action).
				Str("resource_type", row.ResourceType).
				Msg("audit write failed")
		}
	}()
}

// Drain blocks until in-flight writes finish. Called on shutdown.
func (r *Recorder) Drain() {
	r.wg.Wait()
}

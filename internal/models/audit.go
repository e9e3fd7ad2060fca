package models

import "time"

// AuditLogEntry is append-only. ActorUserID is empty for
// system-initiated events.
type AuditLogEntry struct {
	ID           string
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	Payload      map[string]any
	IP           string
	CreatedAt    time.Time
}

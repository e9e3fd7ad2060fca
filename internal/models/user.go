package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	IsActive     bool
	// SessionVersion is bumped on every credential change. Token
	// verification does not consult it yet; it exists as the
	// invalidation hook for when it does.
	SessionVersion int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is the per-request view of an authenticated user. It is never
// persisted: identity comes from the verified token, roles from a live
// read so that a revocation takes effect on the next request.
type Session struct {
	UserID string
	Email  string
	Name   string
	Roles  []RoleKey
}

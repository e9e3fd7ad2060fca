// Package authz holds the pure authorization decisions. Everything here
// is default-deny: a nil session, an unknown project, or an empty role
// set always resolves to "no".
package authz

import (
	"context"
	"errors"

	"aperture/api/internal/models"
)

var (
	// ErrForbidden marks an authenticated request that lacks the
	// required privilege. Distinct from validation failures: callers
	// map it to 403, never 400.
	ErrForbidden = errors.New("forbidden")

	ErrProjectNotFound = errors.New("project not found")
)

// ProjectAccessStore supplies the minimal project view an access
// decision needs. Implemented by the project repository.
type ProjectAccessStore interface {
	GetProjectAccess(ctx context.Context, projectID string) (models.ProjectAccess, error)
}

// HasRole reports whether the session holds any of the required roles.
// An empty session role set is never sufficient, whatever is required.
func HasRole(session *models.Session, required ...models.RoleKey) bool {
	if session == nil {
		return false
	}
	for _, want := range required {
		for _, have := range session.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether the session holds the admin override tier.
func IsAdmin(session *models.Session) bool {
	return HasRole(session, models.RoleAdmin, models.RoleSuperAdmin)
}

// CanAccessProject decides per-resource visibility:
// admins see everything, customers see projects where they are the
// client, photographers see projects they are assigned to. Unknown
// projects and storage errors both deny.
func CanAccessProject(ctx context.Context, store ProjectAccessStore, session *models.Session, projectID string) bool {
	if session == nil {
		return false
	}

	if IsAdmin(session) {
		return true
	}

	access, err := store.GetProjectAccess(ctx, projectID)
	if err != nil {
		return false
	}

	if HasRole(session, models.RoleCustomer) && access.ClientID == session.UserID {
		return true
	}

	if HasRole(session, models.RolePhotographer) {
		for _, memberID := range access.MemberIDs {
			if memberID == session.UserID {
				return true
			}
		}
	}

	return false
}

// CheckTargetMutation guards any status/password/roles change against a
// target user: touching a target who currently holds super_admin
// requires the actor to hold it too.
func CheckTargetMutation(actor *models.Session, targetRoles []models.RoleKey) error {
	if HasRole(actor, models.RoleSuperAdmin) {
		return nil
	}
	for _, role := range targetRoles {
		if role == models.RoleSuperAdmin {
			return ErrForbidden
		}
	}
	return nil
}

// CheckRoleChange additionally guards the requested role list: only a
// super_admin may grant or revoke super_admin, on anyone including
// themselves.
func CheckRoleChange(actor *models.Session, targetRoles []models.RoleKey, requested []models.RoleKey) error {
	if err := CheckTargetMutation(actor, targetRoles); err != nil {
		return err
	}
	if HasRole(actor, models.RoleSuperAdmin) {
		return nil
	}

	// CheckTargetMutation already rejected targets holding super_admin,
	// so for lesser actors the only remaining escalation is granting it.
	for _, role := range requested {
		if role == models.RoleSuperAdmin {
			return ErrForbidden
		}
	}
	return nil
}

// CheckStatusChange guards activation toggles: the super_admin target
// rule applies, and nobody may deactivate their own account.
func CheckStatusChange(actor *models.Session, targetID string, targetRoles []models.RoleKey, activating bool) error {
	if err := CheckTargetMutation(actor, targetRoles); err != nil {
		return err
	}
	if !activating && actor != nil && actor.UserID == targetID {
		return ErrForbidden
	}
	return nil
}

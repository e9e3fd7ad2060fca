package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"aperture/api/internal/models"
)

func session(userID string, roles ...models.RoleKey) *models.Session {
	return &models.Session{
		UserID: userID,
		Email:  userID + "@studio.example",
		Roles:  roles,
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		session  *models.Session
		required []models.RoleKey
		want     bool
	}{
		{"nil session", nil, []models.RoleKey{models.RoleAdmin}, false},
		{"empty roles", session("u1"), []models.RoleKey{models.RoleAdmin}, false},
		{"no overlap", session("u1", models.RoleCustomer), []models.RoleKey{models.RoleAdmin}, false},
		{"single match", session("u1", models.RoleAdmin), []models.RoleKey{models.RoleAdmin}, true},
		{"any of suffices", session("u1", models.RolePhotographer), []models.RoleKey{models.RoleAdmin, models.RolePhotographer}, true},
		{"empty required", session("u1", models.RoleAdmin), nil, false},
		{"empty roles empty required", session("u1"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRole(tt.session, tt.required...))
		})
	}
}

type stubAccessStore struct {
	projects map[string]models.ProjectAccess
}

func (s *stubAccessStore) GetProjectAccess(_ context.Context, projectID string) (models.ProjectAccess, error) {
	access, ok := s.projects[projectID]
	if !ok {
		return models.ProjectAccess{}, ErrProjectNotFound
	}
	return access, nil
}

func newStubStore() *stubAccessStore {
	return &stubAccessStore{
		projects: map[string]models.ProjectAccess{
			"p1": {
				ProjectID: "p1",
				ClientID:  "client-1",
				MemberIDs: []string{"photo-1", "photo-2"},
			},
		},
	}
}

func TestCanAccessProject(t *testing.T) {
	store := newStubStore()
	ctx := context.Background()

	tests := []struct {
		name      string
		session   *models.Session
		projectID string
		want      bool
	}{
		{"nil session", nil, "p1", false},
		{"admin sees any project", session("anyone", models.RoleAdmin), "p1", true},
		{"super admin sees any project", session("anyone", models.RoleSuperAdmin), "p1", true},
		{"client of the project", session("client-1", models.RoleCustomer), "p1", true},
		{"other customer", session("client-2", models.RoleCustomer), "p1", false},
		{"assigned photographer", session("photo-1", models.RolePhotographer), "p1", true},
		{"unassigned photographer", session("photo-9", models.RolePhotographer), "p1", false},
		{"client id without customer role", session("client-1", models.RolePhotographer), "p1", false},
		{"unknown project fails closed for customer", session("client-1", models.RoleCustomer), "missing", false},
		{"unknown project still true for admin", session("anyone", models.RoleAdmin), "missing", true},
		{"no roles at all", session("client-1"), "p1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessProject(ctx, store, tt.session, tt.projectID))
		})
	}
}

func TestCheckTargetMutation(t *testing.T) {
	superTarget := []models.RoleKey{models.RoleCustomer, models.RoleSuperAdmin}
	plainTarget := []models.RoleKey{models.RoleCustomer}

	assert.ErrorIs(t, CheckTargetMutation(session("a", models.RoleAdmin), superTarget), ErrForbidden)
	assert.NoError(t, CheckTargetMutation(session("a", models.RoleSuperAdmin), superTarget))
	assert.NoError(t, CheckTargetMutation(session("a", models.RoleAdmin), plainTarget))
	assert.ErrorIs(t, CheckTargetMutation(nil, plainTarget), ErrForbidden)
}

func TestCheckRoleChange(t *testing.T) {
	admin := session("a", models.RoleAdmin)
	super := session("s", models.RoleSuperAdmin)
	plainTarget := []models.RoleKey{models.RoleCustomer}
	superTarget := []models.RoleKey{models.RoleSuperAdmin}

	// A non-super_admin actor may not grant super_admin.
	err := CheckRoleChange(admin, plainTarget, []models.RoleKey{models.RoleSuperAdmin})
	assert.ErrorIs(t, err, ErrForbidden)

	// Nor touch a target who holds it, whatever the requested list.
	err = CheckRoleChange(admin, superTarget, []models.RoleKey{models.RoleCustomer})
	assert.ErrorIs(t, err, ErrForbidden)

	// A super_admin actor may do both.
	assert.NoError(t, CheckRoleChange(super, superTarget, []models.RoleKey{models.RoleCustomer}))
	assert.NoError(t, CheckRoleChange(super, plainTarget, []models.RoleKey{models.RoleSuperAdmin}))

	// Ordinary changes stay open to admins.
	assert.NoError(t, CheckRoleChange(admin, plainTarget, []models.RoleKey{models.RolePhotographer}))
}

func TestCheckStatusChange(t *testing.T) {
	admin := session("admin-1", models.RoleAdmin)
	plainTarget := []models.RoleKey{models.RoleCustomer}

	// Nobody deactivates their own account.
	err := CheckStatusChange(admin, "admin-1", plainTarget, false)
	assert.ErrorIs(t, err, ErrForbidden)

	// Reactivating yourself is not a lockout risk.
	assert.NoError(t, CheckStatusChange(admin, "admin-1", plainTarget, true))

	// Deactivating someone else is fine for a plain target.
	assert.NoError(t, CheckStatusChange(admin, "other", plainTarget, false))

	// Super admin target still requires a super admin actor.
	err = CheckStatusChange(admin, "other", []models.RoleKey{models.RoleSuperAdmin}, false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(session("u", models.RoleAdmin)))
	assert.True(t, IsAdmin(session("u", models.RoleSuperAdmin)))
	assert.False(t, IsAdmin(session("u", models.RoleCustomer, models.RolePhotographer)))
	assert.False(t, IsAdmin(nil))
}

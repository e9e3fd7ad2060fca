package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"aperture/api/internal/ids"
	"aperture/api/internal/models"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

var baseRoles = map[models.RoleKey]string{
	models.RoleCustomer:     "Customer",
	models.RolePhotographer: "Photographer",
	models.RoleAdmin:        "Administrator",
	models.RoleSuperAdmin:   "Super Administrator",
}

var membershipRoles = map[models.RoleKey]string{
	models.RoleTierBasic: "Basic Membership",
	models.RoleTierPro:   "Pro Membership",
	models.RoleTierUltra: "Ultra Membership",
}

// EnsureBaseRoles idempotently creates the core roles. Repeated and
// concurrent calls are safe; an existing role only has its display name
// refreshed.
func (r *RoleRepository) EnsureBaseRoles(ctx context.Context) error {
	return r.ensure(ctx, baseRoles)
}

// EnsureMembershipRoles does the same for the tier roles.
func (r *RoleRepository) EnsureMembershipRoles(ctx context.Context) error {
	return r.ensure(ctx, membershipRoles)
}

func (r *RoleRepository) ensure(ctx context.Context, roles map[models.RoleKey]string) error {
	const query = `
		INSERT INTO roles (id, key, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
	`

	for key, name := range roles {
		if _, err := r.pool.Exec(ctx, query, ids.New(), string(key), name); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `
		SELECT id, key, name, created_at, updated_at
		FROM roles
		ORDER BY key
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Key, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aperture/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, display_name, is_active, session_version, created_at, updated_at
		) VALUES (
			$1, LOWER($2), $3, $4, $5, 1, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.IsActive,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, email, password_hash, display_name, is_active, session_version, created_at, updated_at
		FROM users WHERE email = LOWER($1)
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, email, password_hash, display_name, is_active, session_version, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.IsActive,
		&user.SessionVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, limit int, offset int) ([]models.User, error) {
	const query = `
		SELECT id, email, password_hash, display_name, is_active, session_version, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.DisplayName,
			&user.IsActive,
			&user.SessionVersion,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetRoleKeys returns the user's current role keys. Keys still pass
// through models.NormalizeRoleKeys before reaching an authorization
// decision.
func (r *UserRepository) GetRoleKeys(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT r.key
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Guard re-reads the target's roles inside the mutation's transaction
// and decides whether it may proceed. Returning an error rolls the
// whole mutation back, closing the window between a pre-check and the
// write.
type Guard func(currentRoleKeys []string) error

// UpdateStatus toggles is_active. The guard sees the target's roles as
// of the locked row, not as of some earlier read.
func (r *UserRepository) UpdateStatus(ctx context.Context, userID string, active bool, guard Guard) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.runGuard(ctx, tx, userID, guard); err != nil {
			return err
		}

		const query = `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`
		cmd, err := tx.Exec(ctx, query, userID, active)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// UpdatePassword swaps the hash and bumps session_version so future
// token-version checks can invalidate outstanding sessions.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash []byte, guard Guard) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.runGuard(ctx, tx, userID, guard); err != nil {
			return err
		}

		const query = `
			UPDATE users
			SET password_hash = $2, session_version = session_version + 1, updated_at = NOW()
			WHERE id = $1
		`
		cmd, err := tx.Exec(ctx, query, userID, passwordHash)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// ReplaceRoles swaps the target's non-tier role set in one transaction
// so no concurrent reader observes a user with zero roles mid-update.
// Tier roles are left alone; they change only through SetMembershipTier.
func (r *UserRepository) ReplaceRoles(ctx context.Context, userID string, roleKeys []models.RoleKey, guard Guard) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.runGuard(ctx, tx, userID, guard); err != nil {
			return err
		}

		const del = `
			DELETE FROM user_roles
			WHERE user_id = $1
			  AND role_id IN (SELECT id FROM roles WHERE key <> ALL($2))
		`
		tierKeys := []string{
			string(models.RoleTierBasic),
			string(models.RoleTierPro),
			string(models.RoleTierUltra),
		}
		if _, err := tx.Exec(ctx, del, userID, tierKeys); err != nil {
			return err
		}
		return insertRolesByKey(ctx, tx, userID, roleKeys)
	})
}

// SetMembershipTier replaces the tier-role membership atomically: all
// tier roles out, exactly one in.
func (r *UserRepository) SetMembershipTier(ctx context.Context, userID string, tier models.MembershipTier, guard Guard) error {
	tierKey, ok := models.TierRole(tier)
	if !ok {
		return fmt.Errorf("unknown membership tier %q", tier)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.runGuard(ctx, tx, userID, guard); err != nil {
			return err
		}

		const del = `
			DELETE FROM user_roles
			WHERE user_id = $1
			  AND role_id IN (SELECT id FROM roles WHERE key = ANY($2))
		`
		tierKeys := []string{
			string(models.RoleTierBasic),
			string(models.RoleTierPro),
			string(models.RoleTierUltra),
		}
		if _, err := tx.Exec(ctx, del, userID, tierKeys); err != nil {
			return err
		}

		return insertRolesByKey(ctx, tx, userID, []models.RoleKey{tierKey})
	})
}

// AssignRole adds a single role without touching the rest of the set.
// Used by registration and the super-admin seed.
func (r *UserRepository) AssignRole(ctx context.Context, userID string, key models.RoleKey) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return insertRolesByKey(ctx, tx, userID, []models.RoleKey{key})
	})
}

// CountWithRole reports how many users currently hold the role. Used to
// decide whether a super-admin seed is needed.
func (r *UserRepository) CountWithRole(ctx context.Context, key models.RoleKey) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE r.key = $1
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, string(key)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *UserRepository) runGuard(ctx context.Context, tx pgx.Tx, userID string, guard Guard) error {
	if guard == nil {
		return nil
	}

	// Lock the user row so a concurrent mutation serializes behind this
	// one, then read roles as of the lock.
	const lock = `SELECT id FROM users WHERE id = $1 FOR UPDATE`
	var id string
	if err := tx.QueryRow(ctx, lock, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	const query = `
		SELECT r.key
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
	`
	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return guard(keys)
}

func insertRolesByKey(ctx context.Context, tx pgx.Tx, userID string, roleKeys []models.RoleKey) error {
	const query = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE key = ANY($2)
		ON CONFLICT DO NOTHING
	`
	keys := make([]string, 0, len(roleKeys))
	for _, k := range roleKeys {
		keys = append(keys, string(k))
	}
	_, err := tx.Exec(ctx, query, userID, keys)
	return err
}

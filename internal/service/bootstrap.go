package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"aperture/api/internal/audit"
	"aperture/api/internal/config"
	"aperture/api/internal/ids"
	"aperture/api/internal/models"
	"aperture/api/internal/repository"
	"aperture/api/internal/security"
)

// Bootstrap ensures the well-known roles exist and, when configured and
// no super_admin is present yet, seeds one. Safe to run on every start.
func Bootstrap(
	ctx context.Context,
	roles *repository.RoleRepository,
	users *repository.UserRepository,
	recorder *audit.Recorder,
	cfg *config.AppConfig,
	log zerolog.Logger,
) error {
	if err := roles.EnsureBaseRoles(ctx); err != nil {
		return fmt.Errorf("ensure base roles: %w", err)
	}
	if err := roles.EnsureMembershipRoles(ctx); err != nil {
		return fmt.Errorf("ensure membership roles: %w", err)
	}

	if cfg.Security.SeedAdminEmail == "" || cfg.Security.SeedAdminPassword == "" {
		return nil
	}

	count, err := users.CountWithRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := security.StrictPolicy.Validate(cfg.Security.SeedAdminPassword); err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}

	passwordHash, err := security.HashPassword(cfg.Security.SeedAdminPassword)
	if err != nil {
		return err
	}

	user, err := users.FindByEmail(ctx, cfg.Security.SeedAdminEmail)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = models.User{
			ID:           ids.New(),
			Email:        cfg.Security.SeedAdminEmail,
			PasswordHash: passwordHash,
			DisplayName:  "Studio Admin",
			IsActive:     true,
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create seed admin: %w", err)
		}
	} else if err != nil {
		return err
	}

	if err := users.AssignRole(ctx, user.ID, models.RoleSuperAdmin); err != nil {
		return fmt.Errorf("assign super_admin: %w", err)
	}

	log.Info().Str("email", user.Email).Msg("seeded super admin")

	recorder.Record(audit.Entry{
		Action:       "system.seed_super_admin",
		ResourceType: "user",
		ResourceID:   user.ID,
	})
	return nil
}

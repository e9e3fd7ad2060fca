package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"aperture/api/internal/audit"
	"aperture/api/internal/authz"
	"aperture/api/internal/models"
	"aperture/api/internal/repository"
	"aperture/api/internal/security"
)

var (
	ErrNoRolesLeft = errors.New("user must keep at least one role")
	ErrUnknownTier = errors.New("unknown membership tier")
)

// AdminService carries the privileged user-management operations. Every
// mutation re-checks the escalation rules against the target's roles as
// read inside the mutation transaction, so two concurrent admin requests
// cannot slip a change past a stale pre-check.
type AdminService struct {
	users    *repository.UserRepository
	recorder *audit.Recorder
	log      zerolog.Logger
}

func NewAdminService(users *repository.UserRepository, recorder *audit.Recorder, log zerolog.Logger) *AdminService {
	return &AdminService{
		users:    users,
		recorder: recorder,
		log:      log,
	}
}

type UserWithRoles struct {
	User  models.User
	Roles []models.RoleKey
	Tier  models.MembershipTier
}

func (s *AdminService) ListUsers(ctx context.Context, limit int, offset int) ([]UserWithRoles, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]UserWithRoles, 0, len(users))
	for _, user := range users {
		rawKeys, err := s.users.GetRoleKeys(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		roles := models.NormalizeRoleKeys(rawKeys)
		out = append(out, UserWithRoles{
			User:  user,
			Roles: roles,
			Tier:  models.MembershipTierFromRoleKeys(roles),
		})
	}
	return out, nil
}

func (s *AdminService) SetUserStatus(ctx context.Context, actor *models.Session, targetID string, active bool, ip string) error {
	err := s.users.UpdateStatus(ctx, targetID, active, func(currentRoleKeys []string) error {
		targetRoles := models.NormalizeRoleKeys(currentRoleKeys)
		return authz.CheckStatusChange(actor, targetID, targetRoles, active)
	})
	if err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  actor.UserID,
		Action:       "admin.user_status",
		ResourceType: "user",
		ResourceID:   targetID,
		Payload:      map[string]any{"active": active},
		IP:           ip,
	})
	return nil
}

// SetUserRoles replaces the target's non-tier roles. Tier roles already
// held are preserved; tiers change through SetUserTier only.
func (s *AdminService) SetUserRoles(ctx context.Context, actor *models.Session, targetID string, requestedKeys []string, ip string) error {
	requested := models.NormalizeRoleKeys(requestedKeys)

	core := make([]models.RoleKey, 0, len(requested))
	for _, key := range requested {
		switch key {
		case models.RoleTierBasic, models.RoleTierPro, models.RoleTierUltra:
			continue
		default:
			core = append(core, key)
		}
	}
	if len(core) == 0 {
		return ErrNoRolesLeft
	}

	err := s.users.ReplaceRoles(ctx, targetID, core, func(currentRoleKeys []string) error {
		targetRoles := models.NormalizeRoleKeys(currentRoleKeys)
		return authz.CheckRoleChange(actor, targetRoles, core)
	})
	if err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  actor.UserID,
		Action:       "admin.user_roles",
		ResourceType: "user",
		ResourceID:   targetID,
		Payload:      map[string]any{"roles": roleKeyStrings(requested)},
		IP:           ip,
	})
	return nil
}

// ResetUserPassword is the admin-initiated reset and uses the strict
// policy.
func (s *AdminService) ResetUserPassword(ctx context.Context, actor *models.Session, targetID string, newPassword string, ip string) error {
	if err := security.StrictPolicy.Validate(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.users.UpdatePassword(ctx, targetID, passwordHash, func(currentRoleKeys []string) error {
		return authz.CheckTargetMutation(actor, models.NormalizeRoleKeys(currentRoleKeys))
	})
	if err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  actor.UserID,
		Action:       "admin.password_reset",
		ResourceType: "user",
		ResourceID:   targetID,
		IP:           ip,
	})
	return nil
}

func (s *AdminService) SetUserTier(ctx context.Context, actor *models.Session, targetID string, tier models.MembershipTier, ip string) error {
	if _, ok := models.TierRole(tier); !ok {
		return fmt.Errorf("%w %q", ErrUnknownTier, tier)
	}

	err := s.users.SetMembershipTier(ctx, targetID, tier, func(currentRoleKeys []string) error {
		return authz.CheckTargetMutation(actor, models.NormalizeRoleKeys(currentRoleKeys))
	})
	if err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  actor.UserID,
		Action:       "admin.user_tier",
		ResourceType: "user",
		ResourceID:   targetID,
		Payload:      map[string]any{"tier": string(tier)},
		IP:           ip,
	})
	return nil
}

func roleKeyStrings(keys []models.RoleKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return out
}

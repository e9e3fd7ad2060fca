package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"aperture/api/internal/audit"
	"aperture/api/internal/config"
	"aperture/api/internal/ids"
	"aperture/api/internal/models"
	"aperture/api/internal/ratelimit"
	"aperture/api/internal/repository"
	"aperture/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("account is deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountLocked      = errors.New("too many failed attempts, try again later")
)

// UserStore is the slice of the user repository the auth flows touch.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetRoleKeys(ctx context.Context, userID string) ([]string, error)
	AssignRole(ctx context.Context, userID string, key models.RoleKey) error
	UpdatePassword(ctx context.Context, userID string, passwordHash []byte, guard repository.Guard) error
}

type AuthService struct {
	users    UserStore
	lockouts ratelimit.LockoutTracker
	recorder *audit.Recorder
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users UserStore,
	lockouts ratelimit.LockoutTracker,
	recorder *audit.Recorder,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		lockouts: lockouts,
		recorder: recorder,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	IP          string
}

type AuthResult struct {
	Token   string
	Session models.Session
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = ratelimit.NormalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return AuthResult{}, &security.PolicyViolation{Message: "email and password are required"}
	}

	if err := security.RegistrationPolicy.Validate(input.Password); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}
	if err := s.users.AssignRole(ctx, user.ID, models.RoleCustomer); err != nil {
		return AuthResult{}, err
	}

	session := models.Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName,
		Roles:  []models.RoleKey{models.RoleCustomer},
	}

	token, err := security.IssueSessionToken(s.cfg.Security.SessionSecret, session, s.cfg.Security.SessionTTL)
	if err != nil {
		return AuthResult{}, err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  user.ID,
		Action:       "auth.register",
		ResourceType: "user",
		ResourceID:   user.ID,
		IP:           input.IP,
	})

	return AuthResult{Token: token, Session: session}, nil
}

type LoginInput struct {
	Email    string
	Password string
	IP       string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = ratelimit.NormalizeEmail(input.Email)

	if status, err := s.lockouts.Check(ctx, input.Email); err == nil && status.Locked {
		return AuthResult{}, ErrAccountLocked
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Count the miss so an attacker cannot probe for valid
			// emails by watching whether the lockout engages.
			_, _ = s.lockouts.TrackFailure(ctx, input.Email)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if len(user.PasswordHash) == 0 || !security.VerifyPassword(input.Password, user.PasswordHash) {
		status, _ := s.lockouts.TrackFailure(ctx, input.Email)
		if status.Locked {
			return AuthResult{}, ErrAccountLocked
		}
		return AuthResult{}, ErrInvalidCredentials
	}

	// Deactivation is only disclosed to a caller who proved the
	// password; without it the account is indistinguishable from one
	// that does not exist.
	if !user.IsActive {
		return AuthResult{}, ErrUserInactive
	}

	if err := s.lockouts.Clear(ctx, input.Email); err != nil {
		s.log.Warn().Err(err).Msg("lockout clear failed")
	}

	session, err := s.LoadSession(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	token, err := security.IssueSessionToken(s.cfg.Security.SessionSecret, *session, s.cfg.Security.SessionTTL)
	if err != nil {
		return AuthResult{}, err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  user.ID,
		Action:       "auth.login",
		ResourceType: "user",
		ResourceID:   user.ID,
		IP:           input.IP,
	})

	return AuthResult{Token: token, Session: *session}, nil
}

func (s *AuthService) Logout(userID string, ip string) {
	s.recorder.Record(audit.Entry{
		ActorUserID:  userID,
		Action:       "auth.logout",
		ResourceType: "user",
		ResourceID:   userID,
		IP:           ip,
	})
}

// LoadSession composes the verified identity with a live role read. The
// token's embedded role snapshot is never trusted for authorization, so
// a role revoked a second ago is gone on this request.
func (s *AuthService) LoadSession(ctx context.Context, userID string) (*models.Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	rawKeys, err := s.users.GetRoleKeys(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName,
		Roles:  models.NormalizeRoleKeys(rawKeys),
	}, nil
}

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
	IP              string
}

// ChangePassword is the self-service entry point and uses the strict
// policy.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if err := security.StrictPolicy.Validate(input.NewPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}

	if len(user.PasswordHash) == 0 || !security.VerifyPassword(input.CurrentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	passwordHash, err := security.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, input.UserID, passwordHash, nil); err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		ActorUserID:  input.UserID,
		Action:       "auth.password_change",
		ResourceType: "user",
		ResourceID:   input.UserID,
		IP:           input.IP,
	})

	return nil
}

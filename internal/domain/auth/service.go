package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute
)

type jwtService interface {
	GenerateToken(userID int64, role string, caps ...string) (string, error)
}

// Service authenticates the principals that administer forms.
type Service struct {
	users Repository
	jwt   jwtService
	log   *zap.Logger
	now   func() time.Time
}

func NewService(users Repository, jwt jwtService, log *zap.Logger) *Service {
	return &Service{users: users, jwt: jwt, log: log, now: time.Now}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		failed := user.FailedLoginAttempts + 1
		updates := map[string]any{"failed_login_attempts": failed}
		if failed >= maxFailedLoginAttempts {
			updates["locked_until"] = now.Add(lockoutDuration)
		}
		if err := s.users.UpdateLoginState(ctx, user.ID, updates); err != nil {
			return nil, err
		}
		if failed >= maxFailedLoginAttempts {
			s.log.Warn("account locked", zap.Int64("user_id", user.ID))
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.UpdateLoginState(ctx, user.ID, map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}); err != nil {
			return nil, err
		}
	}

	caps := CapabilitiesFor(user.Role)
	token, err := s.jwt.GenerateToken(user.ID, string(user.Role), caps...)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{AccessToken: token, User: user, Capabilities: caps}, nil
}

// CreateUser registers a new admin principal.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if !ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	email := normalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

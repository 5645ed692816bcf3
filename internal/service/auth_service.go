package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/climcare/repair-service/internal/auth"
	"github.com/climcare/repair-service/internal/config"
	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/repository"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// AuthService handles registration and login.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:  users,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:    cfg,
	}
}

// TokenManager exposes the shared token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// RegisterInput describes self-registration payload. Self-registered
// accounts are always customers; other roles are provisioned through the
// management interface.
type RegisterInput struct {
	FullName string
	Phone    string
	Login    string
	Password string
	Email    *string
	Address  *string
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a customer account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	login := strings.TrimSpace(input.Login)
	if fullName == "" || login == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("full_name, login and password required", nil)
	}

	if _, err := s.users.GetByLogin(ctx, login); err == nil {
		return nil, apperrors.NewConflict("login already taken", map[string]any{"login": login})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FullName:     fullName,
		Phone:        strings.TrimSpace(input.Phone),
		Login:        login,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Active:       true,
		Email:        input.Email,
		Address:      input.Address,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates a user and issues a token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account deactivated")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

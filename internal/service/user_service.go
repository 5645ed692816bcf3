package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/climcare/repair-service/internal/auth"
	"github.com/climcare/repair-service/internal/config"
	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/repository"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// UserService covers the management interface: provisioning accounts
// with any role, changing roles, and soft deactivation. Accounts are
// never hard-deleted.
type UserService struct {
	users repository.UserRepository
	cfg   config.AuthConfig
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository) *UserService {
	return &UserService{users: users, cfg: cfg}
}

// UserCreateInput describes a management-created account.
type UserCreateInput struct {
	FullName string
	Phone    string
	Login    string
	Password string
	Role     domain.Role
	Email    *string
	Address  *string
	Notes    *string
}

// UserUpdateInput describes mutable account attributes. Nil fields are
// left untouched.
type UserUpdateInput struct {
	FullName *string
	Phone    *string
	Role     *domain.Role
	Active   *bool
	Email    *string
	Address  *string
	Notes    *string
}

// CreateUser provisions an account with an explicit role.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	login := strings.TrimSpace(input.Login)
	if fullName == "" || login == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("full_name, login and password required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(input.Role)})
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
		Role:         input.Role,
		Active:       true,
		Email:        input.Email,
		Address:      input.Address,
		Notes:        input.Notes,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser applies the given attribute changes, including role changes
// and deactivation.
func (s *UserService) UpdateUser(ctx context.Context, userID int64, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, apperrors.NewValidationError("full_name cannot be empty", nil)
		}
		user.FullName = name
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(*input.Role)})
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.Email != nil {
		user.Email = input.Email
	}
	if input.Address != nil {
		user.Address = input.Address
	}
	if input.Notes != nil {
		user.Notes = input.Notes
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Deactivate soft-disables an account.
func (s *UserService) Deactivate(ctx context.Context, userID int64) (*domain.User, error) {
	inactive := false
	return s.UpdateUser(ctx, userID, UserUpdateInput{Active: &inactive})
}

// ListUsers returns every account, ordered by role then name.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListByRole returns active accounts holding the given role; used to
// populate master and client pickers.
func (s *UserService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	users, err := s.users.ListByRole(ctx, role, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

package dto

import (
	"time"

	"github.com/climcare/repair-service/internal/domain"
)

// RegisterPayload describes customer self-registration.
type RegisterPayload struct {
	FullName string  `json:"full_name"`
	Phone    string  `json:"phone"`
	Login    string  `json:"login"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
}

// LoginPayload describes login credentials.
type LoginPayload struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateUserPayload describes a management-created account.
type CreateUserPayload struct {
	FullName string      `json:"full_name"`
	Phone    string      `json:"phone"`
	Login    string      `json:"login"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
	Email    *string     `json:"email"`
	Address  *string     `json:"address"`
	Notes    *string     `json:"notes"`
}

// UpdateUserPayload describes account attribute changes; nil fields are
// left untouched.
type UpdateUserPayload struct {
	FullName *string      `json:"full_name"`
	Phone    *string      `json:"phone"`
	Role     *domain.Role `json:"role"`
	Active   *bool        `json:"active"`
	Email    *string      `json:"email"`
	Address  *string      `json:"address"`
	Notes    *string      `json:"notes"`
}

// UserResponse represents an account.
type UserResponse struct {
	ID           int64       `json:"id"`
	FullName     string      `json:"full_name"`
	Phone        string      `json:"phone"`
	Login        string      `json:"login"`
	Role         domain.Role `json:"role"`
	Active       bool        `json:"active"`
	Email        *string     `json:"email,omitempty"`
	RegisteredAt time.Time   `json:"registered_at"`
}

package domain

import "time"

// Role enumerates user roles. The string values are persisted verbatim,
// matching the legacy store.
type Role string

const (
	RoleAdministrator  Role = "Администратор"
	RoleManager        Role = "Менеджер"
	RoleSpecialist     Role = "Специалист"
	RoleOperator       Role = "Оператор"
	RoleCustomer       Role = "Заказчик"
	RoleQualityManager Role = "Менеджер по качеству"
)

// Roles lists every known role.
var Roles = []Role{
	RoleAdministrator,
	RoleManager,
	RoleSpecialist,
	RoleOperator,
	RoleCustomer,
	RoleQualityManager,
}

// Valid reports whether the role is a member of the closed enumeration.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is the domain model for every actor in the system. Each user holds
// exactly one role at a time; accounts are deactivated, never deleted.
type User struct {
	ID           int64
	FullName     string
	Phone        string
	Login        string
	PasswordHash string
	Role         Role
	Active       bool
	Email        *string
	Address      *string
	Notes        *string
	RegisteredAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

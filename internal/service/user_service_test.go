package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climcare/repair-service/internal/domain"
)

func TestCreateUserWithRole(t *testing.T) {
	users := newMemoryUserRepo()
	svc := NewUserService(authCfg(), users)

	user, err := svc.CreateUser(context.Background(), UserCreateInput{
		FullName: "Петров Пётр",
		Login:    "petrov",
		Password: "secret123",
		Role:     domain.RoleSpecialist,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSpecialist, user.Role)
	assert.True(t, user.Active)
}

func TestCreateUserUnknownRole(t *testing.T) {
	svc := NewUserService(authCfg(), newMemoryUserRepo())

	_, err := svc.CreateUser(context.Background(), UserCreateInput{
		FullName: "x", Login: "x", Password: "x", Role: domain.Role("Курьер"),
	})
	require.Error(t, err)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateUserChangesRole(t *testing.T) {
	users := newMemoryUserRepo(activeUser(1, domain.RoleOperator))
	svc := NewUserService(authCfg(), users)

	newRole := domain.RoleManager
	user, err := svc.UpdateUser(context.Background(), 1, UserUpdateInput{Role: &newRole})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, user.Role)
}

func TestDeactivateIsSoft(t *testing.T) {
	users := newMemoryUserRepo(activeUser(1, domain.RoleSpecialist))
	svc := NewUserService(authCfg(), users)

	user, err := svc.Deactivate(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, user.Active)

	// The account still exists and can be looked up.
	stored, err := users.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestListByRoleSkipsInactive(t *testing.T) {
	inactive := activeUser(2, domain.RoleSpecialist)
	inactive.Active = false
	users := newMemoryUserRepo(activeUser(1, domain.RoleSpecialist), inactive)
	svc := NewUserService(authCfg(), users)

	result, err := svc.ListByRole(context.Background(), domain.RoleSpecialist)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.EqualValues(t, 1, result[0].ID)
}

func TestListByRoleUnknownRole(t *testing.T) {
	svc := NewUserService(authCfg(), newMemoryUserRepo())

	_, err := svc.ListByRole(context.Background(), domain.Role("Курьер"))
	require.Error(t, err)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := NewUserService(authCfg(), newMemoryUserRepo())

	name := "x"
	_, err := svc.UpdateUser(context.Background(), 404, UserUpdateInput{FullName: &name})
	require.Error(t, err)
	assertCode(t, err, "NOT_FOUND")
}

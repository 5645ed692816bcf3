package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/climcare/repair-service/internal/api/dto"
	"github.com/climcare/repair-service/internal/auth"
	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/service"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// UsersHandler covers registration, login and the management interface.
type UsersHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{authService: authService, userService: userService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.authService.Register(c.Context(), service.RegisterInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Login:    req.Login,
		Password: req.Password,
		Email:    req.Email,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.authService.Login(c.Context(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	}})
}

// CreateUser POST /users (management only).
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.userService.CreateUser(c.Context(), service.UserCreateInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Login:    req.Login,
		Password: req.Password,
		Role:     req.Role,
		Email:    req.Email,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateUser PATCH /users/:id (management only). Covers role changes and
// soft deactivation.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.userService.UpdateUser(c.Context(), userID, service.UserUpdateInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
		Active:   req.Active,
		Email:    req.Email,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ListUsers GET /users (management only).
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	if role := c.Query("role"); role != "" {
		users, err := h.userService.ListByRole(c.Context(), domain.Role(role))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": userResponses(users)})
	}
	users, err := h.userService.ListUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// Me GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": userResponse(principal.User)})
}

func parseUserIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid user id", nil)
	}
	return id, nil
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		FullName:     user.FullName,
		Phone:        user.Phone,
		Login:        user.Login,
		Role:         user.Role,
		Active:       user.Active,
		Email:        user.Email,
		RegisteredAt: user.RegisteredAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return items
}

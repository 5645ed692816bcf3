package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/climcare/repair-service/internal/api/dto"
	"github.com/climcare/repair-service/internal/auth"
	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/service"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// NotificationsHandler exposes in-app notifications.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	unreadOnly := c.QueryBool("unread", false)
	rows, err := h.service.ListForUser(c.Context(), principal.User.ID, unreadOnly)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(rows))
	for i := range rows {
		items = append(items, notificationResponse(&rows[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid notification id", nil)
	}
	if err := h.service.MarkRead(c.Context(), principal.User.ID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "ok"})
}

func notificationResponse(notification *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:               notification.ID,
		Title:            notification.Title,
		Message:          notification.Message,
		Type:             notification.Type,
		Read:             notification.Read,
		RelatedRequestID: notification.RelatedRequestID,
		CreatedAt:        notification.CreatedAt,
	}
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/events"
	"github.com/climcare/repair-service/internal/repository"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// NotificationService turns domain events into in-app notification rows.
// Delivery over external channels is out of scope; the rows surface
// through the notifications endpoint.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventRequestStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventRequestAssigned, n.handleAssigned)
}

// ListForUser returns the notifications addressed to the user.
func (n *NotificationService) ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	rows, err := n.notifications.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

// MarkRead flags one of the user's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if err := n.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCreatedPayload)
	if !ok {
		return nil
	}
	n.store(ctx, &domain.Notification{
		UserID:           payload.ClientID,
		Title:            "Заявка зарегистрирована",
		Message:          fmt.Sprintf("Заявка %s принята в работу.", payload.Number),
		Type:             domain.NotificationInfo,
		RelatedRequestID: &event.RequestID,
	})
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestStatusChangedPayload)
	if !ok {
		return nil
	}
	kind := domain.NotificationInfo
	if payload.NewStatus == domain.StatusCompleted || payload.NewStatus == domain.StatusReadyForPickup {
		kind = domain.NotificationSuccess
	}
	n.store(ctx, &domain.Notification{
		UserID:           payload.ClientID,
		Title:            "Статус заявки изменён",
		Message:          fmt.Sprintf("Статус изменён: %s → %s.", payload.OldStatus, payload.NewStatus),
		Type:             kind,
		RelatedRequestID: &event.RequestID,
	})
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestAssignedPayload)
	if !ok || payload.NewMasterID == nil {
		return nil
	}
	n.store(ctx, &domain.Notification{
		UserID:           *payload.NewMasterID,
		Title:            "Назначена заявка",
		Message:          "Вам назначена заявка на ремонт.",
		Type:             domain.NotificationInfo,
		RelatedRequestID: &event.RequestID,
	})
	return nil
}

func (n *NotificationService) store(ctx context.Context, notification *domain.Notification) {
	if n.notifications == nil {
		return
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("failed to store notification",
			zap.Int64("user_id", notification.UserID),
			zap.Error(err))
	}
}

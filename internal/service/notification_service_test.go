package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/events"
)

type memoryNotificationRepo struct {
	rows []domain.Notification
}

func (r *memoryNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	notification.ID = int64(len(r.rows) + 1)
	r.rows = append(r.rows, *notification)
	return nil
}

func (r *memoryNotificationRepo) ListByUser(_ context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	var result []domain.Notification
	for _, row := range r.rows {
		if row.UserID != userID {
			continue
		}
		if unreadOnly && row.Read {
			continue
		}
		result = append(result, row)
	}
	return result, nil
}

func (r *memoryNotificationRepo) MarkRead(_ context.Context, userID, notificationID int64) error {
	for i := range r.rows {
		if r.rows[i].ID == notificationID && r.rows[i].UserID == userID {
			r.rows[i].Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func TestNotificationOnRequestCreated(t *testing.T) {
	repo := &memoryNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(repo, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventRequestCreated,
		RequestID: 42,
		Payload: events.RequestCreatedPayload{
			Number:   "REQ-202403-0042",
			ClientID: 10,
		},
	})
	require.NoError(t, err)

	rows, err := svc.ListForUser(context.Background(), 10, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.NotificationInfo, rows[0].Type)
	assert.Contains(t, rows[0].Message, "REQ-202403-0042")
}

func TestNotificationOnStatusChange(t *testing.T) {
	repo := &memoryNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(repo, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: 42,
		Payload: events.RequestStatusChangedPayload{
			OldStatus: domain.StatusInRepair,
			NewStatus: domain.StatusReadyForPickup,
			ClientID:  10,
		},
	})
	require.NoError(t, err)

	rows, err := svc.ListForUser(context.Background(), 10, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.NotificationSuccess, rows[0].Type)
}

func TestNotificationOnAssignmentGoesToMaster(t *testing.T) {
	repo := &memoryNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(repo, dispatcher, zap.NewNop())
	svc.RegisterHandlers()

	master := int64(33)
	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: 42,
		Payload:   events.RequestAssignedPayload{NewMasterID: &master},
	})
	require.NoError(t, err)

	rows, err := svc.ListForUser(context.Background(), 33, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].RelatedRequestID)
	assert.EqualValues(t, 42, *rows[0].RelatedRequestID)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := &memoryNotificationRepo{}
	svc := NewNotificationService(repo, nil, zap.NewNop())

	require.NoError(t, repo.Create(context.Background(), &domain.Notification{UserID: 10, Title: "t", Message: "m"}))

	// Another user cannot mark it.
	err := svc.MarkRead(context.Background(), 11, 1)
	require.Error(t, err)
	assertCode(t, err, "NOT_FOUND")

	require.NoError(t, svc.MarkRead(context.Background(), 10, 1))
	unread, err := svc.ListForUser(context.Background(), 10, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

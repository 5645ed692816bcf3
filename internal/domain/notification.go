package domain

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// Notification is an in-app notification row. Delivery over external
// channels is out of scope; rows are listed and marked read via the API.
type Notification struct {
	ID               int64
	UserID           int64
	Title            string
	Message          string
	Type             NotificationType
	Read             bool
	RelatedRequestID *int64
	CreatedAt        time.Time
}

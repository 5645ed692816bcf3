package dto

import (
	"time"

	"github.com/climcare/repair-service/internal/domain"
)

// CreateRequestPayload describes request creation.
type CreateRequestPayload struct {
	ClientID       int64           `json:"client_id"`
	StartDate      string          `json:"start_date"`
	EquipmentType  string          `json:"equipment_type"`
	EquipmentModel string          `json:"equipment_model"`
	Problem        string          `json:"problem_description"`
	Priority       domain.Priority `json:"priority"`
	MasterID       *int64          `json:"master_id"`
}

// EditRequestPayload carries the raw field-value map proposed by the
// actor. The core performs its own validation; keys outside the actor's
// writable set reject the whole edit.
type EditRequestPayload struct {
	Changes map[string]string `json:"changes"`
}

// CreateCommentPayload describes a new comment.
type CreateCommentPayload struct {
	Message  string `json:"message"`
	Internal bool   `json:"internal"`
}

// RequestSummary response.
type RequestSummary struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	StartDate      string          `json:"start_date"`
	EquipmentType  string          `json:"equipment_type"`
	EquipmentModel string          `json:"equipment_model"`
	Status         domain.Status   `json:"status"`
	Priority       domain.Priority `json:"priority"`
	ClientID       int64           `json:"client_id"`
	MasterID       *int64          `json:"master_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RequestDetailResponse provides full request info.
type RequestDetailResponse struct {
	RequestSummary
	Problem        string            `json:"problem_description"`
	CompletionDate *string           `json:"completion_date,omitempty"`
	RepairParts    *string           `json:"repair_parts,omitempty"`
	Comments       []CommentResponse `json:"comments"`
	History        []HistoryEntry    `json:"history"`
}

// CommentResponse represents a request comment.
type CommentResponse struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Message   string    `json:"message"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry represents a status transition audit row.
type HistoryEntry struct {
	ID        int64         `json:"id"`
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	ChangedBy *int64        `json:"changed_by,omitempty"`
	ChangedAt time.Time     `json:"changed_at"`
}

// NotificationResponse represents an in-app notification.
type NotificationResponse struct {
	ID               int64                   `json:"id"`
	Title            string                  `json:"title"`
	Message          string                  `json:"message"`
	Type             domain.NotificationType `json:"type"`
	Read             bool                    `json:"read"`
	RelatedRequestID *int64                  `json:"related_request_id,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

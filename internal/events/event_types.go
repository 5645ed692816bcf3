package events

import (
	"time"

	"github.com/climcare/repair-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
	EventCommentAdded         EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID int64       `json:"request_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Number        string          `json:"number"`
	ClientID      int64           `json:"client_id"`
	EquipmentType string          `json:"equipment_type"`
	Priority      domain.Priority `json:"priority"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	ClientID  int64         `json:"client_id"`
	MasterID  *int64        `json:"master_id,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	OldMasterID *int64 `json:"old_master_id,omitempty"`
	NewMasterID *int64 `json:"new_master_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID int64 `json:"comment_id"`
	AuthorID  int64 `json:"author_id"`
	Internal  bool  `json:"internal"`
}

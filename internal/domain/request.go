package domain

import "time"

// Status enumerates lifecycle states for repair requests. The string
// values are persisted verbatim, matching the legacy store.
type Status string

const (
	StatusNew            Status = "Новая заявка"
	StatusInRepair       Status = "В процессе ремонта"
	StatusAwaitingParts  Status = "Ожидание комплектующих"
	StatusReadyForPickup Status = "Готова к выдаче"
	StatusCompleted      Status = "Завершена"
	StatusCancelled      Status = "Отменена"
)

// Statuses lists every known status.
var Statuses = []Status{
	StatusNew,
	StatusInRepair,
	StatusAwaitingParts,
	StatusReadyForPickup,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether the status is a member of the closed enumeration.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether a request in this status accepts no further
// transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority enumerates SLA urgency for repair requests.
type Priority string

const (
	PriorityLow      Priority = "Низкий"
	PriorityMedium   Priority = "Средний"
	PriorityHigh     Priority = "Высокий"
	PriorityCritical Priority = "Критичный"
)

// Valid reports whether the priority is a member of the closed enumeration.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Request is the aggregate for repair work orders. Number is derived once
// at creation and immutable afterwards; ClientID always references a
// customer, MasterID the assigned specialist when one exists.
type Request struct {
	ID                 int64
	Number             string
	StartDate          time.Time
	EquipmentType      string
	EquipmentModel     string
	ProblemDescription string
	Status             Status
	Priority           Priority
	CompletionDate     *time.Time
	RepairParts        *string
	MasterID           *int64
	ClientID           int64
	QualityManagerID   *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

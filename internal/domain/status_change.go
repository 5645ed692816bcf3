package domain

import "time"

// StatusChangeRecord is an immutable audit row produced for every status
// transition. ChangedBy carries the request's master after the edit was
// applied, mirroring the legacy trigger, and may be nil when no master is
// assigned.
type StatusChangeRecord struct {
	ID        int64
	RequestID int64
	OldStatus Status
	NewStatus Status
	ChangedBy *int64
	Reason    *string
	ChangedAt time.Time
}

package domain

import "time"

// Comment is an append-only message attached to a request. Internal
// comments are visible to staff only, never to the customer.
type Comment struct {
	ID        int64
	RequestID int64
	AuthorID  int64
	Message   string
	Internal  bool
	CreatedAt time.Time
}

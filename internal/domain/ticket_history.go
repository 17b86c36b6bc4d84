package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated TicketChangeType = "CREATED"
	ChangeTypeComment TicketChangeType = "COMMENT_ADDED"
	ChangeTypeStatus  TicketChangeType = "STATUS_CHANGE"
)

// TicketHistory is an immutable audit trail entry. OldValue and NewValue
// hold the changed fields keyed by name.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByID   string
	ChangedByRole Role
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}

package domain

import (
	"errors"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. The order is
// open -> processing -> closed and closed is terminal.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusProcessing TicketStatus = "processing"
	TicketStatusClosed     TicketStatus = "closed"
)

// rank orders statuses so transitions can be checked for monotonicity.
func (s TicketStatus) rank() int {
	switch s {
	case TicketStatusOpen:
		return 0
	case TicketStatusProcessing:
		return 1
	case TicketStatusClosed:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	return s.rank() >= 0
}

var (
	ErrTicketNotFound      = errors.New("support item not found")
	ErrAlreadyClosed       = errors.New("support item already closed")
	ErrCommentNotPermitted = errors.New("not permitted to add comment")
	ErrEmptyField          = errors.New("required field is empty")
	ErrUnknownEvent        = errors.New("unknown ticket event")
)

// EmptyFieldError names the required fields that were blank after trimming.
// It matches ErrEmptyField.
type EmptyFieldError struct {
	Fields []string
}

func (e *EmptyFieldError) Error() string {
	return strings.Join(e.Fields, ", ") + ": " + ErrEmptyField.Error()
}

// Is reports whether target is ErrEmptyField.
func (e *EmptyFieldError) Is(target error) bool {
	return target == ErrEmptyField
}

// Comment is an entry in a ticket thread. Comments are append-only.
type Comment struct {
	Message   string
	AuthorID  string
	CreatedAt time.Time
}

// Ticket is the support request aggregate. Comments are embedded in
// insertion order.
type Ticket struct {
	ID        string
	Subject   string
	Message   string
	OwnerID   string
	Status    TicketStatus
	Comments  []Comment
	ClosedBy  *string
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether the ticket reached its terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// Clone returns a deep copy so transitions never alias the caller's value.
func (t Ticket) Clone() Ticket {
	out := t
	if t.Comments != nil {
		out.Comments = make([]Comment, len(t.Comments))
		copy(out.Comments, t.Comments)
	}
	if t.ClosedBy != nil {
		closedBy := *t.ClosedBy
		out.ClosedBy = &closedBy
	}
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		out.ClosedAt = &closedAt
	}
	return out
}

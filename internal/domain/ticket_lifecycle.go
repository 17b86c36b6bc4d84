package domain

import (
	"strings"
	"time"
)

// CanView decides whether actor may see ticket. Staff see everything; a
// user sees only tickets they own.
func CanView(actor *Account, ticket *Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin, RoleAgent:
		return true
	case RoleUser:
		return ticket.OwnerID == actor.ID
	default:
		return false
	}
}

// CanComment decides whether actor may append to the thread. A user may only
// reply once staff picked the ticket up; nobody comments on a closed ticket.
func CanComment(actor *Account, ticket *Ticket) bool {
	if actor == nil || ticket == nil || ticket.IsClosed() {
		return false
	}
	switch actor.Role {
	case RoleAdmin, RoleAgent:
		return true
	case RoleUser:
		return ticket.Status == TicketStatusProcessing
	default:
		return false
	}
}

// NewTicket builds an open ticket with an empty thread.
func NewTicket(subject, message, ownerID string, now time.Time) (Ticket, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	var blank []string
	if subject == "" {
		blank = append(blank, "subject")
	}
	if message == "" {
		blank = append(blank, "message")
	}
	if len(blank) > 0 {
		return Ticket{}, &EmptyFieldError{Fields: blank}
	}
	return Ticket{
		Subject:   subject,
		Message:   message,
		OwnerID:   ownerID,
		Status:    TicketStatusOpen,
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TicketEvent is an action applied to a ticket through Apply.
type TicketEvent interface {
	ticketEvent()
}

// CommentAdded appends a message authored by Author.
type CommentAdded struct {
	Author  *Account
	Message string
	At      time.Time
}

// Closed moves the ticket to its terminal state on behalf of Closer.
type Closed struct {
	Closer *Account
	At     time.Time
}

func (CommentAdded) ticketEvent() {}
func (Closed) ticketEvent()       {}

// Apply runs a single transition and returns the updated ticket. The input
// value is never modified; persisting the result is up to the caller.
func Apply(ticket Ticket, event TicketEvent) (Ticket, error) {
	switch ev := event.(type) {
	case CommentAdded:
		return applyComment(ticket, ev)
	case Closed:
		return applyClose(ticket, ev)
	default:
		return Ticket{}, ErrUnknownEvent
	}
}

func applyComment(ticket Ticket, ev CommentAdded) (Ticket, error) {
	if !CanView(ev.Author, &ticket) {
		return Ticket{}, ErrTicketNotFound
	}
	message := strings.TrimSpace(ev.Message)
	if message == "" {
		return Ticket{}, &EmptyFieldError{Fields: []string{"message"}}
	}
	if !CanComment(ev.Author, &ticket) {
		return Ticket{}, ErrCommentNotPermitted
	}

	next := ticket.Clone()
	next.Comments = append(next.Comments, Comment{
		Message:   message,
		AuthorID:  ev.Author.ID,
		CreatedAt: ev.At,
	})
	if next.Status == TicketStatusOpen {
		next.Status = TicketStatusProcessing
	}
	next.UpdatedAt = ev.At
	return next, nil
}

func applyClose(ticket Ticket, ev Closed) (Ticket, error) {
	if ticket.IsClosed() {
		return Ticket{}, ErrAlreadyClosed
	}

	next := ticket.Clone()
	closedBy := ev.Closer.ID
	closedAt := ev.At
	next.Status = TicketStatusClosed
	next.ClosedBy = &closedBy
	next.ClosedAt = &closedAt
	next.UpdatedAt = ev.At
	return next, nil
}

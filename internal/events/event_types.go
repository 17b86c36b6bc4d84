package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketCommented EventType = "ticket_commented"
	EventTicketClosed    EventType = "ticket_closed"
	EventTicketDeleted   EventType = "ticket_deleted"
)

// Actor identifies the account that caused an event.
type Actor struct {
	AccountID string      `json:"accountId"`
	Role      domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticketId"`
	OwnerID   string      `json:"ownerId"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject string `json:"subject"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	Subject     string              `json:"subject"`
	OldStatus   domain.TicketStatus `json:"oldStatus"`
	NewStatus   domain.TicketStatus `json:"newStatus"`
	BodyPreview string              `json:"bodyPreview"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Subject   string              `json:"subject"`
	OldStatus domain.TicketStatus `json:"oldStatus"`
	ClosedAt  time.Time           `json:"closedAt"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Subject string `json:"subject"`
}

// ActorFor builds the actor metadata for an account.
func ActorFor(account *domain.Account) Actor {
	if account == nil {
		return Actor{}
	}
	return Actor{AccountID: account.ID, Role: account.Role}
}

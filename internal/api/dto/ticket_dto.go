package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject string `json:"subject" validate:"required,notblank"`
	Message string `json:"message" validate:"required,notblank"`
}

// CommentRequest payload.
type CommentRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

// ExportQuery captures export query parameters.
type ExportQuery struct {
	Status string `query:"status"`
	Start  string `query:"start"`
	End    string `query:"end"`
	Type   string `query:"type"`
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	Message   string    `json:"message"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID        string              `json:"id"`
	Subject   string              `json:"subject"`
	Message   string              `json:"message"`
	User      string              `json:"user"`
	Status    domain.TicketStatus `json:"status"`
	Comments  []CommentResponse   `json:"comments"`
	ClosedBy  *string             `json:"closedBy,omitempty"`
	ClosedAt  *time.Time          `json:"closedAt,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewTicketResponse projects a ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for _, c := range ticket.Comments {
		comments = append(comments, CommentResponse{Message: c.Message, User: c.AuthorID, CreatedAt: c.CreatedAt})
	}
	return TicketResponse{
		ID:        ticket.ID,
		Subject:   ticket.Subject,
		Message:   ticket.Message,
		User:      ticket.OwnerID,
		Status:    ticket.Status,
		Comments:  comments,
		ClosedBy:  ticket.ClosedBy,
		ClosedAt:  ticket.ClosedAt,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}

// NewTicketResponses projects a list of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"changeType"`
	ChangedBy  string                  `json:"changedBy"`
	Role       domain.Role             `json:"role"`
	OldValue   map[string]any          `json:"oldValue,omitempty"`
	NewValue   map[string]any          `json:"newValue,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// NewHistoryResponses projects audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ChangedBy:  entry.ChangedByID,
			Role:       entry.ChangedByRole,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return out
}

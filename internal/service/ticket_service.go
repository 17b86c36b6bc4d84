package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/export"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	location   *time.Location
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	// Location is used for export date ranges and timestamps.
	Location *time.Location
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewTicketService builds the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		accounts:   deps.AccountRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		location:   location,
		now:        now,
	}
}

// Create opens a ticket owned by actor.
func (s *TicketService) Create(ctx context.Context, actor *domain.Account, subject, message string) (*domain.Ticket, error) {
	ticket, err := domain.NewTicket(subject, message, actor.ID, s.now().UTC())
	if err != nil {
		return nil, ticketError(err)
	}
	if err := s.tickets.Create(ctx, &ticket); err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		OwnerID:  ticket.OwnerID,
		Actor:    events.ActorFor(actor),
		Payload:  events.TicketCreatedPayload{Subject: ticket.Subject},
	})
	return &ticket, nil
}

// List returns the tickets actor may see: all of them for staff, only
// their own for users.
func (s *TicketService) List(ctx context.Context, actor *domain.Account) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{}
	if !actor.Role.IsStaff() {
		filter.OwnerID = &actor.ID
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return tickets, nil
}

// Get returns one ticket. Tickets actor may not see are reported as missing.
func (s *TicketService) Get(ctx context.Context, actor *domain.Account, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, ticketError(err)
	}
	if !domain.CanView(actor, ticket) {
		return nil, ticketError(domain.ErrTicketNotFound)
	}
	return ticket, nil
}

// Comment appends message to the thread on behalf of actor.
func (s *TicketService) Comment(ctx context.Context, actor *domain.Account, id, message string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, ticketError(err)
	}

	next, err := domain.Apply(*ticket, domain.CommentAdded{Author: actor, Message: message, At: s.now().UTC()})
	if err != nil {
		return nil, ticketError(err)
	}
	if err := s.tickets.Update(ctx, &next); err != nil {
		return nil, ticketError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: next.ID,
		OwnerID:  next.OwnerID,
		Actor:    events.ActorFor(actor),
		Payload: events.TicketCommentedPayload{
			Subject:     next.Subject,
			OldStatus:   ticket.Status,
			NewStatus:   next.Status,
			BodyPreview: stringPreview(message, 120),
		},
	})
	return &next, nil
}

// Close moves the ticket to closed and records actor as the closer. Access
// is gated by the route permission, not by visibility.
func (s *TicketService) Close(ctx context.Context, actor *domain.Account, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, ticketError(err)
	}

	next, err := domain.Apply(*ticket, domain.Closed{Closer: actor, At: s.now().UTC()})
	if err != nil {
		return nil, ticketError(err)
	}
	if err := s.tickets.Update(ctx, &next); err != nil {
		return nil, ticketError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: next.ID,
		OwnerID:  next.OwnerID,
		Actor:    events.ActorFor(actor),
		Payload: events.TicketClosedPayload{
			Subject:   next.Subject,
			OldStatus: ticket.Status,
			ClosedAt:  *next.ClosedAt,
		},
	})
	return &next, nil
}

// Delete removes a ticket together with its thread.
func (s *TicketService) Delete(ctx context.Context, actor *domain.Account, id string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return ticketError(err)
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return ticketError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		OwnerID:  ticket.OwnerID,
		Actor:    events.ActorFor(actor),
		Payload:  events.TicketDeletedPayload{Subject: ticket.Subject},
	})
	return nil
}

// Export renders the tickets selected by q.
func (s *TicketService) Export(ctx context.Context, q export.Query) (*export.Document, error) {
	req, err := export.ParseRequest(q, s.now(), s.location)
	if err != nil {
		return nil, exportError(err)
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses:    req.Statuses(),
		CreatedFrom: &req.From,
		CreatedTo:   &req.To,
	})
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	if len(tickets) == 0 {
		return nil, exportError(export.ErrNoTickets)
	}

	accounts, err := s.accounts.ListByIDs(ctx, export.AccountIDs(tickets))
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	byID := make(map[string]*domain.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}

	doc, err := export.Render(req, tickets, byID, s.location)
	if err != nil {
		return nil, exportError(err)
	}
	return doc, nil
}

// publishEvent notifies subscribers. Subscriber failures are logged and never
// change the outcome of the request.
func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

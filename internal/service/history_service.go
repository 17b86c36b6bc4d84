package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// HistoryService keeps the audit trail of ticket changes. Entries are
// written from ticket events and read back under the visibility rule.
type HistoryService struct {
	dispatcher events.Dispatcher
	history    repository.TicketHistoryRepository
	tickets    repository.TicketRepository
	logger     *zap.Logger
}

// NewHistoryService creates the service.
func NewHistoryService(dispatcher events.Dispatcher, history repository.TicketHistoryRepository, tickets repository.TicketRepository, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		dispatcher: dispatcher,
		history:    history,
		tickets:    tickets,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (h *HistoryService) RegisterHandlers() {
	if h.dispatcher == nil {
		return
	}
	h.dispatcher.Subscribe(events.EventTicketCreated, h.handleTicketCreated)
	h.dispatcher.Subscribe(events.EventTicketCommented, h.handleTicketCommented)
	h.dispatcher.Subscribe(events.EventTicketClosed, h.handleTicketClosed)
}

// List returns the audit trail of a ticket actor may see, oldest first.
func (h *HistoryService) List(ctx context.Context, actor *domain.Account, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := h.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, ticketError(err)
	}
	if !domain.CanView(actor, ticket) {
		return nil, ticketError(domain.ErrTicketNotFound)
	}

	entries, err := h.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return entries, nil
}

func (h *HistoryService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketCreatedPayload)
	return h.record(ctx, event, domain.ChangeTypeCreated, nil, map[string]any{
		"subject": payload.Subject,
		"status":  string(domain.TicketStatusOpen),
	})
}

func (h *HistoryService) handleTicketCommented(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketCommentedPayload)
	if err := h.record(ctx, event, domain.ChangeTypeComment, nil, map[string]any{
		"preview": payload.BodyPreview,
	}); err != nil {
		return err
	}
	if payload.OldStatus == payload.NewStatus {
		return nil
	}
	return h.recordStatus(ctx, event, payload.OldStatus, payload.NewStatus)
}

func (h *HistoryService) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketClosedPayload)
	return h.recordStatus(ctx, event, payload.OldStatus, domain.TicketStatusClosed)
}

func (h *HistoryService) recordStatus(ctx context.Context, event events.Event, from, to domain.TicketStatus) error {
	return h.record(ctx, event, domain.ChangeTypeStatus,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(to)})
}

func (h *HistoryService) record(ctx context.Context, event events.Event, change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	entry := &domain.TicketHistory{
		TicketID:      event.TicketID,
		ChangedByID:   event.Actor.AccountID,
		ChangedByRole: event.Actor.Role,
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
		CreatedAt:     event.Timestamp,
	}
	if err := h.history.Create(ctx, entry); err != nil {
		h.logger.Warn("ticket history not recorded",
			zap.String("ticket_id", event.TicketID),
			zap.String("change_type", string(change)),
			zap.Error(err))
		return err
	}
	return nil
}

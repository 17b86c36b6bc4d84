package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/notifier"
	"github.com/spec-kit/support-desk/internal/repository"
)

// NotificationService reacts to ticket events by logging them and emailing
// ticket owners about activity by other accounts.
type NotificationService struct {
	dispatcher events.Dispatcher
	accounts   repository.AccountRepository
	mailer     notifier.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, accounts repository.AccountRepository, mailer notifier.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		accounts:   accounts,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketCommented, n.handleTicketCommented)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.handleTicketDeleted)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.String("owner_id", event.OwnerID))
	return nil
}

func (n *NotificationService) handleTicketCommented(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCommented", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	if event.Actor.AccountID == event.OwnerID {
		return nil
	}
	payload, _ := event.Payload.(events.TicketCommentedPayload)
	return n.notifyOwner(ctx, event,
		fmt.Sprintf("New reply on your support request: %s", payload.Subject),
		fmt.Sprintf("Your support request %q has a new reply:\n\n%s\n", payload.Subject, payload.BodyPreview))
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketClosed", zap.String("ticket_id", event.TicketID), zap.String("closed_by", event.Actor.AccountID))
	if event.Actor.AccountID == event.OwnerID {
		return nil
	}
	payload, _ := event.Payload.(events.TicketClosedPayload)
	return n.notifyOwner(ctx, event,
		fmt.Sprintf("Support request closed: %s", payload.Subject),
		fmt.Sprintf("Your support request %q was closed on %s.\n", payload.Subject, payload.ClosedAt.Format("02-01-2006 15:04:05")))
}

func (n *NotificationService) handleTicketDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("TicketDeleted", zap.String("ticket_id", event.TicketID), zap.String("deleted_by", event.Actor.AccountID))
	return nil
}

func (n *NotificationService) notifyOwner(ctx context.Context, event events.Event, subject, body string) error {
	if n.mailer == nil || n.accounts == nil {
		return nil
	}
	owner, err := n.accounts.GetByID(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner of ticket %s: %w", event.TicketID, err)
	}
	if err := n.mailer.Send(ctx, notifier.Message{To: owner.Email, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("notify owner of ticket %s: %w", event.TicketID, err)
	}
	return nil
}

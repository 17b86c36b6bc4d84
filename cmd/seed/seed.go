package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
)

const demoPassword = "sec123RET"

const (
	subjectLogin        = "I cannot login"
	subjectCloseAccount = "How do I close my account"
)

var demoAccounts = []domain.Account{
	{FirstName: "John", LastName: "Doe", Email: "john.doe@aol.com", Role: domain.RoleUser},
	{FirstName: "Janet", LastName: "Doe", Email: "janet.doe@aol.com", Role: domain.RoleUser},
	{FirstName: "Peter", LastName: "Pan", Email: "peter.pan@aol.com", Role: domain.RoleAgent},
	{FirstName: "Paul", LastName: "Pan", Email: "paul.pan@aol.com", Role: domain.RoleAdmin},
}

var demoSubjects = []string{subjectLogin, subjectCloseAccount}

type seeder struct {
	accounts   repository.AccountRepository
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// Seed inserts the demo accounts and their tickets. Tickets go through the
// ticket service so each change lands in the ticket history like an API call.
func (s *seeder) Seed(ctx context.Context) error {
	hash, err := auth.HashPassword(demoPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	created := make([]*domain.Account, 0, len(demoAccounts))
	for _, tmpl := range demoAccounts {
		account := tmpl
		account.PasswordHash = hash
		if err := s.accounts.Create(ctx, &account); err != nil {
			return fmt.Errorf("create account %s: %w", account.Email, err)
		}
		s.logger.Debug("account seeded", zap.String("email", account.Email), zap.String("role", string(account.Role)))
		created = append(created, &account)
	}
	john, janet, peter := created[0], created[1], created[2]

	dispatcher := events.NewInMemoryDispatcher()
	service.NewHistoryService(dispatcher, s.history, s.tickets, s.logger).RegisterHandlers()
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  s.tickets,
		AccountRepo: s.accounts,
		Dispatcher:  dispatcher,
		Logger:      s.logger,
		Now:         s.now,
	})

	login, err := tickets.Create(ctx, john, subjectLogin, "This happens with correct credentials")
	if err != nil {
		return fmt.Errorf("create ticket %q: %w", subjectLogin, err)
	}
	thread := []struct {
		author  *domain.Account
		message string
	}{
		{peter, "Have you tried resetting your password?"},
		{john, "I just did and it worked, thanks"},
		{peter, "cool, have a nice day"},
	}
	for _, entry := range thread {
		if _, err := tickets.Comment(ctx, entry.author, login.ID, entry.message); err != nil {
			return fmt.Errorf("comment on %q: %w", subjectLogin, err)
		}
	}
	if _, err := tickets.Close(ctx, peter, login.ID); err != nil {
		return fmt.Errorf("close %q: %w", subjectLogin, err)
	}

	if _, err := tickets.Create(ctx, janet, subjectCloseAccount, "I have 2 accounts, I need to close one."); err != nil {
		return fmt.Errorf("create ticket %q: %w", subjectCloseAccount, err)
	}
	return nil
}

// Rollback deletes the demo accounts and tickets by email and subject.
// History rows go with their tickets.
func (s *seeder) Rollback(ctx context.Context) error {
	emails := make([]string, 0, len(demoAccounts))
	for _, account := range demoAccounts {
		emails = append(emails, account.Email)
	}

	accounts, err := s.accounts.DeleteByEmails(ctx, emails)
	if err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}
	tickets, err := s.tickets.DeleteBySubjects(ctx, demoSubjects)
	if err != nil {
		return fmt.Errorf("delete tickets: %w", err)
	}
	s.logger.Info("demo data removed", zap.Int64("accounts", accounts), zap.Int64("tickets", tickets))
	return nil
}

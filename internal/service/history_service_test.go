package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository/repotest"
)

func TestHistoryFollowsTicketLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	accounts := repotest.NewAccounts()
	tickets := repotest.NewTickets()
	history := repotest.NewHistory()
	dispatcher := events.NewInMemoryDispatcher()

	owner := accounts.Seed("John", "Doe", "john.doe@aol.com", domain.RoleUser)
	other := accounts.Seed("Janet", "Doe", "janet.doe@aol.com", domain.RoleUser)
	agent := accounts.Seed("Peter", "Pan", "peter.pan@aol.com", domain.RoleAgent)

	historySvc := NewHistoryService(dispatcher, history, tickets, zap.NewNop())
	historySvc.RegisterHandlers()
	ticketSvc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		AccountRepo: accounts,
		Dispatcher:  dispatcher,
		Now:         func() time.Time { return clock },
	})

	ticket, err := ticketSvc.Create(ctx, owner, "Cannot login", "It says my password is wrong")
	require.NoError(t, err)
	_, err = ticketSvc.Comment(ctx, agent, ticket.ID, "Looking into it")
	require.NoError(t, err)
	_, err = ticketSvc.Comment(ctx, owner, ticket.ID, "Thanks")
	require.NoError(t, err)
	_, err = ticketSvc.Close(ctx, agent, ticket.ID)
	require.NoError(t, err)

	entries, err := historySvc.List(ctx, owner, ticket.ID)
	require.NoError(t, err)

	want := []domain.TicketHistory{
		{TicketID: ticket.ID, ChangedByID: owner.ID, ChangedByRole: domain.RoleUser, ChangeType: domain.ChangeTypeCreated,
			NewValue: map[string]any{"subject": "Cannot login", "status": "open"}},
		{TicketID: ticket.ID, ChangedByID: agent.ID, ChangedByRole: domain.RoleAgent, ChangeType: domain.ChangeTypeComment,
			NewValue: map[string]any{"preview": "Looking into it"}},
		{TicketID: ticket.ID, ChangedByID: agent.ID, ChangedByRole: domain.RoleAgent, ChangeType: domain.ChangeTypeStatus,
			OldValue: map[string]any{"status": "open"}, NewValue: map[string]any{"status": "processing"}},
		{TicketID: ticket.ID, ChangedByID: owner.ID, ChangedByRole: domain.RoleUser, ChangeType: domain.ChangeTypeComment,
			NewValue: map[string]any{"preview": "Thanks"}},
		{TicketID: ticket.ID, ChangedByID: agent.ID, ChangedByRole: domain.RoleAgent, ChangeType: domain.ChangeTypeStatus,
			OldValue: map[string]any{"status": "processing"}, NewValue: map[string]any{"status": "closed"}},
	}
	if diff := cmp.Diff(want, entries, cmpopts.IgnoreFields(domain.TicketHistory{}, "ID", "CreatedAt")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	for _, entry := range entries {
		assert.True(t, entry.CreatedAt.Equal(clock))
	}

	_, err = historySvc.List(ctx, other, ticket.ID)
	requireStatus(t, err, http.StatusNotFound, "Support item not found")

	_, err = historySvc.List(ctx, agent, repotest.ID(404))
	requireStatus(t, err, http.StatusNotFound, "Support item not found")
}

func TestHistoryFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	accounts := repotest.NewAccounts()
	tickets := repotest.NewTickets()
	history := repotest.NewHistory()
	history.Err = errStoreDown
	dispatcher := events.NewInMemoryDispatcher()

	NewHistoryService(dispatcher, history, tickets, zap.NewNop()).RegisterHandlers()
	ticketSvc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		AccountRepo: accounts,
		Dispatcher:  dispatcher,
	})

	owner := accounts.Seed("John", "Doe", "john.doe@aol.com", domain.RoleUser)
	ticket, err := ticketSvc.Create(ctx, owner, "Refund", "Please")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, 1, tickets.Len())
}

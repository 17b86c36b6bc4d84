// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// ID returns the n-th well-formed identifier.
func ID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

// Accounts is an in-memory repository.AccountRepository. Set Err to make
// reads fail.
type Accounts struct {
	mu   sync.Mutex
	seq  int
	byID map[string]domain.Account
	Err  error
}

// NewAccounts returns an empty store.
func NewAccounts() *Accounts {
	return &Accounts{byID: map[string]domain.Account{}}
}

var _ repository.AccountRepository = (*Accounts)(nil)

// Create implements repository.AccountRepository.
func (a *Accounts) Create(_ context.Context, account *domain.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.byID {
		if existing.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	a.seq++
	account.ID = ID(1000 + a.seq)
	account.CreatedAt = time.Date(2024, 1, 1, 0, 0, a.seq, 0, time.UTC)
	account.UpdatedAt = account.CreatedAt
	a.byID[account.ID] = *account
	return nil
}

// GetByID implements repository.AccountRepository.
func (a *Accounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	account, ok := a.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

// GetByEmail implements repository.AccountRepository.
func (a *Accounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	for _, account := range a.byID {
		if account.Email == email {
			account := account
			return &account, nil
		}
	}
	return nil, repository.ErrNotFound
}

// List implements repository.AccountRepository.
func (a *Accounts) List(_ context.Context) ([]domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	out := make([]domain.Account, 0, len(a.byID))
	for _, account := range a.byID {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListByIDs implements repository.AccountRepository.
func (a *Accounts) ListByIDs(_ context.Context, ids []string) ([]domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	out := []domain.Account{}
	for _, id := range ids {
		if account, ok := a.byID[id]; ok {
			out = append(out, account)
		}
	}
	return out, nil
}

// Delete implements repository.AccountRepository.
func (a *Accounts) Delete(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(a.byID, id)
	return nil
}

// DeleteByEmails implements repository.AccountRepository.
func (a *Accounts) DeleteByEmails(_ context.Context, emails []string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	for id, account := range a.byID {
		for _, email := range emails {
			if account.Email == email {
				delete(a.byID, id)
				n++
			}
		}
	}
	return n, nil
}

// Seed stores an account with the given identity and returns it.
func (a *Accounts) Seed(first, last, email string, role domain.Role) *domain.Account {
	account := &domain.Account{FirstName: first, LastName: last, Email: email, Role: role}
	if err := a.Create(context.Background(), account); err != nil {
		panic(err)
	}
	return account
}

// Tickets is an in-memory repository.TicketRepository. Set Err to make
// Create and List fail.
type Tickets struct {
	mu   sync.Mutex
	seq  int
	byID map[string]domain.Ticket
	Err  error
}

// NewTickets returns an empty store.
func NewTickets() *Tickets {
	return &Tickets{byID: map[string]domain.Ticket{}}
}

var _ repository.TicketRepository = (*Tickets)(nil)

// Create implements repository.TicketRepository.
func (t *Tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.seq++
	ticket.ID = ID(t.seq)
	t.byID[ticket.ID] = ticket.Clone()
	return nil
}

// Update implements repository.TicketRepository.
func (t *Tickets) Update(_ context.Context, ticket *domain.Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[ticket.ID]; !ok {
		return repository.ErrNotFound
	}
	t.byID[ticket.ID] = ticket.Clone()
	return nil
}

// GetByID implements repository.TicketRepository.
func (t *Tickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !repository.ValidID(id) {
		return nil, repository.ErrNotFound
	}
	ticket, ok := t.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket = ticket.Clone()
	return &ticket, nil
}

// List implements repository.TicketRepository.
func (t *Tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}
	out := []domain.Ticket{}
	for _, ticket := range t.byID {
		if filter.OwnerID != nil && ticket.OwnerID != *filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, ticket.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete implements repository.TicketRepository.
func (t *Tickets) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.byID, id)
	return nil
}

// DeleteBySubjects implements repository.TicketRepository.
func (t *Tickets) DeleteBySubjects(_ context.Context, subjects []string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for id, ticket := range t.byID {
		for _, subject := range subjects {
			if ticket.Subject == subject {
				delete(t.byID, id)
				n++
			}
		}
	}
	return n, nil
}

// Len returns the number of stored tickets.
func (t *Tickets) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// History is an in-memory repository.TicketHistoryRepository. Set Err to
// make Create fail.
type History struct {
	mu      sync.Mutex
	seq     int
	entries []domain.TicketHistory
	Err     error
}

// NewHistory returns an empty store.
func NewHistory() *History {
	return &History{}
}

var _ repository.TicketHistoryRepository = (*History)(nil)

// Create implements repository.TicketHistoryRepository.
func (h *History) Create(_ context.Context, entry *domain.TicketHistory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return h.Err
	}
	h.seq++
	entry.ID = ID(5000 + h.seq)
	h.entries = append(h.entries, *entry)
	return nil
}

// ListByTicket implements repository.TicketHistoryRepository.
func (h *History) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, entry := range h.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

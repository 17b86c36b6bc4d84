package export

import (
	"strconv"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

var baseColumns = []string{
	"S/N",
	"Customer Name",
	"Customer Email",
	"Request Subject",
	"Request Status",
	"Comment Count",
	"Logged On",
}

var closingColumns = []string{"Closed By", "Closed On"}

// Closing carries the closing part of a row. It is only present for
// tickets that were closed by someone.
type Closing struct {
	ClosedBy string
	ClosedOn time.Time
}

// Row is one exported ticket.
type Row struct {
	Serial        int
	CustomerName  string
	CustomerEmail string
	Subject       string
	Status        domain.TicketStatus
	CommentCount  int
	LoggedOn      time.Time
	Closing       *Closing
}

// Columns lists the column names of the row.
func (r Row) Columns() []string {
	cols := append([]string{}, baseColumns...)
	if r.Closing != nil {
		cols = append(cols, closingColumns...)
	}
	return cols
}

// Values renders the row with timestamps in loc.
func (r Row) Values(loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	values := []string{
		strconv.Itoa(r.Serial),
		r.CustomerName,
		r.CustomerEmail,
		r.Subject,
		string(r.Status),
		strconv.Itoa(r.CommentCount),
		r.LoggedOn.In(loc).Format(TimestampLayout),
	}
	if r.Closing != nil {
		values = append(values, r.Closing.ClosedBy, r.Closing.ClosedOn.In(loc).Format(TimestampLayout))
	}
	return values
}

// BuildRows projects tickets into rows numbered from 1. Accounts are looked
// up by id; a missing account renders as empty text.
func BuildRows(tickets []domain.Ticket, accounts map[string]*domain.Account) []Row {
	rows := make([]Row, 0, len(tickets))
	for i, ticket := range tickets {
		owner := accounts[ticket.OwnerID]
		row := Row{
			Serial:       i + 1,
			CustomerName: owner.FullName(),
			Subject:      ticket.Subject,
			Status:       ticket.Status,
			CommentCount: len(ticket.Comments),
			LoggedOn:     ticket.CreatedAt,
		}
		if owner != nil {
			row.CustomerEmail = owner.Email
		}
		if ticket.ClosedBy != nil {
			closing := &Closing{ClosedBy: accounts[*ticket.ClosedBy].FullName()}
			if ticket.ClosedAt != nil {
				closing.ClosedOn = *ticket.ClosedAt
			}
			row.Closing = closing
		}
		rows = append(rows, row)
	}
	return rows
}

// AccountIDs returns the distinct owner and closer ids referenced by tickets.
func AccountIDs(tickets []domain.Ticket) []string {
	seen := make(map[string]struct{}, len(tickets))
	ids := make([]string, 0, len(tickets))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, ticket := range tickets {
		add(ticket.OwnerID)
		if ticket.ClosedBy != nil {
			add(*ticket.ClosedBy)
		}
	}
	return ids
}

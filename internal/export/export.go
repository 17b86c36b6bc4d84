// Package export selects support tickets for a reporting window and renders
// them as CSV or PDF documents.
package export

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// Document is a rendered export ready for download.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Render projects tickets into rows and encodes them in the requested
// format. An empty ticket set yields ErrNoTickets.
func Render(req Request, tickets []domain.Ticket, accounts map[string]*domain.Account, loc *time.Location) (*Document, error) {
	if len(tickets) == 0 {
		return nil, ErrNoTickets
	}

	rows := BuildRows(tickets, accounts)

	var (
		body []byte
		err  error
	)
	switch req.Format {
	case FormatPDF:
		body, err = RenderPDF(rows, req.Title(), loc)
	default:
		body, err = RenderCSV(rows, loc)
	}
	if err != nil {
		return nil, err
	}

	return &Document{
		Filename:    req.Filename(),
		ContentType: req.ContentType(),
		Body:        body,
	}, nil
}

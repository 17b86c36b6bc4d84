package export

import (
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// Status selects which tickets an export covers.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Format is the output document type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

const (
	// DateLayout is the day-month-year form used in queries and titles.
	DateLayout = "02-01-2006"
	// TimestampLayout renders timestamps inside rows.
	TimestampLayout = "02-01-2006 15:04:05"

	// parseLayout accepts unpadded days and months.
	parseLayout = "2-1-2006"
)

var (
	ErrInvalidDate   = errors.New(`Format for start and end dates must be "DD-MM-YYYY"`)
	ErrInvalidStatus = errors.New(`Status can only be "open" or "closed"`)
	ErrInvalidFormat = errors.New(`Type can only be "pdf" or "csv"`)
	ErrNoTickets     = errors.New("No support request found.")
)

// Query holds the raw export parameters. Empty fields take defaults.
type Query struct {
	Status string
	Start  string
	End    string
	Type   string
}

// Request is a validated export request. From is the first instant of the
// start day and To the last instant of the end day, both in the export
// location.
type Request struct {
	Status     Status
	Format     Format
	From       time.Time
	To         time.Time
	StartLabel string
	EndLabel   string
}

// ParseRequest applies defaults and validates q. Dates are checked first,
// then status, then type; the first failure is returned.
func ParseRequest(q Query, now time.Time, loc *time.Location) (Request, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	startLabel := strings.TrimSpace(q.Start)
	if startLabel == "" {
		startLabel = now.AddDate(0, -1, 0).Format(DateLayout)
	}
	endLabel := strings.TrimSpace(q.End)
	if endLabel == "" {
		endLabel = now.Format(DateLayout)
	}

	from, errStart := time.ParseInLocation(parseLayout, startLabel, loc)
	to, errEnd := time.ParseInLocation(parseLayout, endLabel, loc)
	if errStart != nil || errEnd != nil {
		return Request{}, ErrInvalidDate
	}

	status := Status(strings.TrimSpace(q.Status))
	if status == "" {
		status = StatusClosed
	}
	if status != StatusOpen && status != StatusClosed {
		return Request{}, ErrInvalidStatus
	}

	format := Format(strings.TrimSpace(q.Type))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return Request{}, ErrInvalidFormat
	}

	return Request{
		Status:     status,
		Format:     format,
		From:       from,
		To:         to.AddDate(0, 0, 1).Add(-time.Nanosecond),
		StartLabel: startLabel,
		EndLabel:   endLabel,
	}, nil
}

// Statuses maps the export status onto ticket statuses. "open" covers
// every ticket that is not closed.
func (r Request) Statuses() []domain.TicketStatus {
	if r.Status == StatusClosed {
		return []domain.TicketStatus{domain.TicketStatusClosed}
	}
	return []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusProcessing}
}

// Title is the heading printed on PDF exports.
func (r Request) Title() string {
	return strings.ToUpper(string(r.Status)) + " Support Requests from " +
		r.From.Format(DateLayout) + " to " + r.To.Format(DateLayout)
}

// Filename is the attachment name offered to clients.
func (r Request) Filename() string {
	return string(r.Status) + "-support-request-" + r.StartLabel + "-" + r.EndLabel + "." + string(r.Format)
}

// ContentType returns the MIME type of the requested format.
func (r Request) ContentType() string {
	switch r.Format {
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

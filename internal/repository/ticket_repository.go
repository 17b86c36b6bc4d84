package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter narrows ticket listings. Zero values mean "no constraint".
type TicketFilter struct {
	OwnerID     *string
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TicketRepository encapsulates ticket persistence. A ticket is stored as a
// single document with its comment thread embedded, and Update replaces the
// whole document.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	DeleteBySubjects(ctx context.Context, subjects []string) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// commentDocument is the stored shape of a comment inside the comments column.
type commentDocument struct {
	Message   string    `json:"message"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

const ticketColumns = `id, subject, message, owner_id, status, comments, closed_by, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	comments, err := encodeComments(ticket.Comments)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO support_tickets (subject, message, owner_id, status, comments, closed_by, closed_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, NOW()),COALESCE($8, NOW()))
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Message,
		ticket.OwnerID,
		ticket.Status,
		comments,
		ticket.ClosedBy,
		ticket.ClosedAt,
		nullableTime(ticket.CreatedAt),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if !ValidID(ticket.ID) {
		return ErrNotFound
	}
	comments, err := encodeComments(ticket.Comments)
	if err != nil {
		return err
	}
	const query = `
        UPDATE support_tickets SET subject=$1, message=$2, status=$3, comments=$4,
            closed_by=$5, closed_at=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err = r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Message,
		ticket.Status,
		comments,
		ticket.ClosedBy,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return mapNoRows(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	const query = `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		if !ValidID(*filter.OwnerID) {
			return []domain.Ticket{}, nil
		}
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE %s ORDER BY created_at ASC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM support_tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) DeleteBySubjects(ctx context.Context, subjects []string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM support_tickets WHERE subject = ANY($1)`, subjects)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		comments []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Message,
		&ticket.OwnerID,
		&ticket.Status,
		&comments,
		&ticket.ClosedBy,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	decoded, err := decodeComments(comments)
	if err != nil {
		return nil, fmt.Errorf("decode comments of ticket %s: %w", ticket.ID, err)
	}
	ticket.Comments = decoded
	return &ticket, nil
}

func encodeComments(comments []domain.Comment) ([]byte, error) {
	docs := make([]commentDocument, 0, len(comments))
	for _, c := range comments {
		docs = append(docs, commentDocument{Message: c.Message, User: c.AuthorID, CreatedAt: c.CreatedAt})
	}
	return json.Marshal(docs)
}

func decodeComments(raw []byte) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	if len(raw) == 0 {
		return comments, nil
	}
	var docs []commentDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		comments = append(comments, domain.Comment{Message: d.Message, AuthorID: d.User, CreatedAt: d.CreatedAt})
	}
	return comments, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

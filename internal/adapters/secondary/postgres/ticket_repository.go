package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/core/utils"
)

const ticketColumns = `id, description, summary, ticket_number, created_at, reminder_time, completed, email, phone, assignee`

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository. The repository owns
// the pool and closes it in Close.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// scanTicket converts a result row to a core domain model.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t            domain.Ticket
		email, phone pgtype.Text
	)
	if err := row.Scan(
		&t.ID,
		&t.Description,
		&t.Summary,
		&t.TicketNumber,
		&t.CreatedAt,
		&t.ReminderTime,
		&t.Completed,
		&email,
		&phone,
		&t.Assignee,
	); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.ReminderTime = t.ReminderTime.UTC()
	t.Email = utils.FromNullString(email)
	t.Phone = utils.FromNullString(phone)
	return &t, nil
}

// Insert persists a new ticket entity.
func (r *TicketRepository) Insert(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tickets (description, summary, ticket_number, created_at, reminder_time, completed, email, phone, assignee)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8)
		RETURNING `+ticketColumns,
		ticket.Description,
		ticket.Summary,
		ticket.TicketNumber,
		ticket.CreatedAt,
		ticket.ReminderTime,
		utils.ToNullString(ticket.Email),
		utils.ToNullString(ticket.Phone),
		ticket.Assignee,
	)

	created, err := scanTicket(row)
	if err != nil {
		return nil, apperrors.NewStorageError("insert ticket", err)
	}
	return created, nil
}

// MarkCompleted flips completed to true. Unknown ids affect no rows.
func (r *TicketRepository) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tickets SET completed = TRUE WHERE id = $1 AND completed = FALSE`, id,
	)
	if err != nil {
		return false, apperrors.NewStorageError("mark completed", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAll returns every ticket, newest first.
func (r *TicketRepository) ListAll(ctx context.Context) ([]*domain.Ticket, error) {
	tickets, err := r.query(ctx,
		`SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}
	return tickets, nil
}

// ListDueReminders returns incomplete tickets whose reminder time has passed.
func (r *TicketRepository) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Ticket, error) {
	tickets, err := r.query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE completed = FALSE AND reminder_time <= $1`, now)
	if err != nil {
		return nil, apperrors.NewStorageError("list due reminders", err)
	}
	return tickets, nil
}

// UpdateAssignee persists a reassignment.
func (r *TicketRepository) UpdateAssignee(ctx context.Context, id int64, assignee string) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tickets SET assignee = $2 WHERE id = $1 RETURNING `+ticketColumns, id, assignee)

	updated, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewStorageError("update assignee", err)
	}
	return updated, nil
}

// Ping checks that the database is reachable.
func (r *TicketRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *TicketRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *TicketRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

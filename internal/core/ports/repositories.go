package ports

import (
	"context"
	"time"

	"github.com/lorrc/ticket-desk/internal/core/domain"
)

// TicketRepository is the durable record of tickets. Every operation is
// self-contained and atomic at single-row granularity.
type TicketRepository interface {
	// Insert persists a new ticket and returns the stored record with its id.
	Insert(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	// MarkCompleted sets completed for id. Unknown or already completed ids are
	// a no-op and report changed=false.
	MarkCompleted(ctx context.Context, id int64) (changed bool, err error)
	// ListAll returns every ticket, most recently created first.
	ListAll(ctx context.Context) ([]*domain.Ticket, error)
	// ListDueReminders returns incomplete tickets whose reminder time is at or before now.
	ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Ticket, error)
	// UpdateAssignee persists a reassignment, returning ErrTicketNotFound for unknown ids.
	UpdateAssignee(ctx context.Context, id int64, assignee string) (*domain.Ticket, error)
	Ping(ctx context.Context) error
	Close() error
}

// CycleLock keeps replicas from running the same reminder cycle twice.
type CycleLock interface {
	// TryAcquire returns acquired=false when another holder owns key.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

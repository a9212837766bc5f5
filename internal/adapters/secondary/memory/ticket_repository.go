// Package memory keeps tickets in process memory. Contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// TicketRepository is an in-memory ports.TicketRepository.
type TicketRepository struct {
	mu      sync.RWMutex
	tickets map[int64]*domain.Ticket
	nextID  int64
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		tickets: make(map[int64]*domain.Ticket),
	}
}

func (r *TicketRepository) Insert(_ context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := clone(ticket)
	stored.ID = r.nextID
	stored.Completed = false
	r.tickets[stored.ID] = stored

	return clone(stored), nil
}

func (r *TicketRepository) MarkCompleted(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok || t.Completed {
		return false, nil
	}
	t.Complete()
	return true, nil
}

func (r *TicketRepository) ListAll(_ context.Context) ([]*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		tickets = append(tickets, clone(t))
	}
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		}
		return tickets[i].ID > tickets[j].ID
	})
	return tickets, nil
}

func (r *TicketRepository) ListDueReminders(_ context.Context, now time.Time) ([]*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]*domain.Ticket, 0)
	for _, t := range r.tickets {
		if t.IsDue(now) {
			due = append(due, clone(t))
		}
	}
	return due, nil
}

func (r *TicketRepository) UpdateAssignee(_ context.Context, id int64, assignee string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	t.Assignee = assignee
	return clone(t), nil
}

func (r *TicketRepository) Ping(context.Context) error {
	return nil
}

func (r *TicketRepository) Close() error {
	return nil
}

// clone copies t so callers never share state with the store.
func clone(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.Email != nil {
		email := *t.Email
		c.Email = &email
	}
	if t.Phone != nil {
		phone := *t.Phone
		c.Phone = &phone
	}
	return &c
}

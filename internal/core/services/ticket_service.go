package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo      ports.TicketRepository
	summarizer      ports.Summarizer
	broadcaster     ports.EventBroadcaster
	logger          *slog.Logger
	now             func() time.Time
	defaultAssignee string
}

var _ ports.TicketService = (*TicketService)(nil)

// TicketServiceOption customizes a TicketService.
type TicketServiceOption func(*TicketService)

// WithClock replaces the wall clock used for ticket numbers and due times.
func WithClock(now func() time.Time) TicketServiceOption {
	return func(s *TicketService) {
		s.now = now
	}
}

// WithDefaultAssignee sets the owner given to new tickets.
func WithDefaultAssignee(assignee string) TicketServiceOption {
	return func(s *TicketService) {
		if strings.TrimSpace(assignee) != "" {
			s.defaultAssignee = assignee
		}
	}
}

// NewTicketService creates a new ticket service. A nil summarizer disables
// summarization and a nil broadcaster disables live events.
func NewTicketService(
	ticketRepo ports.TicketRepository,
	summarizer ports.Summarizer,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
	opts ...TicketServiceOption,
) *TicketService {
	s := &TicketService{
		ticketRepo:      ticketRepo,
		summarizer:      summarizer,
		broadcaster:     broadcaster,
		logger:          logger.With("component", "ticket_service"),
		now:             time.Now,
		defaultAssignee: domain.DefaultAssignee,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTicket handles the use case for submitting a new ticket
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	// 1. Validate before spending a summarizer call
	if strings.TrimSpace(params.Description) == "" {
		return nil, apperrors.ErrDescriptionRequired
	}

	// 2. Derive the summary
	summary := domain.TruncateSummary(params.Description)
	if !params.BypassSummarization && s.summarizer != nil {
		enrichment, err := s.condense(ctx, params.Description, params.Email, params.Phone)
		if err == nil && strings.TrimSpace(enrichment.Condensed) != "" {
			summary = enrichment.Condensed
		}
	}

	// 3. Build the domain entity
	ticket, err := domain.NewTicket(domain.TicketParams{
		Description: params.Description,
		Summary:     summary,
		Email:       params.Email,
		Phone:       params.Phone,
		Assignee:    s.defaultAssignee,
		Now:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	// 4. Persist the ticket
	created, err := s.ticketRepo.Insert(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.broadcast(domain.Event{
		Type:     domain.EventTicketCreated,
		Payload:  domain.NewTicketSnapshot(created),
		TicketID: created.ID,
	})

	return created, nil
}

// CompleteTicket marks a ticket as done. Unknown ids succeed silently, and
// only a ticket that actually changed is announced to browsers.
func (s *TicketService) CompleteTicket(ctx context.Context, ticketID int64) error {
	if ticketID <= 0 {
		return apperrors.ErrInvalidTicketID
	}

	changed, err := s.ticketRepo.MarkCompleted(ctx, ticketID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.broadcast(domain.Event{
		Type:     domain.EventTicketCompleted,
		Payload:  domain.CompletedSnapshot{ID: ticketID},
		TicketID: ticketID,
	})
	return nil
}

// ListTickets returns all tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context) ([]*domain.Ticket, error) {
	return s.ticketRepo.ListAll(ctx)
}

// ReassignTicket moves a ticket to another owner.
func (s *TicketService) ReassignTicket(ctx context.Context, params ports.ReassignTicketParams) (*domain.Ticket, error) {
	if params.TicketID <= 0 {
		return nil, apperrors.ErrInvalidTicketID
	}

	// The domain rules are checked on a scratch entity; the store applies the write.
	candidate := &domain.Ticket{ID: params.TicketID}
	if err := candidate.Reassign(params.Assignee); err != nil {
		return nil, err
	}

	updated, err := s.ticketRepo.UpdateAssignee(ctx, params.TicketID, candidate.Assignee)
	if err != nil {
		return nil, err
	}

	s.broadcast(domain.Event{
		Type:     domain.EventTicketReassigned,
		Payload:  domain.NewTicketSnapshot(updated),
		TicketID: updated.ID,
	})
	return updated, nil
}

// Enrich previews the summarizer output for a ticket that has not been created yet.
// Summarizer failures are absorbed with a fixed fallback.
func (s *TicketService) Enrich(ctx context.Context, params ports.EnrichParams) (domain.Enrichment, error) {
	if strings.TrimSpace(params.Description) == "" {
		return domain.Enrichment{}, apperrors.ErrDescriptionRequired
	}

	if params.Bypass {
		return domain.SkippedEnrichment, nil
	}

	if s.summarizer == nil {
		return domain.FallbackEnrichment, nil
	}

	enrichment, err := s.condense(ctx, params.Description, params.Email, params.Phone)
	if err != nil {
		return domain.FallbackEnrichment, nil
	}
	return enrichment, nil
}

// condense calls the summarizer and logs, rather than returns, its failures.
func (s *TicketService) condense(ctx context.Context, description, email, phone string) (domain.Enrichment, error) {
	enrichment, err := s.summarizer.Condense(ctx, ports.SummarizeInput{
		Description: description,
		Email:       email,
		Phone:       phone,
	})
	if err == nil && !enrichment.IsComplete() {
		err = apperrors.NewEnrichmentError("incomplete summarizer output", nil)
	}
	if err != nil {
		var enrichErr *apperrors.EnrichmentError
		if !errors.As(err, &enrichErr) {
			err = apperrors.NewEnrichmentError("summarizer call failed", err)
		}
		s.logger.WarnContext(ctx, "summarizer unavailable, using fallback", "error", err)
		return domain.Enrichment{}, err
	}
	return enrichment, nil
}

func (s *TicketService) broadcast(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast ticket event",
			"event_type", event.Type,
			"ticket_id", event.TicketID,
			"error", err,
		)
	}
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

const (
	reminderLockKey        = "ticket-desk:reminder-cycle"
	defaultSendTimeout     = 30 * time.Second
	defaultSendConcurrency = 4
)

// ReminderConfig holds the reminder cycle settings.
type ReminderConfig struct {
	// Recipient is the operator address that receives every reminder.
	Recipient   string
	SendTimeout time.Duration
	Concurrency int
	// LockTTL is how long a claimed slot stays claimed. It must outlast the
	// spread between replicas firing for the same slot.
	LockTTL time.Duration
}

// ReminderService implements one scan-and-notify reminder cycle.
// It never mutates tickets and never returns an error to its caller.
type ReminderService struct {
	ticketRepo ports.TicketRepository
	notifier   ports.Notifier
	lock       ports.CycleLock
	cfg        ReminderConfig
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.ReminderService = (*ReminderService)(nil)

// NewReminderService creates a reminder service. lock may be nil when only
// one replica runs the scheduler.
func NewReminderService(
	ticketRepo ports.TicketRepository,
	notifier ports.Notifier,
	lock ports.CycleLock,
	cfg ReminderConfig,
	logger *slog.Logger,
) *ReminderService {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultSendConcurrency
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}

	return &ReminderService{
		ticketRepo: ticketRepo,
		notifier:   notifier,
		lock:       lock,
		cfg:        cfg,
		logger:     logger.With("component", "reminder_service"),
		now:        time.Now,
	}
}

// SetClock replaces the wall clock used to decide which tickets are due.
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// RunCycle sends one reminder per overdue, incomplete ticket for slot.
// The first replica to claim slot does the work; the claim is kept after a
// finished cycle so a late replica cannot send the same round again.
func (s *ReminderService) RunCycle(ctx context.Context, slot time.Time) ports.CycleReport {
	var report ports.CycleReport

	var release func(context.Context) error
	if s.lock != nil {
		var (
			acquired bool
			err      error
		)
		release, acquired, err = s.lock.TryAcquire(ctx, SlotKey(slot), s.cfg.LockTTL)
		switch {
		case err != nil:
			// Sending twice is preferred over not sending at all.
			s.logger.WarnContext(ctx, "cycle lock unavailable, running unlocked", "error", err)
			release = nil
		case !acquired:
			s.logger.InfoContext(ctx, "reminder slot claimed by another replica", "slot", slot.UTC())
			report.Skipped = true
			return report
		}
	}

	now := s.now()
	due, err := s.ticketRepo.ListDueReminders(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list due reminders", "error", err)
		// Nothing was sent, so another replica may still serve this slot.
		if release != nil {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "failed to release reminder slot", "error", err)
			}
		}
		return report
	}
	report.Due = len(due)

	var sent, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, ticket := range due {
		g.Go(func() error {
			if err := s.sendReminder(ctx, ticket); err != nil {
				failed.Add(1)
				s.logger.ErrorContext(ctx, "failed to send reminder",
					"ticket_id", ticket.ID,
					"ticket_number", ticket.TicketNumber,
					"error", err,
				)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report.Sent = int(sent.Load())
	report.Failed = int(failed.Load())

	s.logger.InfoContext(ctx, "reminder cycle finished",
		"due", report.Due,
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return report
}

// SlotKey is the lock key claimed for one scheduled activation.
func SlotKey(slot time.Time) string {
	return reminderLockKey + ":" + slot.UTC().Format(time.RFC3339)
}

func (s *ReminderService) sendReminder(ctx context.Context, ticket *domain.Ticket) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	reminder := domain.NewReminder(ticket)
	_, err := s.notifier.Send(sendCtx, ports.EmailMessage{
		To:      s.cfg.Recipient,
		Subject: reminder.Subject,
		Body:    reminder.Body,
	})
	if err != nil {
		var deliveryErr *apperrors.DeliveryError
		if !errors.As(err, &deliveryErr) {
			err = apperrors.NewDeliveryError(s.cfg.Recipient, err)
		}
		return err
	}
	return nil
}

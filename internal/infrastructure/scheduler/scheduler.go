// Package scheduler runs the reminder cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/infrastructure/logging"
)

// Scheduler triggers ports.ReminderService.RunCycle. A cycle still running
// when the next tick fires causes that tick to be skipped. Every scheduled
// run is tagged with its activation time, so replicas on the same schedule
// agree on which slot they are serving.
type Scheduler struct {
	cron     *cron.Cron
	entry    cron.EntryID
	reminder ports.ReminderService
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New parses spec (standard five field cron syntax) and prepares the job.
func New(spec string, reminder ports.ReminderService, logger *slog.Logger) (*Scheduler, error) {
	logger = logger.With("component", "scheduler")
	cronLog := cronLogger{logger: logger}

	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     c,
		reminder: reminder,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	id, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins firing on schedule. Calling Start twice has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
}

// Stop halts the schedule, cancels in-flight sends and waits for the running
// cycle to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()

	select {
	case <-stopped.Done():
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes one cycle synchronously outside the schedule, for the
// slot starting at the current second.
func (s *Scheduler) RunNow(ctx context.Context) ports.CycleReport {
	return s.run(ctx, currentSlot())
}

func (s *Scheduler) run(ctx context.Context, slot time.Time) ports.CycleReport {
	return s.reminder.RunCycle(logging.WithCycleID(ctx, uuid.NewString()), slot)
}

func (s *Scheduler) runOnce() {
	if s.ctx.Err() != nil {
		return
	}
	// Prev is the activation time cron assigned to this run, identical on
	// every replica sharing the schedule.
	slot := s.cron.Entry(s.entry).Prev
	if slot.IsZero() {
		slot = currentSlot()
	}
	s.run(s.ctx, slot)
}

func currentSlot() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/infrastructure/logging"
)

// fakeReminder counts cycles and can block until its context is cancelled.
type fakeReminder struct {
	runs    atomic.Int32
	block   bool
	started chan struct{}
	cycleID atomic.Value
	slot    atomic.Value
}

func (f *fakeReminder) RunCycle(ctx context.Context, slot time.Time) ports.CycleReport {
	f.runs.Add(1)
	f.cycleID.Store(ctx.Value(logging.CycleIDKey))
	f.slot.Store(slot)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block {
		<-ctx.Done()
	}
	return ports.CycleReport{}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RejectsInvalidSpec(t *testing.T) {
	_, err := New("every hour", &fakeReminder{}, discardLogger())
	assert.Error(t, err)
}

func TestScheduler_RunNowTagsCycle(t *testing.T) {
	reminder := &fakeReminder{}
	s, err := New("0 * * * *", reminder, discardLogger())
	require.NoError(t, err)

	s.RunNow(context.Background())

	assert.Equal(t, int32(1), reminder.runs.Load())
	id, _ := reminder.cycleID.Load().(string)
	assert.NotEmpty(t, id)
	slot, _ := reminder.slot.Load().(time.Time)
	assert.Zero(t, slot.Nanosecond())
	assert.WithinDuration(t, time.Now(), slot, 2*time.Second)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	reminder := &fakeReminder{started: make(chan struct{}, 1)}
	s, err := New("@every 1s", reminder, discardLogger())
	require.NoError(t, err)

	s.Start()
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	select {
	case <-reminder.started:
	case <-time.After(3 * time.Second):
		t.Fatal("cycle did not fire")
	}

	// Scheduled runs carry the activation time, not the moment they read the clock.
	slot, _ := reminder.slot.Load().(time.Time)
	require.False(t, slot.IsZero())
	assert.Zero(t, slot.Nanosecond())
	assert.WithinDuration(t, time.Now(), slot, 3*time.Second)
}

func TestScheduler_StopCancelsRunningCycle(t *testing.T) {
	reminder := &fakeReminder{block: true, started: make(chan struct{}, 1)}
	s, err := New("@every 1s", reminder, discardLogger())
	require.NoError(t, err)

	s.Start()
	select {
	case <-reminder.started:
	case <-time.After(3 * time.Second):
		t.Fatal("cycle did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), reminder.runs.Load())
}

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-desk/internal/adapters/secondary/memory"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/redis"
	"github.com/lorrc/ticket-desk/internal/core/domain"
	"github.com/lorrc/ticket-desk/internal/core/mocks"
	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/core/services"
)

// Two replicas share one store and one Redis, and fire for the same slots.
func TestReminderReplicas_OneSendPerSlot(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mr := miniredis.RunT(t)
	repo := memory.NewTicketRepository()
	ticket, err := domain.NewTicket(domain.TicketParams{
		Description: "Printer on 3rd floor is jammed",
		Now:         now.Add(-72 * time.Hour),
	})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, ticket)
	require.NoError(t, err)

	notifier := mocks.NewMockNotifier()
	notifier.On("Send", mock.Anything, mock.Anything).Return(ports.DeliveryReceipt{}, nil)

	replica := func() *services.ReminderService {
		lock := redis.NewCycleLock(redis.Config{Addr: mr.Addr()}, logger)
		t.Cleanup(func() { _ = lock.Close() })
		svc := services.NewReminderService(repo, notifier, lock, services.ReminderConfig{
			Recipient: "ops@example.com",
		}, logger)
		svc.SetClock(func() time.Time { return now })
		return svc
	}
	a, b := replica(), replica()

	var wg sync.WaitGroup
	reports := make([]ports.CycleReport, 2)
	for i, svc := range []*services.ReminderService{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = svc.RunCycle(ctx, now)
		}()
	}
	wg.Wait()

	assert.NotEqual(t, reports[0].Skipped, reports[1].Skipped)
	notifier.AssertNumberOfCalls(t, "Send", 1)

	// A replica whose tick lands after the winner finished is still refused.
	late := b.RunCycle(ctx, now)
	assert.True(t, late.Skipped)
	notifier.AssertNumberOfCalls(t, "Send", 1)

	next := b.RunCycle(ctx, now.Add(time.Hour))
	assert.Equal(t, ports.CycleReport{Due: 1, Sent: 1}, next)
	notifier.AssertNumberOfCalls(t, "Send", 2)
}

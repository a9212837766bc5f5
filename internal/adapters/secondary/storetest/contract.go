// Package storetest holds the behavior every ports.TicketRepository
// implementation must share. Adapter packages run it from their own tests.
package storetest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) ports.TicketRepository

// base is the creation time of the first generated ticket.
var base = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

// NewTicket builds a valid, unsaved ticket created at createdAt.
func NewTicket(t *testing.T, description string, createdAt time.Time) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket(domain.TicketParams{
		Description: description,
		Email:       "requester@example.com",
		Now:         createdAt,
	})
	require.NoError(t, err)
	return ticket
}

// Run executes the repository contract against newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("insert round trip", func(t *testing.T) { testInsertRoundTrip(t, newRepo(t)) })
	t.Run("ids are distinct and increasing", func(t *testing.T) { testDistinctIDs(t, newRepo(t)) })
	t.Run("concurrent inserts get distinct ids", func(t *testing.T) { testConcurrentInserts(t, newRepo(t)) })
	t.Run("mark completed is idempotent", func(t *testing.T) { testMarkCompleted(t, newRepo(t)) })
	t.Run("list all is newest first", func(t *testing.T) { testListAllOrder(t, newRepo(t)) })
	t.Run("due reminders match the filter", func(t *testing.T) { testDueReminders(t, newRepo(t)) })
	t.Run("update assignee", func(t *testing.T) { testUpdateAssignee(t, newRepo(t)) })
	t.Run("ping", func(t *testing.T) { assert.NoError(t, newRepo(t).Ping(context.Background())) })
}

func testInsertRoundTrip(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()

	phone := "555-0100"
	ticket := NewTicket(t, "Printer on 3rd floor is jammed", base.Add(123*time.Millisecond))
	ticket.Email = nil
	ticket.Phone = &phone

	created, err := repo.Insert(ctx, ticket)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Printer on 3rd floor is jammed", got.Description)
	assert.Equal(t, ticket.Summary, got.Summary)
	assert.Equal(t, ticket.TicketNumber, got.TicketNumber)
	assert.True(t, ticket.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", ticket.CreatedAt, got.CreatedAt)
	assert.Equal(t, int64(172800000), got.ReminderTime.UnixMilli()-got.CreatedAt.UnixMilli())
	assert.False(t, got.Completed)
	assert.Nil(t, got.Email)
	require.NotNil(t, got.Phone)
	assert.Equal(t, phone, *got.Phone)
	assert.Equal(t, domain.DefaultAssignee, got.Assignee)
}

func testDistinctIDs(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		created, err := repo.Insert(ctx, NewTicket(t, fmt.Sprintf("ticket %d", i), base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		assert.Greater(t, created.ID, last)
		last = created.ID
	}
}

func testConcurrentInserts(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()
	const n = 20

	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := domain.NewTicket(domain.TicketParams{
				Description: fmt.Sprintf("concurrent %d", i),
				Now:         base,
			})
			if err != nil {
				errs[i] = err
				return
			}
			created, err := repo.Insert(ctx, ticket)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = created.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "id %d assigned twice", ids[i])
		seen[ids[i]] = true
	}
}

func testMarkCompleted(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()

	created, err := repo.Insert(ctx, NewTicket(t, "Wifi down", base))
	require.NoError(t, err)

	changed, err := repo.MarkCompleted(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkCompleted(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, changed, "second completion changes nothing")

	changed, err = repo.MarkCompleted(ctx, created.ID+1000)
	assert.NoError(t, err, "unknown ids are a no-op")
	assert.False(t, changed)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Completed)

	due, err := repo.ListDueReminders(ctx, base.Add(domain.ReminderDelay+time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due, "completed tickets are never due")
}

func testListAllOrder(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()

	offsets := []time.Duration{2 * time.Hour, 0, 5 * time.Hour, time.Hour}
	for i, off := range offsets {
		_, err := repo.Insert(ctx, NewTicket(t, fmt.Sprintf("t%d", i), base.Add(off)))
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(offsets))
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "position %d is newer than %d", i, i-1)
	}
	assert.Equal(t, "t2", all[0].Description)
}

func testDueReminders(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(42, 7))

	type row struct {
		id           int64
		reminderTime time.Time
		completed    bool
	}
	var rows []row

	for i := 0; i < 40; i++ {
		createdAt := base.Add(time.Duration(rng.IntN(96)) * time.Hour).Add(time.Duration(rng.IntN(1000)) * time.Millisecond)
		created, err := repo.Insert(ctx, NewTicket(t, fmt.Sprintf("random %d", i), createdAt))
		require.NoError(t, err)

		completed := rng.IntN(3) == 0
		if completed {
			_, err := repo.MarkCompleted(ctx, created.ID)
			require.NoError(t, err)
		}
		rows = append(rows, row{id: created.ID, reminderTime: created.ReminderTime, completed: completed})
	}

	for _, now := range []time.Time{
		base,
		base.Add(domain.ReminderDelay),
		base.Add(domain.ReminderDelay + 37*time.Hour),
		base.Add(200 * time.Hour),
		rows[5].reminderTime,
	} {
		var want []int64
		for _, r := range rows {
			if !r.completed && !r.reminderTime.After(now) {
				want = append(want, r.id)
			}
		}

		due, err := repo.ListDueReminders(ctx, now)
		require.NoError(t, err)

		got := make([]int64, 0, len(due))
		for _, d := range due {
			assert.False(t, d.Completed)
			got = append(got, d.ID)
		}
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		if len(want) == 0 {
			assert.Empty(t, got, "now=%v", now)
		} else {
			assert.Equal(t, want, got, "now=%v", now)
		}
	}
}

func testUpdateAssignee(t *testing.T, repo ports.TicketRepository) {
	ctx := context.Background()

	created, err := repo.Insert(ctx, NewTicket(t, "Desk phone broken", base))
	require.NoError(t, err)

	updated, err := repo.UpdateAssignee(ctx, created.ID, "Priya")
	require.NoError(t, err)
	assert.Equal(t, "Priya", updated.Assignee)
	assert.Equal(t, created.TicketNumber, updated.TicketNumber)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Priya", all[0].Assignee)

	_, err = repo.UpdateAssignee(ctx, created.ID+1000, "Priya")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

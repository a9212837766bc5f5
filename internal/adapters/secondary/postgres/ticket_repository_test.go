package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-desk/internal/adapters/secondary/storetest"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// newTestRepo empties the tickets table and returns a repository on the shared pool.
func newTestRepo(t *testing.T) ports.TicketRepository {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE tickets`)
	require.NoError(t, err)
	return NewTicketRepository(testPool)
}

func TestTicketRepository_Contract(t *testing.T) {
	storetest.Run(t, newTestRepo)
}

func TestMigrate_IsRepeatable(t *testing.T) {
	connStr := testPool.Config().ConnString()
	assert.NoError(t, Migrate(connStr), "a second run reports no change")
}

func TestTicketRepository_RejectsReminderBeforeCreation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ticket := storetest.NewTicket(t, "bad times", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	ticket.ReminderTime = ticket.CreatedAt

	_, err := repo.Insert(ctx, ticket)
	var storageErr *apperrors.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-desk/internal/adapters/secondary/storetest"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

func setupTicketRepository(t *testing.T) *TicketRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tickets.db")
	repo, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestTicketRepository_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.TicketRepository {
		return setupTicketRepository(t)
	})
}

func TestOpen_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "tickets.db")

	repo, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer repo.Close()

	assert.FileExists(t, path)
}

func TestTicketRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tickets.db")

	repo, err := Open(ctx, path)
	require.NoError(t, err)

	created, err := repo.Insert(ctx, storetest.NewTicket(t, "Badge reader stuck", time.Now()))
	require.NoError(t, err)
	_, err = repo.MarkCompleted(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
	assert.True(t, all[0].Completed)
	assert.Equal(t, created.TicketNumber, all[0].TicketNumber)
}

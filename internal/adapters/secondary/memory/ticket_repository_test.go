package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-desk/internal/adapters/secondary/storetest"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

func TestTicketRepository_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.TicketRepository {
		return NewTicketRepository()
	})
}

func TestTicketRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	created, err := repo.Insert(ctx, storetest.NewTicket(t, "Scanner offline", time.Now()))
	require.NoError(t, err)

	created.Summary = "changed by caller"
	*created.Email = "changed@example.com"

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Scanner offline", all[0].Summary)
	assert.Equal(t, "requester@example.com", *all[0].Email)
}

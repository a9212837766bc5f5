package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/mocks"
	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const operator = "ops@example.com"

func dueTicket(id int64, number, summary string) *domain.Ticket {
	return &domain.Ticket{
		ID:           id,
		TicketNumber: number,
		Summary:      summary,
		CreatedAt:    fixedNow.Add(-72 * time.Hour),
		ReminderTime: fixedNow.Add(-24 * time.Hour),
	}
}

func newReminderService(repo *mocks.MockTicketRepository, notifier *mocks.MockNotifier, lock ports.CycleLock) *services.ReminderService {
	svc := services.NewReminderService(repo, notifier, lock, services.ReminderConfig{
		Recipient:   operator,
		SendTimeout: time.Second,
		Concurrency: 2,
	}, discardLogger())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func TestReminderService_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("sends one reminder per due ticket", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		svc := newReminderService(mockRepo, mockNotifier, nil)

		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{
			dueTicket(1, "TICKET-1", "Printer jammed"),
			dueTicket(2, "TICKET-2", "Wifi down"),
		}, nil)
		mockNotifier.On("Send", mock.Anything, ports.EmailMessage{
			To:      operator,
			Subject: "Reminder: Ticket TICKET-1 is pending",
			Body:    "Ticket TICKET-1 summary: Printer jammed\nPlease complete this ticket.",
		}).Return(ports.DeliveryReceipt{MessageID: "m1"}, nil).Once()
		mockNotifier.On("Send", mock.Anything, ports.EmailMessage{
			To:      operator,
			Subject: "Reminder: Ticket TICKET-2 is pending",
			Body:    "Ticket TICKET-2 summary: Wifi down\nPlease complete this ticket.",
		}).Return(ports.DeliveryReceipt{MessageID: "m2"}, nil).Once()

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, ports.CycleReport{Due: 2, Sent: 2}, report)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("no due tickets sends nothing", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		svc := newReminderService(mockRepo, mockNotifier, nil)

		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{}, nil)

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, ports.CycleReport{}, report)
		mockNotifier.AssertNumberOfCalls(t, "Send", 0)
	})

	t.Run("one failure does not stop the others", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		svc := newReminderService(mockRepo, mockNotifier, nil)

		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{
			dueTicket(1, "TICKET-1", "a"),
			dueTicket(2, "TICKET-2", "b"),
			dueTicket(3, "TICKET-3", "c"),
		}, nil)
		mockNotifier.On("Send", mock.Anything, mock.MatchedBy(func(msg ports.EmailMessage) bool {
			return msg.Subject == "Reminder: Ticket TICKET-2 is pending"
		})).Return(ports.DeliveryReceipt{}, errors.New("smtp 421"))
		mockNotifier.On("Send", mock.Anything, mock.Anything).Return(ports.DeliveryReceipt{}, nil)

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, 3, report.Due)
		assert.Equal(t, 2, report.Sent)
		assert.Equal(t, 1, report.Failed)
		mockNotifier.AssertNumberOfCalls(t, "Send", 3)
	})

	t.Run("tickets are never mutated", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		svc := newReminderService(mockRepo, mockNotifier, nil)

		ticket := dueTicket(1, "TICKET-1", "a")
		before := *ticket
		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{ticket}, nil)
		mockNotifier.On("Send", mock.Anything, mock.Anything).Return(ports.DeliveryReceipt{}, nil)

		svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, before, *ticket)
		mockRepo.AssertNumberOfCalls(t, "MarkCompleted", 0)
		mockRepo.AssertNumberOfCalls(t, "UpdateAssignee", 0)
	})

	t.Run("storage failure ends the cycle quietly", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		svc := newReminderService(mockRepo, mockNotifier, nil)

		mockRepo.On("ListDueReminders", ctx, fixedNow).
			Return(nil, apperrors.NewStorageError("list due reminders", errors.New("down")))

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, ports.CycleReport{}, report)
		mockNotifier.AssertNumberOfCalls(t, "Send", 0)
	})

	t.Run("skips when another replica holds the lock", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		mockLock := mocks.NewMockCycleLock()
		svc := newReminderService(mockRepo, mockNotifier, mockLock)

		mockLock.On("TryAcquire", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
			Return(nil, false, nil)

		report := svc.RunCycle(ctx, fixedNow)

		assert.True(t, report.Skipped)
		mockRepo.AssertNumberOfCalls(t, "ListDueReminders", 0)
	})

	t.Run("keeps the slot claimed after a finished cycle", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		mockLock := mocks.NewMockCycleLock()
		svc := newReminderService(mockRepo, mockNotifier, mockLock)

		released := false
		release := func(context.Context) error {
			released = true
			return nil
		}
		mockLock.On("TryAcquire", ctx, "ticket-desk:reminder-cycle:2026-05-01T09:00:00Z", mock.Anything).
			Return(release, true, nil)
		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{dueTicket(1, "TICKET-1", "a")}, nil)
		mockNotifier.On("Send", mock.Anything, mock.Anything).Return(ports.DeliveryReceipt{}, nil)

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, ports.CycleReport{Due: 1, Sent: 1}, report)
		assert.False(t, released)
		mockLock.AssertExpectations(t)
	})

	t.Run("releases the slot when listing fails", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		mockLock := mocks.NewMockCycleLock()
		svc := newReminderService(mockRepo, mockNotifier, mockLock)

		released := false
		release := func(context.Context) error {
			released = true
			return nil
		}
		mockLock.On("TryAcquire", ctx, mock.Anything, mock.Anything).Return(release, true, nil)
		mockRepo.On("ListDueReminders", ctx, fixedNow).
			Return(nil, apperrors.NewStorageError("list due reminders", errors.New("down")))

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, ports.CycleReport{}, report)
		assert.True(t, released)
	})

	t.Run("lock errors run the cycle unlocked", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		mockLock := mocks.NewMockCycleLock()
		svc := newReminderService(mockRepo, mockNotifier, mockLock)

		mockLock.On("TryAcquire", ctx, mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))
		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{dueTicket(1, "TICKET-1", "a")}, nil)
		mockNotifier.On("Send", mock.Anything, mock.Anything).Return(ports.DeliveryReceipt{}, nil)

		report := svc.RunCycle(ctx, fixedNow)

		assert.Equal(t, ports.CycleReport{Due: 1, Sent: 1}, report)
	})

	t.Run("repeat cycles remind again", func(t *testing.T) {
		mockRepo := mocks.NewMockTicketRepository()
		mockNotifier := mocks.NewMockNotifier()
		svc := newReminderService(mockRepo, mockNotifier, nil)

		mockRepo.On("ListDueReminders", ctx, fixedNow).Return([]*domain.Ticket{dueTicket(1, "TICKET-1", "a")}, nil)
		mockNotifier.On("Send", mock.Anything, mock.Anything).Return(ports.DeliveryReceipt{}, nil)

		svc.RunCycle(ctx, fixedNow)
		svc.RunCycle(ctx, fixedNow.Add(time.Hour))

		mockNotifier.AssertNumberOfCalls(t, "Send", 2)
	})
}

func TestSlotKey(t *testing.T) {
	local := time.FixedZone("CEST", 2*60*60)

	assert.Equal(t, "ticket-desk:reminder-cycle:2026-05-01T09:00:00Z", services.SlotKey(fixedNow))
	assert.Equal(t, services.SlotKey(fixedNow), services.SlotKey(fixedNow.In(local)))
	assert.NotEqual(t, services.SlotKey(fixedNow), services.SlotKey(fixedNow.Add(time.Minute)))
}

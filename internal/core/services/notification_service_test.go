package services_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/mocks"
	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_SendEmail(t *testing.T) {
	ctx := context.Background()
	msg := ports.EmailMessage{To: "user@example.com", Subject: "Ticket In-Progress", Body: "We are on it."}

	t.Run("success returns the receipt", func(t *testing.T) {
		mockNotifier := mocks.NewMockNotifier()
		svc := services.NewNotificationService(mockNotifier, discardLogger())

		mockNotifier.On("Send", ctx, msg).Return(ports.DeliveryReceipt{MessageID: "<abc@host>", Response: "250 OK"}, nil)

		receipt, err := svc.SendEmail(ctx, msg)

		require.NoError(t, err)
		assert.Equal(t, "<abc@host>", receipt.MessageID)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("failure is a delivery error", func(t *testing.T) {
		mockNotifier := mocks.NewMockNotifier()
		svc := services.NewNotificationService(mockNotifier, discardLogger())

		mockNotifier.On("Send", ctx, msg).Return(ports.DeliveryReceipt{}, errors.New("auth rejected"))

		_, err := svc.SendEmail(ctx, msg)

		var deliveryErr *apperrors.DeliveryError
		require.ErrorAs(t, err, &deliveryErr)
		assert.Equal(t, "user@example.com", deliveryErr.To)
	})

	t.Run("missing recipient", func(t *testing.T) {
		mockNotifier := mocks.NewMockNotifier()
		svc := services.NewNotificationService(mockNotifier, discardLogger())

		_, err := svc.SendEmail(ctx, ports.EmailMessage{Subject: "s"})

		assert.ErrorIs(t, err, apperrors.ErrRecipientRequired)
		mockNotifier.AssertNumberOfCalls(t, "Send", 0)
	})

	t.Run("missing subject", func(t *testing.T) {
		mockNotifier := mocks.NewMockNotifier()
		svc := services.NewNotificationService(mockNotifier, discardLogger())

		_, err := svc.SendEmail(ctx, ports.EmailMessage{To: "user@example.com"})

		assert.ErrorIs(t, err, apperrors.ErrSubjectRequired)
	})
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// NotificationService sends ad hoc email on behalf of the operator.
type NotificationService struct {
	notifier ports.Notifier
	logger   *slog.Logger
}

var _ ports.NotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new notification service
func NewNotificationService(notifier ports.Notifier, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notifier: notifier,
		logger:   logger.With("component", "notification_service"),
	}
}

// SendEmail delivers msg. Delivery failures are returned as *DeliveryError.
func (s *NotificationService) SendEmail(ctx context.Context, msg ports.EmailMessage) (ports.DeliveryReceipt, error) {
	if strings.TrimSpace(msg.To) == "" {
		return ports.DeliveryReceipt{}, apperrors.ErrRecipientRequired
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return ports.DeliveryReceipt{}, apperrors.ErrSubjectRequired
	}

	receipt, err := s.notifier.Send(ctx, msg)
	if err != nil {
		var deliveryErr *apperrors.DeliveryError
		if !errors.As(err, &deliveryErr) {
			err = apperrors.NewDeliveryError(msg.To, err)
		}
		return ports.DeliveryReceipt{}, err
	}

	s.logger.InfoContext(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return receipt, nil
}

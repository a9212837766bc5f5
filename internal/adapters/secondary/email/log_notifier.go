package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// LogNotifier is a secondary adapter that logs emails instead of sending them.
// It is used in development when no SMTP credentials are configured.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a new logging notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.With("component", "email_notifier"),
	}
}

// Send logs the message and reports it as accepted.
func (n *LogNotifier) Send(ctx context.Context, msg ports.EmailMessage) (ports.DeliveryReceipt, error) {
	if err := ctx.Err(); err != nil {
		return ports.DeliveryReceipt{}, err
	}

	messageID := "<" + uuid.NewString() + "@localhost>"
	n.logger.InfoContext(ctx, "mock email sent",
		"to", msg.To,
		"subject", msg.Subject,
		"message_id", messageID,
	)
	return ports.DeliveryReceipt{MessageID: messageID, Response: "logged"}, nil
}

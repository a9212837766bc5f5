package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// SMTPConfig holds the mail server settings. Username doubles as the sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPNotifier delivers email through an authenticated SMTP server.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a new SMTP notifier.
func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger.With("component", "smtp_notifier"),
	}
}

// Send delivers msg. Any failure is returned as *DeliveryError.
func (n *SMTPNotifier) Send(ctx context.Context, msg ports.EmailMessage) (ports.DeliveryReceipt, error) {
	m, err := n.buildMessage(msg)
	if err != nil {
		return ports.DeliveryReceipt{}, apperrors.NewDeliveryError(msg.To, err)
	}

	client, err := mail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return ports.DeliveryReceipt{}, apperrors.NewDeliveryError(msg.To, fmt.Errorf("create smtp client: %w", err))
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return ports.DeliveryReceipt{}, apperrors.NewDeliveryError(msg.To, err)
	}

	receipt := ports.DeliveryReceipt{Response: "250 accepted"}
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		receipt.MessageID = ids[0]
	}
	n.logger.DebugContext(ctx, "smtp delivery accepted", "to", msg.To, "message_id", receipt.MessageID)
	return receipt, nil
}

func (n *SMTPNotifier) buildMessage(msg ports.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.cfg.Username, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.SetMessageID()
	m.SetDate()
	return m, nil
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(n.cfg.Timeout),
	}
	if n.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if n.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	return opts
}

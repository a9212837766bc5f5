package email

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	receipt, err := n.Send(context.Background(), ports.EmailMessage{
		To:      "ops@example.com",
		Subject: "Reminder: Ticket TICKET-1 is pending",
		Body:    "body",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, receipt.MessageID)
	assert.Contains(t, buf.String(), "ops@example.com")
	assert.Contains(t, buf.String(), "Reminder: Ticket TICKET-1 is pending")
}

func TestLogNotifier_CancelledContext(t *testing.T) {
	n := NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Send(ctx, ports.EmailMessage{To: "ops@example.com", Subject: "s"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPNotifier_BuildMessage(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{
		Host:     "smtp.example.com",
		Username: "desk@example.com",
		Password: "secret",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	m, err := n.buildMessage(ports.EmailMessage{
		To:      "user@example.com",
		Subject: "Ticket In-Progress",
		Body:    "We are working on your ticket.",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"<desk@example.com>"}, m.GetFromString())
	assert.Equal(t, []string{"<user@example.com>"}, m.GetToString())
	assert.Equal(t, []string{"Ticket In-Progress"}, m.GetGenHeader(mail.HeaderSubject))
	assert.NotEmpty(t, m.GetGenHeader(mail.HeaderMessageID))

	var raw bytes.Buffer
	_, err = m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "We are working on your ticket.")
}

func TestSMTPNotifier_InvalidRecipient(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Username: "desk@example.com"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := n.Send(context.Background(), ports.EmailMessage{To: "not an address", Subject: "s"})

	var deliveryErr *apperrors.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "not an address", deliveryErr.To)
}

func TestSMTPNotifier_UnreachableServer(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     1,
		Username: "desk@example.com",
		Password: "secret",
		Timeout:  time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := n.Send(context.Background(), ports.EmailMessage{To: "user@example.com", Subject: "s", Body: "b"})

	var deliveryErr *apperrors.DeliveryError
	assert.ErrorAs(t, err, &deliveryErr)
}

package ports

import (
	"context"
	"time"

	"github.com/lorrc/ticket-desk/internal/core/domain"
)

// CreateTicketParams defines the input for creating a new ticket.
type CreateTicketParams struct {
	Description         string
	Email               string
	Phone               string
	BypassSummarization bool
}

// EnrichParams defines the input for a summarizer preview.
type EnrichParams struct {
	Description string
	Email       string
	Phone       string
	Bypass      bool
}

// ReassignTicketParams defines the input for changing a ticket's owner.
type ReassignTicketParams struct {
	TicketID int64
	Assignee string
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	CompleteTicket(ctx context.Context, ticketID int64) error
	ListTickets(ctx context.Context) ([]*domain.Ticket, error)
	ReassignTicket(ctx context.Context, params ReassignTicketParams) (*domain.Ticket, error)
	Enrich(ctx context.Context, params EnrichParams) (domain.Enrichment, error)
}

// CycleReport summarizes one reminder cycle.
type CycleReport struct {
	Due    int
	Sent   int
	Failed int
	// Skipped is set when another replica already claimed the slot.
	Skipped bool
}

// ReminderService scans for overdue tickets and notifies the operator.
// slot identifies the scheduled activation being served; replicas firing
// for the same slot send at most one round of reminders between them.
type ReminderService interface {
	RunCycle(ctx context.Context, slot time.Time) CycleReport
}

// SummarizeInput is the text handed to the summarizer.
type SummarizeInput struct {
	Description string
	Email       string
	Phone       string
}

// Summarizer condenses ticket text through an external language model.
type Summarizer interface {
	Condense(ctx context.Context, input SummarizeInput) (domain.Enrichment, error)
}

// EmailMessage is a single outbound email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// DeliveryReceipt describes an accepted message.
type DeliveryReceipt struct {
	MessageID string `json:"messageId,omitempty"`
	Response  string `json:"response,omitempty"`
}

// Notifier defines the port for sending email.
type Notifier interface {
	Send(ctx context.Context, msg EmailMessage) (DeliveryReceipt, error)
}

// NotificationService sends ad hoc email independent of ticket state.
type NotificationService interface {
	SendEmail(ctx context.Context, msg EmailMessage) (DeliveryReceipt, error)
}

// EventBroadcaster pushes ticket events to connected clients.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

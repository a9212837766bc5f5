package domain

import "fmt"

// Reminder is the message sent for an overdue, incomplete ticket.
type Reminder struct {
	TicketID int64
	Subject  string
	Body     string
}

// NewReminder formats the reminder for a ticket.
func NewReminder(t *Ticket) Reminder {
	return Reminder{
		TicketID: t.ID,
		Subject:  fmt.Sprintf("Reminder: Ticket %s is pending", t.TicketNumber),
		Body:     fmt.Sprintf("Ticket %s summary: %s\nPlease complete this ticket.", t.TicketNumber, t.Summary),
	}
}

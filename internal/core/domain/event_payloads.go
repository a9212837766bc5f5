package domain

// TicketSnapshot matches the API response shape for tickets.
type TicketSnapshot struct {
	ID           int64   `json:"id"`
	Description  string  `json:"description"`
	Summary      string  `json:"summary"`
	TicketNumber string  `json:"ticketNumber"`
	CreatedAt    int64   `json:"createdAt"`
	ReminderTime int64   `json:"reminderTime"`
	Completed    int     `json:"completed"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Assignee     string  `json:"assignee"`
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
// Timestamps are epoch milliseconds and completed is 0 or 1, as the
// browser client expects.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	completed := 0
	if ticket.Completed {
		completed = 1
	}

	return TicketSnapshot{
		ID:           ticket.ID,
		Description:  ticket.Description,
		Summary:      ticket.Summary,
		TicketNumber: ticket.TicketNumber,
		CreatedAt:    ticket.CreatedAt.UnixMilli(),
		ReminderTime: ticket.ReminderTime.UnixMilli(),
		Completed:    completed,
		Email:        ticket.Email,
		Phone:        ticket.Phone,
		Assignee:     ticket.Assignee,
	}
}

// CompletedSnapshot is the payload of a completion event. The store does not
// return the row on completion, so only the id travels.
type CompletedSnapshot struct {
	ID int64 `json:"id"`
}

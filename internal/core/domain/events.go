package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated    EventType = "TICKET_CREATED"
	EventTicketCompleted  EventType = "TICKET_COMPLETED"
	EventTicketReassigned EventType = "TICKET_REASSIGNED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type     EventType   `json:"type"`
	Payload  interface{} `json:"payload"`
	TicketID int64       `json:"ticketId"`
}

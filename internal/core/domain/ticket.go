package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
)

const (
	// ReminderDelay is the fixed interval between creation and the first reminder.
	ReminderDelay = 48 * time.Hour

	// MaxSummaryLength is the number of characters kept by the truncation fallback.
	MaxSummaryLength = 100

	// SummaryEllipsis is appended to a truncated summary.
	SummaryEllipsis = "..."

	// TicketNumberPrefix precedes the millisecond timestamp in a ticket number.
	TicketNumberPrefix = "TICKET-"

	// DefaultAssignee owns new tickets until they are reassigned.
	DefaultAssignee = "Kevin"

	MaxDescriptionLength = 10000
	MaxAssigneeLength    = 100
)

// Ticket is the core domain entity.
type Ticket struct {
	ID           int64
	Description  string
	Summary      string
	TicketNumber string
	CreatedAt    time.Time
	ReminderTime time.Time
	Completed    bool
	Email        *string
	Phone        *string
	Assignee     string
}

// TicketParams holds the validated input for building a new ticket.
type TicketParams struct {
	Description string
	Summary     string
	Email       string
	Phone       string
	Assignee    string
	Now         time.Time
}

// NewTicket is a factory function to create a valid new ticket.
// The summary must already be derived; an empty one falls back to truncation.
func NewTicket(params TicketParams) (*Ticket, error) {
	if strings.TrimSpace(params.Description) == "" {
		return nil, apperrors.ErrDescriptionRequired
	}
	if utf8.RuneCountInString(params.Description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}

	assignee := strings.TrimSpace(params.Assignee)
	if assignee == "" {
		assignee = DefaultAssignee
	}

	summary := params.Summary
	if strings.TrimSpace(summary) == "" {
		summary = TruncateSummary(params.Description)
	}

	createdAt := params.Now.UTC().Truncate(time.Millisecond)

	return &Ticket{
		Description:  params.Description,
		Summary:      summary,
		TicketNumber: NewTicketNumber(createdAt),
		CreatedAt:    createdAt,
		ReminderTime: createdAt.Add(ReminderDelay),
		Email:        optional(params.Email),
		Phone:        optional(params.Phone),
		Assignee:     assignee,
	}, nil
}

// TruncateSummary keeps the first MaxSummaryLength characters of text and
// appends SummaryEllipsis when anything was cut.
func TruncateSummary(text string) string {
	if utf8.RuneCountInString(text) <= MaxSummaryLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxSummaryLength]) + SummaryEllipsis
}

// NewTicketNumber derives the human-readable ticket number from a timestamp.
func NewTicketNumber(at time.Time) string {
	return TicketNumberPrefix + strconv.FormatInt(at.UnixMilli(), 10)
}

// Complete marks the ticket as done. Completing twice has no further effect.
func (t *Ticket) Complete() {
	t.Completed = true
}

// Reassign changes the human owner of the ticket.
func (t *Ticket) Reassign(assignee string) error {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return apperrors.ErrAssigneeRequired
	}
	if utf8.RuneCountInString(assignee) > MaxAssigneeLength {
		return apperrors.ErrAssigneeTooLong
	}
	t.Assignee = assignee
	return nil
}

// IsDue reports whether a reminder should be sent for the ticket at now.
func (t *Ticket) IsDue(now time.Time) bool {
	return !t.Completed && !t.ReminderTime.After(now)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

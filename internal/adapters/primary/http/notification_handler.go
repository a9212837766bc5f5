package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/ticket-desk/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

const maxSubjectLength = 998

// NotificationHandler handles ad hoc email requests.
type NotificationHandler struct {
	notificationService ports.NotificationService
	errorHandler        *ErrorHandler
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notificationService ports.NotificationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		errorHandler:        errorHandler,
		logger:              logger.With("handler", "notification"),
	}
}

// RegisterRoutes registers the email routes.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/send-email", h.HandleSendEmail)
}

// SendEmailRequest defines the expected JSON body for sending an email
type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Validate validates the send email request
func (r *SendEmailRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("to", r.To).Email("to", r.To)
	v.Required("subject", r.Subject).MaxLength("subject", r.Subject, maxSubjectLength)

	return v.Err()
}

// HandleSendEmail handles POST /api/send-email. Delivery failures answer 502.
func (h *NotificationHandler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[SendEmailRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	receipt, err := h.notificationService.SendEmail(r.Context(), ports.EmailMessage{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Text,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, receipt)
}

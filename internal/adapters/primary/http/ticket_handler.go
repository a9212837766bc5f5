package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/ticket-desk/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-desk/internal/core/domain"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

const maxPhoneLength = 50

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService ports.TicketService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tickets", h.HandleListTickets)
	r.Post("/create-ticket", h.HandleCreateTicket)
	r.Post("/complete-ticket/{ticketID}", h.HandleCompleteTicket)
	r.Post("/reassign-ticket/{ticketID}", h.HandleReassignTicket)
	r.Post("/ai-process", h.HandleEnrich)
}

// --- Request DTOs ---

// TicketInput is the body shared by ticket creation and the summarizer preview.
type TicketInput struct {
	Description string `json:"description"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	NoAI        bool   `json:"noAI"`
}

// Validate trims the contact fields and validates the ticket input.
func (r *TicketInput) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	v := validation.NewValidator()

	v.Required("description", r.Description).
		MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.Email("email", r.Email)
	v.MaxLength("phone", r.Phone, maxPhoneLength)

	return v.Err()
}

// ReassignTicketRequest defines the expected JSON body for reassigning a ticket
type ReassignTicketRequest struct {
	Assignee string `json:"assignee"`
}

// Validate validates the reassign request
func (r *ReassignTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("assignee", r.Assignee).
		MaxLength("assignee", r.Assignee, domain.MaxAssigneeLength)

	return v.Err()
}

func toSnapshots(tickets []*domain.Ticket) []domain.TicketSnapshot {
	response := make([]domain.TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, domain.NewTicketSnapshot(ticket))
	}
	return response
}

// --- Handlers ---

// HandleListTickets handles GET /api/tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.ticketService.ListTickets(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toSnapshots(tickets))
}

// HandleCreateTicket handles POST /api/create-ticket
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[TicketInput](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), ports.CreateTicketParams{
		Description:         req.Description,
		Email:               req.Email,
		Phone:               req.Phone,
		BypassSummarization: req.NoAI,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ticket created",
		"ticket_id", ticket.ID,
		"ticket_number", ticket.TicketNumber,
	)

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleCompleteTicket handles POST /api/complete-ticket/{ticketID}
func (h *TicketHandler) HandleCompleteTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := validation.ParseID("ticketID", chi.URLParam(r, "ticketID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.ticketService.CompleteTicket(r.Context(), ticketID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ticket completed", "ticket_id", ticketID)

	WriteSuccess(w, nil)
}

// HandleReassignTicket handles POST /api/reassign-ticket/{ticketID}
func (h *TicketHandler) HandleReassignTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := validation.ParseID("ticketID", chi.URLParam(r, "ticketID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeJSON[ReassignTicketRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.ReassignTicket(r.Context(), ports.ReassignTicketParams{
		TicketID: ticketID,
		Assignee: req.Assignee,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ticket reassigned",
		"ticket_id", ticketID,
		"assignee", ticket.Assignee,
	)

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleEnrich handles POST /api/ai-process. Summarizer trouble never
// surfaces here; the service substitutes a fallback.
func (h *TicketHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[TicketInput](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	enrichment, err := h.ticketService.Enrich(r.Context(), ports.EnrichParams{
		Description: req.Description,
		Email:       req.Email,
		Phone:       req.Phone,
		Bypass:      req.NoAI,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, enrichment)
}

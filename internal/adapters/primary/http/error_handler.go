package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/ticket-desk/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	// Check for ValidationErrors
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err, requestID)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	// AppErrors carry their own response; everything else is mapped.
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = h.mapDomainError(err)
	}

	h.logError(r, appErr.StatusCode, err, requestID)
	h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// mapDomainError converts domain errors to an AppError
func (h *ErrorHandler) mapDomainError(err error) *apperrors.AppError {
	var storageErr *apperrors.StorageError
	var deliveryErr *apperrors.DeliveryError

	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound):
		appErr := apperrors.NewNotFoundError(err, "Ticket not found")
		appErr.Code = "TICKET_NOT_FOUND"
		return appErr

	// Validation errors
	case errors.Is(err, apperrors.ErrDescriptionRequired),
		errors.Is(err, apperrors.ErrDescriptionTooLong),
		errors.Is(err, apperrors.ErrAssigneeRequired),
		errors.Is(err, apperrors.ErrAssigneeTooLong),
		errors.Is(err, apperrors.ErrInvalidTicketID),
		errors.Is(err, apperrors.ErrRecipientRequired),
		errors.Is(err, apperrors.ErrSubjectRequired):
		return apperrors.NewValidationError(err, err.Error(), nil)

	case errors.As(err, &deliveryErr):
		return &apperrors.AppError{
			Err:        err,
			Message:    deliveryErr.Error(),
			Code:       "DELIVERY_FAILED",
			StatusCode: http.StatusBadGateway,
		}

	case errors.As(err, &storageErr):
		return &apperrors.AppError{
			Err:        err,
			Message:    "The ticket store is unavailable",
			Code:       "STORAGE_ERROR",
			StatusCode: http.StatusInternalServerError,
		}

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return apperrors.NewRateLimitError()

	// Default to internal server error
	default:
		return apperrors.NewInternalError(err)
	}
}

// NotFound answers unknown API routes in the JSON error format.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Handle(w, r, apperrors.NewNotFoundError(apperrors.ErrNotFound, "Route not found"))
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error, requestID string) {
	logAttrs := []any{
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	switch {
	case statusCode >= 500:
		h.logger.Error("server error", logAttrs...)
	case statusCode >= 400:
		h.logger.Warn("client error", logAttrs...)
	default:
		h.logger.Info("request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}

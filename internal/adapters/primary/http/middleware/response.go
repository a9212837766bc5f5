package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
)

// writeAppError writes e in the same JSON shape the handlers use.
func writeAppError(w http.ResponseWriter, e *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}{Error: e.Message, Code: e.Code})
}

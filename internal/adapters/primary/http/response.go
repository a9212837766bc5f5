package http

import (
	"encoding/json"
	"net/http"
)

// SuccessResponse acknowledges a command that returns no entity.
type SuccessResponse struct {
	Success bool `json:"success"`
	Info    any  `json:"info,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The header is already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteCreated writes a created response
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes {"success":true} with optional info.
func WriteSuccess(w http.ResponseWriter, info any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Info: info})
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/realm"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, realm.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
	case errors.Is(err, realm.ErrTypeNotInSchema):
		WriteError(w, http.StatusNotFound, "unknown_class", "Class not in schema")
	case errors.Is(err, realm.ErrInvalidQuery):
		WriteError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, ErrReadOnly):
		WriteError(w, http.StatusForbidden, "read_only", "Realm is served read only")
	case errors.Is(err, realm.ErrRealmClosed):
		WriteError(w, http.StatusServiceUnavailable, "realm_closed", "Realm is closed")
	default:
		logger.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

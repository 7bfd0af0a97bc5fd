package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/copilotx/copilotx-server/internal/gateway"
	"github.com/copilotx/copilotx-server/internal/model"
)

// ErrorResponse is the standard failure envelope.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
	Tip     string   `json:"tip,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteFromError maps a service error to the HTTP failure class: validation
// errors to 400, missing resources to 404, cross-user access to 403,
// exhausted provider chains to 503 with per-attempt detail, anything else to
// a generic 500. Internal detail stays out of the client payload.
func WriteFromError(w http.ResponseWriter, err error, fallbackMessage string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrForbidden):
		WriteError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, model.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		var attempts *gateway.AttemptErrors
		if errors.As(err, &attempts) {
			WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   http.StatusText(http.StatusInternalServerError),
				Message: fallbackMessage,
				Details: attempts.Details(),
			})
			return
		}
		log.Error().Err(err).Msg(fallbackMessage)
		WriteInternalError(w, fallbackMessage)
	}
}

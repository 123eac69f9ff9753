package handler

import (
	"encoding/json"
	"net/http"

	"smartshop/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError translates a service failure into a transport
// response. Domain errors map by code; anything else is an internal
// failure surfaced with a generic message.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	if derr, ok := model.AsDomainError(err); ok {
		status := http.StatusInternalServerError
		switch derr.Code {
		case model.ErrCodeValidation:
			status = http.StatusBadRequest
		case model.ErrCodeNotFound:
			status = http.StatusNotFound
		case model.ErrCodeInsufficientStock, model.ErrCodeInvalidState:
			status = http.StatusConflict
		case model.ErrCodeForbidden:
			status = http.StatusForbidden
		}
		writeError(w, status, derr.Code, derr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError,
		"an internal error occurred", logger)
}

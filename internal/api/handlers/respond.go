package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
)

// envelope is the wire shape of every response body.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondList(w http.ResponseWriter, count int, data interface{}) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: status < 400, Message: message})
}

// respondError maps a tagged error to its HTTP status and client message.
// Untagged and server-fault errors are logged with the underlying cause and
// surface only a generic message.
func respondError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	respondJSON(w, status, envelope{Success: false, Message: apperr.MessageOf(err)})
}

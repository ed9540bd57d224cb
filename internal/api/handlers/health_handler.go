package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthHandler reports whether the API and its database are reachable.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check pings the database and reports service health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		respondMessage(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	respondMessage(w, http.StatusOK, "Expense Tracker API")
}

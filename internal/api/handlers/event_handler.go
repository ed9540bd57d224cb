package handlers

import (
	"net/http"
	"strconv"

	"github.com/spendtrack/spendtrack-be/internal/auth"
	"github.com/spendtrack/spendtrack-be/internal/services"
)

// EventHandler handles HTTP requests for the activity feed.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get the requester's recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.service.RecentForUser(userID, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respondList(w, len(events), events)
}

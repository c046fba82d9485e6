package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-sentry/internal/database"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventsHandler serves the attendance log.
type EventsHandler struct {
	store database.EventStore
}

func NewEventsHandler(store database.EventStore) *EventsHandler {
	return &EventsHandler{store: store}
}

// List returns recent attendance events, newest first. Supports ?limit=N.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.store.RecentEvents(r.Context(), limit)
	if err != nil {
		log.Printf("failed to list events: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []database.AttendanceEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

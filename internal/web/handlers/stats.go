package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// PipelineStatus is a point-in-time snapshot of one camera pipeline, reported
// by whatever drives the frame loop.
type PipelineStatus struct {
	CameraID  string `json:"camera_id"`
	EventType string `json:"event_type"`
	State     string `json:"state"`
	Running   bool   `json:"running"`
}

// StatusProvider reports the current pipeline state. May be nil when the
// server runs without an attached pipeline.
type StatusProvider interface {
	Status() PipelineStatus
}

// StatsHandler serves aggregate counts and the live pipeline snapshot.
type StatsHandler struct {
	store    database.EventStore
	provider StatusProvider
}

func NewStatsHandler(store database.EventStore, provider StatusProvider) *StatsHandler {
	return &StatsHandler{store: store, provider: provider}
}

// Get returns event counts since a time window (?hours=N, default 24) plus the
// pipeline snapshot when one is attached.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if s := r.URL.Query().Get("hours"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	counts, err := h.store.CountEvents(r.Context(), since)
	if err != nil {
		log.Printf("failed to count events: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count events")
		return
	}

	response := map[string]any{
		"since":  since,
		"counts": counts,
	}
	if h.provider != nil {
		response["pipeline"] = h.provider.Status()
	}

	respondJSON(w, http.StatusOK, response)
}

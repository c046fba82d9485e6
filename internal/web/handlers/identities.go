package handlers

import (
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// IdentitiesHandler serves the enrollment roster.
type IdentitiesHandler struct {
	store database.IdentityStore
}

func NewIdentitiesHandler(store database.IdentityStore) *IdentitiesHandler {
	return &IdentitiesHandler{store: store}
}

type identitySummary struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Captures    int       `json:"captures"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// List returns enrolled identities collapsed to one entry per person. A person
// enrolled from several captures counts each capture, keeps the earliest
// enrollment time, and never exposes raw embeddings.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListIdentities(r.Context())
	if err != nil {
		log.Printf("failed to list identities: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	byID := make(map[string]*identitySummary)
	for _, row := range rows {
		summary, ok := byID[row.IdentityID]
		if !ok {
			summary = &identitySummary{
				IdentityID:  row.IdentityID,
				DisplayName: row.DisplayName,
				EnrolledAt:  row.CreatedAt,
			}
			byID[row.IdentityID] = summary
		}
		summary.Captures++
		if row.CreatedAt.Before(summary.EnrolledAt) {
			summary.EnrolledAt = row.CreatedAt
		}
	}

	identities := make([]identitySummary, 0, len(byID))
	for _, summary := range byID {
		identities = append(identities, *summary)
	}
	sort.Slice(identities, func(i, j int) bool {
		a := database.NormalizeDisplayName(identities[i].DisplayName)
		b := database.NormalizeDisplayName(identities[j].DisplayName)
		if a != b {
			return a < b
		}
		return identities[i].IdentityID < identities[j].IdentityID
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"identities": identities,
		"count":      len(identities),
	})
}

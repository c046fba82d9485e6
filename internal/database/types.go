package database

import (
	"time"
)

// Identity is one enrolled embedding row. A person enrolled from several captures
// (straight, chin up, chin down) has one row per capture sharing the same
// IdentityID, so IdentityID is not unique across rows.
type Identity struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Embedding   []float32 `json:"embedding"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttendanceEvent is one verdict record handed to the event sink.
type AttendanceEvent struct {
	ID          string    `json:"id"`
	EventType   string    `json:"event_type"` // "entry" or "exit"
	IdentityID  string    `json:"identity_id,omitempty"`
	CameraID    string    `json:"camera_id"`
	IsSpoof     bool      `json:"is_spoof"`
	EvidenceURL string    `json:"evidence_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event types written to attendance_logs.
const (
	EventEntry = "entry"
	EventExit  = "exit"
)

// EmbeddingDim is the fixed dimension for face embeddings (512 for ArcFace/buffalo_l).
const EmbeddingDim = 512

// Package events adapts verdict delivery to the attendance store and to
// human-facing announcements.
package events

import (
	"context"
	"fmt"
	"log"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// StoreSink persists verdict events through an attendance store.
type StoreSink struct {
	store database.EventStore
}

func NewStoreSink(store database.EventStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Emit(ctx context.Context, event database.AttendanceEvent) error {
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to store %s event: %w", event.EventType, err)
	}
	return nil
}

// LogSink prints events instead of persisting them. Used when the checkpoint
// runs without a database.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, event database.AttendanceEvent) error {
	label := event.IdentityID
	if label == "" {
		label = "unknown"
	}
	if event.IsSpoof {
		label += " (spoof)"
	}
	log.Printf("event: %s camera=%s identity=%s", event.EventType, event.CameraID, label)
	return nil
}

// LogAnnouncer prints announcements to the process log. A speech synthesizer
// would slot in behind the same interface.
type LogAnnouncer struct{}

func (LogAnnouncer) Announce(message string) {
	log.Printf("announce: %s", message)
}

package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// EventRepository persists attendance events.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// InsertEvent appends one attendance event.
func (r *EventRepository) InsertEvent(ctx context.Context, event database.AttendanceEvent) error {
	identityID := sql.NullString{String: event.IdentityID, Valid: event.IdentityID != ""}
	evidenceURL := sql.NullString{String: event.EvidenceURL, Valid: event.EvidenceURL != ""}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO attendance_logs (id, event_type, identity_id, camera_id, is_spoof, evidence_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.EventType, identityID, event.CameraID, event.IsSpoof, evidenceURL, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting attendance event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (r *EventRepository) RecentEvents(ctx context.Context, limit int) ([]database.AttendanceEvent, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_type, identity_id, camera_id, is_spoof, evidence_url, created_at
		FROM attendance_logs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying attendance events: %w", err)
	}
	defer rows.Close()

	var out []database.AttendanceEvent
	for rows.Next() {
		var event database.AttendanceEvent
		var identityID, evidenceURL sql.NullString
		if err := rows.Scan(&event.ID, &event.EventType, &identityID, &event.CameraID,
			&event.IsSpoof, &evidenceURL, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attendance event: %w", err)
		}
		event.IdentityID = identityID.String
		event.EvidenceURL = evidenceURL.String
		out = append(out, event)
	}

	return out, rows.Err()
}

// CountEvents aggregates events since the given time.
func (r *EventRepository) CountEvents(ctx context.Context, since time.Time) (database.EventCounts, error) {
	var counts database.EventCounts
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(NOT is_spoof AND identity_id IS NOT NULL), 0),
			COALESCE(SUM(is_spoof), 0),
			COALESCE(SUM(NOT is_spoof AND identity_id IS NULL), 0)
		FROM attendance_logs
		WHERE created_at >= ?
	`, since).Scan(&counts.Granted, &counts.Proxy, &counts.Intruder)
	if err != nil {
		return database.EventCounts{}, fmt.Errorf("counting attendance events: %w", err)
	}
	return counts, nil
}

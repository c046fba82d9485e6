package database

import (
	"context"
	"time"
)

// IdentityStore is the persistence contract for enrolled identities.
// Implemented by the postgres and mariadb backends.
type IdentityStore interface {
	// ListIdentities returns every enrolled embedding row in insertion order.
	ListIdentities(ctx context.Context) ([]Identity, error)
	// InsertIdentity appends one embedding row for an identity.
	InsertIdentity(ctx context.Context, row Identity) error
	// DeleteIdentity removes all rows for an identity. Returns the number of
	// rows removed.
	DeleteIdentity(ctx context.Context, identityID string) (int64, error)
}

// EventStore is the persistence contract for attendance events.
type EventStore interface {
	// InsertEvent appends one attendance event.
	InsertEvent(ctx context.Context, event AttendanceEvent) error
	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]AttendanceEvent, error)
	// CountEvents returns event counts since the given time, keyed by
	// (event_type, is_spoof, has_identity) buckets.
	CountEvents(ctx context.Context, since time.Time) (EventCounts, error)
}

// EventCounts aggregates attendance events for the stats endpoint.
type EventCounts struct {
	Granted  int `json:"granted"`
	Proxy    int `json:"proxy"`
	Intruder int `json:"intruder"`
}

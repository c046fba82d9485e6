// Package mock provides in-memory implementations of the store interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// Store is an in-memory IdentityStore and EventStore.
type Store struct {
	mu         sync.RWMutex
	identities []database.Identity
	events     []database.AttendanceEvent

	// Error injection
	ListIdentitiesError error
	InsertIdentityError error
	InsertEventError    error
	RecentEventsError   error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// ListIdentities returns enrolled rows in insertion order.
func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	if s.ListIdentitiesError != nil {
		return nil, s.ListIdentitiesError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Identity, len(s.identities))
	copy(out, s.identities)
	return out, nil
}

// InsertIdentity appends one embedding row.
func (s *Store) InsertIdentity(ctx context.Context, row database.Identity) error {
	if s.InsertIdentityError != nil {
		return s.InsertIdentityError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, row)
	return nil
}

// DeleteIdentity removes all rows for an identity.
func (s *Store) DeleteIdentity(ctx context.Context, identityID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []database.Identity
	var removed int64
	for _, row := range s.identities {
		if row.IdentityID == identityID {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.identities = kept
	return removed, nil
}

// InsertEvent appends one attendance event.
func (s *Store) InsertEvent(ctx context.Context, event database.AttendanceEvent) error {
	if s.InsertEventError != nil {
		return s.InsertEventError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]database.AttendanceEvent, error) {
	if s.RecentEventsError != nil {
		return nil, s.RecentEventsError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.AttendanceEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// CountEvents aggregates events since the given time.
func (s *Store) CountEvents(ctx context.Context, since time.Time) (database.EventCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts database.EventCounts
	for _, e := range s.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		switch {
		case e.IsSpoof:
			counts.Proxy++
		case e.IdentityID == "":
			counts.Intruder++
		default:
			counts.Granted++
		}
	}
	return counts, nil
}

// Events returns a copy of all recorded events in insertion order.
func (s *Store) Events() []database.AttendanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.AttendanceEvent, len(s.events))
	copy(out, s.events)
	return out
}

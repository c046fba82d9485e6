// Package filestore keeps enrolled identities in a single JSON file. It is the
// identity source for checkpoints running without a database; the roster is
// provisioned by enrolling locally or by copying the file onto the device.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// Store is a file-backed IdentityStore. Reads serve from memory; every write
// rewrites the whole file, which is fine at single-site roster sizes.
type Store struct {
	path string

	mu   sync.Mutex
	rows []database.Identity
}

// Open loads the roster file. A missing file is an empty roster, not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.rows); err != nil {
		return nil, fmt.Errorf("failed to parse identity file %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// ListIdentities returns enrolled rows in insertion order.
func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Identity, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// InsertIdentity appends one embedding row and persists the roster.
func (s *Store) InsertIdentity(ctx context.Context, row database.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, row)
	if err := s.save(); err != nil {
		s.rows = s.rows[:len(s.rows)-1]
		return err
	}
	return nil
}

// DeleteIdentity removes all rows for an identity and persists the roster.
func (s *Store) DeleteIdentity(ctx context.Context, identityID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []database.Identity
	var removed int64
	for _, row := range s.rows {
		if row.IdentityID == identityID {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	if removed == 0 {
		return 0, nil
	}

	prev := s.rows
	s.rows = kept
	if err := s.save(); err != nil {
		s.rows = prev
		return 0, err
	}
	return removed, nil
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode identity file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"fmt"
)

// DB is the in-memory enrolled-identity set a verification run matches against.
// It is loaded once at startup and read-only afterwards, so it is safe to share
// across concurrently running pipeline instances without locking. Enrollment
// mutates the backing store, not a live DB; restart (or reload) picks it up.
type DB struct {
	rows []Identity
	dim  int
}

// Load reads every enrolled row from the store and validates dimensions.
// A dimension mismatch between rows, or between the rows and expectDim, is a
// configuration error and fatal. An empty database is valid but useless.
func Load(ctx context.Context, store IdentityStore, expectDim int) (*DB, error) {
	rows, err := store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading identities: %w", err)
	}

	for i, row := range rows {
		if len(row.Embedding) != expectDim {
			return nil, fmt.Errorf(
				"identity %q (row %d) has embedding dimension %d, expected %d",
				row.IdentityID, i, len(row.Embedding), expectDim,
			)
		}
	}

	return &DB{rows: rows, dim: expectDim}, nil
}

// NewDB builds a database directly from rows. Used by tests and the mock store.
func NewDB(rows []Identity, dim int) *DB {
	return &DB{rows: rows, dim: dim}
}

// Rows returns the ordered embedding rows. Callers must not mutate them.
func (db *DB) Rows() []Identity {
	return db.rows
}

// Len returns the number of embedding rows.
func (db *DB) Len() int {
	return len(db.rows)
}

// Dim returns the embedding dimension all rows share.
func (db *DB) Dim() int {
	return db.dim
}

// IdentityCount returns the number of distinct enrolled identities.
func (db *DB) IdentityCount() int {
	seen := make(map[string]struct{}, len(db.rows))
	for _, row := range db.rows {
		seen[row.IdentityID] = struct{}{}
	}
	return len(seen)
}

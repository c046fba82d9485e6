package mariadb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// IdentityRepository persists enrolled identity embeddings as JSON arrays.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// ListIdentities returns every enrolled embedding row in insertion order.
func (r *IdentityRepository) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT identity_id, display_name, embedding, created_at
		FROM identities
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying identities: %w", err)
	}
	defer rows.Close()

	var out []database.Identity
	for rows.Next() {
		var row database.Identity
		var raw []byte
		if err := rows.Scan(&row.IdentityID, &row.DisplayName, &raw, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning identity row: %w", err)
		}
		if err := json.Unmarshal(raw, &row.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding for %q: %w", row.IdentityID, err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// InsertIdentity appends one embedding row for an identity.
func (r *IdentityRepository) InsertIdentity(ctx context.Context, row database.Identity) error {
	raw, err := json.Marshal(row.Embedding)
	if err != nil {
		return fmt.Errorf("encoding embedding for %q: %w", row.IdentityID, err)
	}

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO identities (identity_id, display_name, embedding)
		VALUES (?, ?, ?)
	`, row.IdentityID, row.DisplayName, raw)
	if err != nil {
		return fmt.Errorf("inserting identity %q: %w", row.IdentityID, err)
	}
	return nil
}

// DeleteIdentity removes all embedding rows for an identity.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, identityID string) (int64, error) {
	res, err := r.pool.db.ExecContext(ctx, `
		DELETE FROM identities WHERE identity_id = ?
	`, identityID)
	if err != nil {
		return 0, fmt.Errorf("deleting identity %q: %w", identityID, err)
	}
	return res.RowsAffected()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository persists enrolled identity embeddings.
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
		var vec pgvector.Vector
		if err := rows.Scan(&row.IdentityID, &row.DisplayName, &vec, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning identity row: %w", err)
		}
		row.Embedding = vec.Slice()
		out = append(out, row)
	}

	return out, rows.Err()
}

// InsertIdentity appends one embedding row for an identity.
func (r *IdentityRepository) InsertIdentity(ctx context.Context, row database.Identity) error {
	vec := pgvector.NewVector(row.Embedding)

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO identities (identity_id, display_name, embedding, created_at)
		VALUES ($1, $2, $3, NOW())
	`, row.IdentityID, row.DisplayName, vec)
	if err != nil {
		return fmt.Errorf("inserting identity %q: %w", row.IdentityID, err)
	}
	return nil
}

// DeleteIdentity removes all embedding rows for an identity.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, identityID string) (int64, error) {
	res, err := r.pool.db.ExecContext(ctx, `
		DELETE FROM identities WHERE identity_id = $1
	`, identityID)
	if err != nil {
		return 0, fmt.Errorf("deleting identity %q: %w", identityID, err)
	}
	return res.RowsAffected()
}

// CountIdentities returns the total number of embedding rows.
func (r *IdentityRepository) CountIdentities(ctx context.Context) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&count)
	return count, err
}

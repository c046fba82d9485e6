// Package postgres is the primary persistence backend: enrolled identities with
// pgvector embeddings plus the attendance event log.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-sentry/internal/config"
	_ "github.com/lib/pq"
)

// Pool manages a PostgreSQL connection pool.
type Pool struct {
	db  *sql.DB
	dim int
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Verify connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db, dim: cfg.EmbeddingDim}, nil
}

// DB returns the underlying sql.DB for direct access.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Migrate creates the pgvector extension and the identities and attendance_logs
// tables if they do not exist.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createIdentities := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS identities (
			id           BIGSERIAL PRIMARY KEY,
			identity_id  VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			embedding    vector(%d) NOT NULL,
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, p.dim)
	if _, err := p.db.ExecContext(ctx, createIdentities); err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS identities_identity_id_idx ON identities(identity_id)
	`); err != nil {
		return fmt.Errorf("failed to create identities index: %w", err)
	}

	createEvents := `
		CREATE TABLE IF NOT EXISTS attendance_logs (
			id           VARCHAR(36) PRIMARY KEY,
			event_type   VARCHAR(16) NOT NULL,
			identity_id  VARCHAR(255),
			camera_id    VARCHAR(255) NOT NULL,
			is_spoof     BOOLEAN NOT NULL DEFAULT FALSE,
			evidence_url TEXT,
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	if _, err := p.db.ExecContext(ctx, createEvents); err != nil {
		return fmt.Errorf("failed to create attendance_logs table: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS attendance_logs_created_at_idx ON attendance_logs(created_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create attendance_logs index: %w", err)
	}

	return nil
}

// Package mariadb is an alternative persistence backend for sites that already
// run MariaDB. Embeddings are stored as JSON arrays instead of pgvector columns;
// the matcher works the same either way because matching happens in memory.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	// Timestamp columns scan into time.Time.
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
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

// Migrate creates the identities and attendance_logs tables if they do not exist.
func (p *Pool) Migrate(ctx context.Context) error {
	createIdentities := `
		CREATE TABLE IF NOT EXISTS identities (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			identity_id  VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			embedding    LONGTEXT NOT NULL,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX identities_identity_id_idx (identity_id)
		)
	`
	if _, err := p.db.ExecContext(ctx, createIdentities); err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}

	createEvents := `
		CREATE TABLE IF NOT EXISTS attendance_logs (
			id           VARCHAR(36) PRIMARY KEY,
			event_type   VARCHAR(16) NOT NULL,
			identity_id  VARCHAR(255),
			camera_id    VARCHAR(255) NOT NULL,
			is_spoof     BOOLEAN NOT NULL DEFAULT FALSE,
			evidence_url TEXT,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX attendance_logs_created_at_idx (created_at)
		)
	`
	if _, err := p.db.ExecContext(ctx, createEvents); err != nil {
		return fmt.Errorf("failed to create attendance_logs table: %w", err)
	}

	return nil
}

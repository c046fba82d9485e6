package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kozaktomas/face-sentry/internal/config"
	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/database/mariadb"
	"github.com/kozaktomas/face-sentry/internal/database/postgres"
)

// stores bundles the persistence backends a command needs.
type stores struct {
	identities database.IdentityStore
	events     database.EventStore
	closer     io.Closer
}

func (s *stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openStores connects to PostgreSQL when DATABASE_URL is set, otherwise falls
// back to MariaDB via MARIADB_DSN. Migrations run on every open.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate PostgreSQL schema: %w", err)
		}
		return &stores{
			identities: postgres.NewIdentityRepository(pool),
			events:     postgres.NewEventRepository(pool),
			closer:     pool,
		}, nil
	}

	if cfg.MariaDB.DSN != "" {
		pool, err := mariadb.NewPool(cfg.MariaDB.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MariaDB: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate MariaDB schema: %w", err)
		}
		return &stores{
			identities: mariadb.NewIdentityRepository(pool),
			events:     mariadb.NewEventRepository(pool),
			closer:     pool,
		}, nil
	}

	return nil, errors.New("DATABASE_URL or MARIADB_DSN environment variable is required")
}

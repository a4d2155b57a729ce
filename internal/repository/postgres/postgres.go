package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new PostgreSQL connection pool
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate creates the chunk catalog schema if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS chunks (
  id           UUID PRIMARY KEY,
  user_id      TEXT NOT NULL,
  content      TEXT NOT NULL,
  content_type TEXT NOT NULL DEFAULT 'generic',
  level        INT NOT NULL DEFAULT 0,
  project_id   TEXT NOT NULL DEFAULT '',
  task_id      TEXT NOT NULL DEFAULT '',
  source_ids   TEXT[] NOT NULL DEFAULT '{}',
  analytics    JSONB NOT NULL DEFAULT '{}',
  created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
  updated_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS chunks_user_created_idx
  ON chunks (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS chunks_user_type_idx
  ON chunks (user_id, content_type);
`
	if _, err := db.Pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

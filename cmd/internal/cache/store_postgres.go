package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists cache entries in a Postgres table.
//
// It exists for headless/edge deployments where the agent already has a local
// database and file persistence is undesirable. The pool is owned by the
// caller; Close is a no-op.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore validates the pool and returns a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("cache: nil pool")
	}
	return &PostgresStore{pool: pool, table: "techcare.client_cache"}, nil
}

// Init creates the backing table when it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS techcare;
		CREATE TABLE IF NOT EXISTS `+s.table+` (
			key        text PRIMARY KEY,
			value      jsonb NOT NULL,
			updated_at timestamptz NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("cache: init table: %w", err)
	}
	return nil
}

// Get implements Store. Unreachable backend or bad row reads as a miss.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM `+s.table+` WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		// pgx.ErrNoRows and backend failures alike read as a miss.
		return nil, ErrNotFound
	}
	if len(value) == 0 {
		return nil, ErrNotFound
	}
	return value, nil
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache: upsert entry: %w", err)
	}
	return nil
}

// Remove implements Store.
func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM `+s.table+` WHERE key = $1
	`, key); err != nil {
		return fmt.Errorf("cache: remove entry: %w", err)
	}
	return nil
}

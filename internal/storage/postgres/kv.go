// Package postgres is a storage.KV backed by a single PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/database"
)

// DBTX is the subset of a pgx pool the store uses. *pgxpool.Pool and pgxmock
// pools both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	getQuery    = `SELECT value FROM storefront_kv WHERE key = $1`
	upsertQuery = `INSERT INTO storefront_kv (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	deleteQuery = `DELETE FROM storefront_kv WHERE key = $1`
)

// KV implements storage.KV on the storefront_kv table.
type KV struct {
	db DBTX
}

// New creates a PostgreSQL-backed store.
func New(db DBTX) *KV {
	return &KV{db: db}
}

// Get retrieves the value stored under key.
func (s *KV) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "kv.get", getQuery)
	defer func() { end(err) }()

	var value string
	if err := s.db.QueryRow(ctx, getQuery, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.NotFound(key)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts value under key.
func (s *KV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "kv.set", upsertQuery)
	defer func() { end(err) }()

	if _, err := s.db.Exec(ctx, upsertQuery, key, string(value)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KV) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, "kv.delete", deleteQuery)
	defer func() { end(err) }()

	if _, err := s.db.Exec(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (s *KV) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

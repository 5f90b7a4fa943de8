// Package store implements the persistent data model (C4): tasks, steps,
// variables, jobs and their encrypted-at-rest variable values, backed by
// Postgres via pgx.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by id finds no matching row.
var ErrNotFound = errors.New("resource not found")

// Store wraps a connection pool and the server secret used for
// pgcrypto-backed encryption of job and global variable values.
type Store struct {
	pool   *pgxpool.Pool
	secret string
}

// New constructs a Store backed by pool.
func New(pool *pgxpool.Pool, serverSecret string) *Store {
	return &Store{pool: pool, secret: serverSecret}
}

// Pool exposes the underlying connection pool, for components (such as the
// vault) that share it.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func rowToErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func wrap(action string, err error) error {
	return fmt.Errorf("%s: %w", action, err)
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error, matching the commit-or-revert pattern the original marks
// as a TODO and this implementation actually does.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrap("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

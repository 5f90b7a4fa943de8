// Package vault implements the global-variable store (C8): process-wide
// key/value pairs, encrypted at rest via Postgres' pgcrypto extension,
// mirroring the per-row encryption used for job_variables. The step
// executor does not read from the vault, so the template dataset's global
// namespace is empty when steps render.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConflictPolicy controls what Set does when key already exists.
type ConflictPolicy int

const (
	// Abort fails the write if key already exists.
	Abort ConflictPolicy = iota
	// Update overwrites the existing value for key.
	Update
)

var (
	// ErrNotFound is returned by Get when no variable exists for the key.
	ErrNotFound = errors.New("global variable not found")
	// ErrAlreadyExists is returned by Set with Abort when key already exists.
	ErrAlreadyExists = errors.New("global variable already exists")
)

// Vault reads and writes global_variables, decrypting/encrypting through
// pgp_sym_decrypt/pgp_sym_encrypt keyed by the server secret.
type Vault struct {
	pool   *pgxpool.Pool
	secret string
}

// New constructs a Vault backed by pool, using serverSecret as the pgcrypto
// symmetric key.
func New(pool *pgxpool.Pool, serverSecret string) *Vault {
	return &Vault{pool: pool, secret: serverSecret}
}

// Get returns the decrypted value stored under key.
func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT pgp_sym_decrypt(value, $2) FROM global_variables WHERE key = $1`

	var value string
	err := v.pool.QueryRow(ctx, query, key, v.secret).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying global variable %q: %w", key, err)
	}
	return value, nil
}

// Set stores value, encrypted, under key. With Abort, a pre-existing key
// returns ErrAlreadyExists. With Update, a pre-existing key is overwritten.
func (v *Vault) Set(ctx context.Context, key, value string, onConflict ConflictPolicy) error {
	if onConflict == Update {
		const query = `
			INSERT INTO global_variables (key, value)
			VALUES ($1, pgp_sym_encrypt($2, $3))
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
		if _, err := v.pool.Exec(ctx, query, key, value, v.secret); err != nil {
			return fmt.Errorf("setting global variable %q: %w", key, err)
		}
		return nil
	}

	const query = `INSERT INTO global_variables (key, value) VALUES ($1, pgp_sym_encrypt($2, $3))`
	if _, err := v.pool.Exec(ctx, query, key, value, v.secret); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("setting global variable %q: %w", key, err)
	}
	return nil
}

// List returns every stored key with its decrypted value. The result is a
// map, so it carries no ordering.
func (v *Vault) List(ctx context.Context) (map[string]string, error) {
	const query = `SELECT key, pgp_sym_decrypt(value, $1) FROM global_variables ORDER BY key`

	rows, err := v.pool.Query(ctx, query, v.secret)
	if err != nil {
		return nil, fmt.Errorf("listing global variables: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning global variable: %w", err)
		}
		result[key] = value
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

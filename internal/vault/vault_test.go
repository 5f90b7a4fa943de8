package vault

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// setupTestPool connects to a real Postgres instance for integration testing.
// Vault relies on pgcrypto, which has no in-memory stand-in, so these tests
// skip rather than mock the database.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("AUTOMAAT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("AUTOMAAT_TEST_DATABASE_URL not set, skipping vault integration test")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Skipf("could not connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(context.Background()); err != nil {
		t.Skipf("test database not reachable: %v", err)
	}

	_, err = pool.Exec(context.Background(), `
		CREATE EXTENSION IF NOT EXISTS pgcrypto;
		TRUNCATE global_variables`)
	require.NoError(t, err)

	return pool
}

func TestVault_SetGetList(t *testing.T) {
	pool := setupTestPool(t)
	v := New(pool, "test-secret")
	ctx := context.Background()

	require.NoError(t, v.Set(ctx, "region", "eu-west-1", Abort))

	value, err := v.Get(ctx, "region")
	require.NoError(t, err)
	require.Equal(t, "eu-west-1", value)

	err = v.Set(ctx, "region", "us-east-1", Abort)
	require.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, v.Set(ctx, "region", "us-east-1", Update))
	value, err = v.Get(ctx, "region")
	require.NoError(t, err)
	require.Equal(t, "us-east-1", value)

	all, err := v.List(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"region": "us-east-1"}, all)
}

func TestVault_GetNotFound(t *testing.T) {
	pool := setupTestPool(t)
	v := New(pool, "test-secret")

	_, err := v.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

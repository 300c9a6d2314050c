//go:build integration

package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Integration tests start a throwaway Postgres with testcontainers.
// Run with: go test -tags integration ./cmd/identity/...

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("stibo"),
		postgres.WithUsername("stibo"),
		postgres.WithPassword("stibo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresStore_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	m, err := NewMigrator(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runStoreSuite(t, func(t *testing.T) Store {
		_, err := pool.Exec(ctx, `TRUNCATE stibo.accounts`)
		require.NoError(t, err)

		s, err := NewPostgresStore(pool)
		require.NoError(t, err)
		return s
	})
}

func TestMigrator_DownUp(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	m, err := NewMigrator(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Down(ctx, 0))
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Status(ctx))
}

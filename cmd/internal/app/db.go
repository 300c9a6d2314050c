package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbConnectTimeout  = 3 * time.Second
	dbMaxConnIdleTime = 5 * time.Minute
	dbHealthCheck     = 30 * time.Second
)

// openPostgresPool connects the account store pool and confirms one
// connection can be acquired before the server starts taking traffic.
// Migrations are separate; see identity.Migrator and `authd migrate`.
func openPostgresPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse STIBO_DATABASE_URL: %w", err)
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	pcfg.MinConns = cfg.DBMinConns
	if pcfg.MinConns > pcfg.MaxConns {
		return nil, fmt.Errorf("config: STIBO_DB_MIN_CONNS=%d exceeds max conns %d", pcfg.MinConns, pcfg.MaxConns)
	}
	pcfg.MaxConnIdleTime = dbMaxConnIdleTime
	pcfg.HealthCheckPeriod = dbHealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	conn, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	conn.Release()

	return pool, nil
}

// poolStats renders the pool counters as slog key/value pairs.
func poolStats(pool *pgxpool.Pool) []any {
	st := pool.Stat()
	return []any{
		"max_conns", st.MaxConns(),
		"total_conns", st.TotalConns(),
		"idle_conns", st.IdleConns(),
		"acquired_conns", st.AcquiredConns(),
	}
}

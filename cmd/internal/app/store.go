package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
)

// openStore builds the configured identity.Store. The returned close
// function releases the pool or client the app owns.
func openStore(ctx context.Context, cfg Config, log Logger) (identity.Store, func(), error) {
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case StorePostgres:
		if cfg.DBAutoMigrate {
			m, err := identity.NewMigrator(cfg.DatabaseURL, log)
			if err != nil {
				return nil, nil, err
			}
			if err := m.Up(ctx); err != nil {
				return nil, nil, err
			}
		}

		pool, err := openPostgresPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		st, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("store.select", append([]any{"kind", kind}, poolStats(pool)...)...)
		return st, pool.Close, nil

	case StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}

		var opts []identity.RedisOption
		if cfg.RedisPrefix != "" {
			opts = append(opts, identity.WithKeyPrefix(cfg.RedisPrefix))
		}
		st, err := identity.NewRedisStore(rdb, opts...)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		log.Info("store.select", "kind", kind, "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return st, func() { _ = rdb.Close() }, nil

	default:
		log.Warn("store.select", "kind", kind, "note", "accounts are lost on restart")
		return identity.NewMemoryStore(), func() {}, nil
	}
}

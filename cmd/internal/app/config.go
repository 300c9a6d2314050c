package app

import (
	"fmt"
	"strings"
	"time"
)

// Store backends selectable with STIBO_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Store is one of StoreMemory, StorePostgres or StoreRedis. Empty means
	// pick from whichever connection setting is present.
	Store string

	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	HashWorkers int

	// Security policy:
	// If true, STIBO_JWT_SECRET MUST be at least 32 bytes.
	RequireStrongSecret bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
// Any value that is set but does not parse fails the whole load.
func LoadConfig() (Config, error) {
	var env envReader
	cfg := Config{
		HTTPAddr:  env.String("STIBO_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  env.String("STIBO_LOG_LEVEL", "info"),
		LogFormat: env.String("STIBO_LOG_FORMAT", "json"),

		ReadHeaderTimeout: env.Duration("STIBO_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       env.Duration("STIBO_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      env.Duration("STIBO_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       env.Duration("STIBO_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: env.Int("STIBO_HTTP_MAX_HEADER_BYTES", 1<<20),

		Store: strings.ToLower(env.String("STIBO_STORE", "")),

		DatabaseURL:   env.String("STIBO_DATABASE_URL", ""),
		DBMaxConns:    env.Int32("STIBO_DB_MAX_CONNS", 10),
		DBMinConns:    env.Int32("STIBO_DB_MIN_CONNS", 0),
		DBAutoMigrate: env.Bool("STIBO_DB_AUTO_MIGRATE", false),

		RedisAddr:     env.String("STIBO_REDIS_ADDR", ""),
		RedisPassword: env.String("STIBO_REDIS_PASSWORD", ""),
		RedisDB:       env.Int("STIBO_REDIS_DB", 0),
		RedisPrefix:   env.String("STIBO_REDIS_PREFIX", ""),

		HashWorkers: env.Int("STIBO_HASH_WORKERS", 0),

		RequireStrongSecret: env.Bool("STIBO_REQUIRE_STRONG_SECRET", false),

		CORSAllowedOrigins:   env.List("STIBO_CORS_ALLOWED_ORIGINS"),
		CORSAllowCredentials: env.Bool("STIBO_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    env.Int("STIBO_CORS_MAX_AGE", 600),
	}
	if err := env.Err(); err != nil {
		return Config{}, err
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return Config{}, fmt.Errorf("config: STIBO_LOG_LEVEL=%q is not one of debug, info, warn, error", cfg.LogLevel)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "pretty", "text":
	default:
		return Config{}, fmt.Errorf("config: STIBO_LOG_FORMAT=%q is not one of json, pretty", cfg.LogFormat)
	}
	if _, err := cfg.StoreKind(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// StoreKind resolves the configured backend. Postgres wins over Redis when
// both URLs are set and STIBO_STORE is empty.
func (c Config) StoreKind() (string, error) {
	switch c.Store {
	case "":
		switch {
		case c.DatabaseURL != "":
			return StorePostgres, nil
		case c.RedisAddr != "":
			return StoreRedis, nil
		default:
			return StoreMemory, nil
		}
	case StoreMemory:
		return StoreMemory, nil
	case StorePostgres:
		if c.DatabaseURL == "" {
			return "", fmt.Errorf("config: STIBO_STORE=postgres requires STIBO_DATABASE_URL")
		}
		return StorePostgres, nil
	case StoreRedis:
		if c.RedisAddr == "" {
			return "", fmt.Errorf("config: STIBO_STORE=redis requires STIBO_REDIS_ADDR")
		}
		return StoreRedis, nil
	default:
		return "", fmt.Errorf("config: unknown STIBO_STORE %q", c.Store)
	}
}

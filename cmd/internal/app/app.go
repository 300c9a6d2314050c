// Package app wires the authentication server runtime: config, logging,
// account store selection, HTTP routes and the CLI.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
	authapi "github.com/Jfafa/Stibo-auth/cmd/internal/auth/api"
	"github.com/Jfafa/Stibo-auth/cmd/internal/auth/credential"
	"github.com/Jfafa/Stibo-auth/cmd/security/password"
	"github.com/Jfafa/Stibo-auth/cmd/security/token"
)

// App is the server runtime. It owns the account store and the HTTP handler chain.
type App struct {
	cfg Config
	log Logger

	store      identity.Store
	closeStore func()

	reg     *prometheus.Registry
	handler http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	tokCfg, err := token.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	authCfg, err := authapi.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewService(tokCfg)
	if err != nil {
		return nil, err
	}

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	creds, err := credential.NewService(st, password.NewPool(pwCfg, cfg.HashWorkers), tokens,
		credential.WithTokenTTL(tokens.DefaultTTL()),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	reg := NewRegistry()
	auth, err := authapi.NewHandler(log, authCfg, creds, tokens.Verify,
		authapi.WithMetrics(authapi.NewMetrics(reg)),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, log, st, reg, auth)

	var h http.Handler = mux
	h = WithCORS(h, cfg, log)
	h = WithSecurityHeaders(h)
	h = WithMetrics(h, NewHTTPMetrics(reg))
	h = WithRequestLogging(h, log)
	h = WithRecovery(h, log)

	log.Info("app.ready",
		"hash_workers", cfg.HashWorkers,
		"token_ttl", tokens.DefaultTTL().String(),
		"argon2_memory_kib", pwCfg.Params.MemoryKiB,
	)

	return &App{
		cfg:        cfg,
		log:        log,
		store:      st,
		closeStore: closeStore,
		reg:        reg,
		handler:    h,
	}, nil
}

// Handler returns the full middleware-wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Close releases the store. Run calls it on shutdown.
func (a *App) Close() {
	if a.closeStore != nil {
		a.closeStore()
		a.closeStore = nil
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

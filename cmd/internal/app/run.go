package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
)

var errDatabaseURLRequired = errors.New("STIBO_DATABASE_URL environment variable is required")

// Run is the CLI entrypoint used by cmd/authd.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := NewRootCmd("authd")
	cmd.SetArgs(os.Args[1:])
	return cmd.ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Without a subcommand it serves.
func NewRootCmd(name string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Account registration, login and bearer token service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	a, err := New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the account schema in PostgreSQL",
	}

	var to int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migratorFromEnv()
			if err != nil {
				return err
			}
			return m.Down(cmd.Context(), to)
		},
	}
	down.Flags().Int64Var(&to, "to", 0, "target version (0 rolls back one step)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migratorFromEnv()
				if err != nil {
					return err
				}
				return m.Up(cmd.Context())
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migratorFromEnv()
				if err != nil {
					return err
				}
				return m.Status(cmd.Context())
			},
		},
	)
	return cmd
}

func migratorFromEnv() (identity.Migrator, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return identity.Migrator{}, err
	}
	if cfg.DatabaseURL == "" {
		return identity.Migrator{}, errDatabaseURLRequired
	}
	return identity.NewMigrator(cfg.DatabaseURL, NewLogger(cfg.LogLevel, cfg.LogFormat))
}

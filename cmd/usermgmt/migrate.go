package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/incuna/user-management/internal/infrastructure/config"
	"github.com/incuna/user-management/internal/infrastructure/db/postgres"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Run PostgreSQL schema migrations",
		Long:      `Apply pending migrations (up, the default) or roll back the latest one (down). Only used with DB_DRIVER=postgres.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.DB.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs DB_DRIVER=postgres, got %q", cfg.DB.Driver)
	}

	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	ctx := cmd.Context()
	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.DB.Postgres.DSN, MaxConns: cfg.DB.Postgres.MaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info().Str("direction", direction).Msg("running migrations")
	if direction == "down" {
		err = postgres.MigrateDown(ctx, pool)
	} else {
		err = postgres.MigrateUp(ctx, pool)
	}
	if err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

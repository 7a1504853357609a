package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/incuna/user-management/internal/infrastructure/config"
	"github.com/incuna/user-management/pkg/logger"
)

// NewRootCmd creates the root command of the usermgmt CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usermgmt",
		Short: "User management REST API",
		Long: `usermgmt serves the user-management REST API: registration, email
verification, password reset and change, profiles, avatars and admin users.
Configuration is read from environment variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreateStaffCmd())

	return cmd
}

// setup loads configuration and initialises the process logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "user-management",
	})
	return cfg, log, nil
}

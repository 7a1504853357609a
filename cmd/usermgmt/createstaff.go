package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/core/service"
	"github.com/incuna/user-management/internal/infrastructure/config"
)

type staffOptions struct {
	email    string
	name     string
	password string
}

// NewCreateStaffCmd creates the create-staff subcommand.
func NewCreateStaffCmd() *cobra.Command {
	var opts staffOptions
	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a verified staff account",
		Long:  `Create an active, verified account with staff rights, for bootstrapping the admin endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.DB.Driver == config.DriverMemory {
				return errors.New("create-staff needs a persistent DB_DRIVER")
			}

			in, err := connect(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = in.close() }()

			user, err := createStaff(cmd, in.users, service.NewBcryptHasher(cfg.Auth.BcryptCost), opts)
			if err != nil {
				return err
			}
			cmd.Printf("Created staff user %d <%s>\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func createStaff(cmd *cobra.Command, users ports.UserRepository, hasher ports.PasswordHasher, opts staffOptions) (*domain.User, error) {
	if msg := domain.CheckPasswordPolicy(opts.password); msg != "" {
		return nil, fmt.Errorf("password: %s", msg)
	}
	hash, err := hasher.Hash(opts.password)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	user, err := users.Create(ctx, &domain.User{
		Email:        domain.NormalizeEmail(opts.email),
		Name:         opts.name,
		PasswordHash: hash,
		IsStaff:      true,
		DateJoined:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := users.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	user.IsActive, user.VerifiedEmail = true, true
	return user, nil
}

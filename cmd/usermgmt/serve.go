package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/incuna/user-management/docs"
	"github.com/incuna/user-management/internal/api"
	"github.com/incuna/user-management/internal/core/service"
	"github.com/incuna/user-management/internal/infrastructure/imaging"
	"github.com/incuna/user-management/internal/infrastructure/queue"
	"github.com/incuna/user-management/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. The server drains in-flight requests and queued
mail on SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.close(); err != nil {
			log.Error().Err(err).Msg("close backends")
		}
	}()

	// Workers outlive ctx so Stop can drain the queue after the signal.
	dispatcher := queue.NewDispatcher(queue.Options{
		Workers: cfg.Mail.Workers,
		Buffer:  cfg.Mail.QueueSize,
	}, in.sender, logger.For("mail"))
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	deps := api.Deps{
		Log:  logger.For("http"),
		Auth: service.NewAuthService(in.users, hasher, cfg.Auth.SecretKey, cfg.Auth.JWTTTL),
		Accounts: service.NewAccountService(service.AccountDeps{
			Users:              in.users,
			Hasher:             hasher,
			ResetTokens:        service.NewPasswordResetTokens(tokenOptions(cfg)),
			VerificationTokens: service.NewVerificationTokens(tokenOptions(cfg)),
			Notifier:           dispatcher,
			Throttle:           in.throttle,
			Site:               service.Site{Name: cfg.Site.Name, Domain: cfg.Site.Domain},
		}, logger.For("accounts")),
		Profiles:  service.NewProfileService(in.users, logger.For("profiles")),
		Avatars:   service.NewAvatarService(in.users, in.blobs, imaging.NewResizer(), cfg.Store.MaxAvatarBytes, logger.For("avatars")),
		Users:     service.NewUserService(in.users, in.blobs, logger.For("users")),
		Health:    in.health,
		MediaDir:  in.mediaDir,
		BodyLimit: bodyLimit(cfg.Store.MaxAvatarBytes),
		Swagger:   cfg.Swagger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DB.Driver).Str("storage", cfg.Store.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// bodyLimit leaves a megabyte of headroom over the avatar size for the
// multipart envelope.
func bodyLimit(maxAvatar int64) string {
	if maxAvatar <= 0 {
		return ""
	}
	return fmt.Sprintf("%dK", (maxAvatar+1<<20)/1024)
}

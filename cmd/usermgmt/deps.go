package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/api/handler"
	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/core/service"
	"github.com/incuna/user-management/internal/infrastructure/config"
	"github.com/incuna/user-management/internal/infrastructure/db/memory"
	mongodb "github.com/incuna/user-management/internal/infrastructure/db/mongo"
	"github.com/incuna/user-management/internal/infrastructure/db/postgres"
	redisdb "github.com/incuna/user-management/internal/infrastructure/db/redis"
	"github.com/incuna/user-management/internal/infrastructure/mail"
	"github.com/incuna/user-management/internal/infrastructure/storage"
)

// infra holds the connected backends. close releases them in reverse order.
type infra struct {
	users    ports.UserRepository
	blobs    ports.BlobStorage
	throttle ports.ResetThrottle
	sender   ports.MailSender
	health   map[string]handler.Pinger
	// mediaDir is set when avatars live on local disk.
	mediaDir string
	closers  []func() error
}

func (in *infra) onClose(fn func() error) { in.closers = append(in.closers, fn) }

func (in *infra) close() error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		errs = append(errs, in.closers[i]())
	}
	return errors.Join(errs...)
}

// connect opens every backend selected by cfg. On error, whatever was
// already opened is closed.
func connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *infra, err error) {
	in := &infra{health: make(map[string]handler.Pinger)}
	defer func() {
		if err != nil {
			_ = in.close()
		}
	}()

	if err := in.openStore(ctx, cfg.DB, log); err != nil {
		return nil, err
	}
	if err := in.openStorage(ctx, cfg.Store); err != nil {
		return nil, err
	}
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		in.onClose(client.Close)
		in.throttle = redisdb.NewResetThrottle(client, cfg.Redis.ResetThrottle)
		in.health["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisdb.Ping(ctx, client) })
	} else {
		log.Warn().Msg("REDIS_ADDR not set, reset mails are not throttled")
	}

	if cfg.Mail.ResendAPIKey != "" {
		sender, err := mail.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.From)
		if err != nil {
			return nil, err
		}
		in.sender = sender
	} else {
		log.Warn().Msg("MAIL_RESEND_API_KEY not set, mail is logged instead of sent")
		in.sender = mail.NewLogSender(log.With().Str("component", "mail").Logger())
	}
	return in, nil
}

func (in *infra) openStore(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) error {
	switch cfg.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		in.onClose(func() error { return mongodb.Disconnect(client) })

		repo := mongodb.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		in.users = repo
		in.health["store"] = handler.PingFunc(func(ctx context.Context) error { return mongodb.Ping(ctx, db) })

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return err
		}
		in.onClose(func() error { pool.Close(); return nil })
		in.users = postgres.NewUserRepository(pool)
		in.health["store"] = pool

	case config.DriverMemory:
		log.Warn().Msg("using the in-memory store, accounts are lost on restart")
		in.users = memory.NewUserRepository()

	default:
		return fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
	return nil
}

func (in *infra) openStorage(ctx context.Context, cfg config.StorageConfig) error {
	switch cfg.Driver {
	case config.StorageS3:
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Endpoint:      cfg.S3Endpoint,
			PresignExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			return err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return err
		}
		in.blobs = s3
		in.health["storage"] = s3

	case config.StorageLocal:
		local, err := storage.NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL)
		if err != nil {
			return err
		}
		in.blobs = local
		in.mediaDir = cfg.LocalDir

	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Driver)
	}
	return nil
}

func tokenOptions(cfg *config.Config) service.TokenOptions {
	return service.TokenOptions{
		Secret:    cfg.Auth.SecretKey,
		Fallbacks: cfg.Auth.SecretKeyFallbacks,
		Bucket:    cfg.Auth.TokenBucket,
	}
}

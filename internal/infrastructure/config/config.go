package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	StorageS3    = "s3"
	StorageLocal = "local"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Swagger  bool   `env:"SWAGGER_ENABLED, default=true"`

	Auth  AuthConfig
	Site  SiteConfig
	DB    DBConfig
	Redis RedisConfig
	Mail  MailConfig
	Store StorageConfig
}

type AuthConfig struct {
	// SecretKey signs session JWTs and account-action tokens.
	SecretKey string `env:"SECRET_KEY"`
	// SecretKeyFallbacks are older keys still accepted for action tokens.
	SecretKeyFallbacks []string      `env:"SECRET_KEY_FALLBACKS"`
	JWTTTL             time.Duration `env:"JWT_TTL,      default=24h"`
	TokenBucket        time.Duration `env:"TOKEN_BUCKET, default=24h"`
	BcryptCost         int           `env:"BCRYPT_COST,  default=10"`
}

type SiteConfig struct {
	Name   string `env:"SITE_NAME,   default=User Management"`
	Domain string `env:"SITE_DOMAIN, default=localhost:8080"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER, default=mongo"`
	Mongo    MongoConfig
	Postgres PostgresConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=user_management"`
}

type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN, default=postgres://localhost:5432/user_management?sslmode=disable"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS, default=10"`
}

type RedisConfig struct {
	// Addr empty disables the reset-mail throttle.
	Addr          string        `env:"REDIS_ADDR"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB,       default=0"`
	ResetThrottle time.Duration `env:"RESET_THROTTLE, default=5m"`
}

type MailConfig struct {
	// ResendAPIKey empty selects the log sender.
	ResendAPIKey string `env:"MAIL_RESEND_API_KEY"`
	From         string `env:"MAIL_FROM,    default=no-reply@localhost"`
	Workers      int    `env:"MAIL_WORKERS, default=4"`
	QueueSize    int    `env:"MAIL_QUEUE_SIZE, default=256"`
}

type StorageConfig struct {
	Driver         string        `env:"STORAGE_DRIVER,    default=local"`
	LocalDir       string        `env:"LOCAL_STORAGE_DIR, default=./media"`
	LocalBaseURL   string        `env:"LOCAL_STORAGE_URL, default=http://localhost:8080/media"`
	MaxAvatarBytes int64         `env:"MAX_AVATAR_BYTES,  default=5242880"`
	S3Region       string        `env:"S3_REGION,         default=us-east-1"`
	S3Bucket       string        `env:"S3_BUCKET"`
	S3AccessKey    string        `env:"S3_ACCESS_KEY"`
	S3SecretKey    string        `env:"S3_SECRET_KEY"`
	S3Endpoint     string        `env:"S3_ENDPOINT"`
	S3URLExpiry    time.Duration `env:"S3_URL_EXPIRY,     default=168h"`
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Auth.SecretKey == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("SECRET_KEY is required in production"))
		} else {
			c.Auth.SecretKey = "insecure-development-key"
		}
	}
	switch c.DB.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of mongo, postgres, memory", c.DB.Driver))
	}
	switch c.Store.Driver {
	case StorageLocal:
	case StorageS3:
		if c.Store.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of s3, local", c.Store.Driver))
	}
	if c.Mail.ResendAPIKey == "" && c.IsProduction() {
		errs = append(errs, errors.New("MAIL_RESEND_API_KEY is required in production"))
	}

	return errors.Join(errs...)
}

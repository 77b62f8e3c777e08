// Package config loads server configuration from the environment and
// assembles a ready-to-use ingestion service from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
	memorybroker "github.com/tendant/simple-ingest/pkg/simpleingest/broker/memory"
	natsbroker "github.com/tendant/simple-ingest/pkg/simpleingest/broker/nats"
	"github.com/tendant/simple-ingest/pkg/simpleingest/media"
	memoryrepo "github.com/tendant/simple-ingest/pkg/simpleingest/repo/memory"
	"github.com/tendant/simple-ingest/pkg/simpleingest/repo/postgres"
	fsstorage "github.com/tendant/simple-ingest/pkg/simpleingest/storage/fs"
	memorystorage "github.com/tendant/simple-ingest/pkg/simpleingest/storage/memory"
	s3storage "github.com/tendant/simple-ingest/pkg/simpleingest/storage/s3"
)

// ServerConfig represents server configuration for the simple-ingest service.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Database: empty or "memory" uses the in-memory repository; a
	// postgresql:// URL uses the postgres repository.
	DatabaseURL string `env:"DATABASE_URL"`

	// Storage: "memory", "fs" or "s3".
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"memory"`
	FSBaseDir      string `env:"FS_BASE_DIR" env-default:"./data/media"`
	FSURLPrefix    string `env:"FS_URL_PREFIX" env-default:"http://localhost:8080/media"`

	S3Region        string `env:"S3_REGION"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3AccessKeyID   string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	// Broker: empty uses the in-memory broker; a nats:// URL uses JetStream.
	BrokerURL string `env:"BROKER_URL"`

	// Pipeline tuning.
	MaxMediaBytes     int64    `env:"MAX_MEDIA_BYTES"`
	MaxParallelMedia  int      `env:"MAX_PARALLEL_MEDIA" env-default:"4"`
	PublishAttempts   int      `env:"PUBLISH_ATTEMPTS" env-default:"3"`
	SuspiciousDomains []string `env:"SUSPICIOUS_DOMAINS"`

	// Resilience.
	BreakerFailures    uint32 `env:"BREAKER_FAILURES" env-default:"5"`
	BreakerOpenSeconds int    `env:"BREAKER_OPEN_SECONDS" env-default:"30"`
	IngestAttempts     int    `env:"INGEST_ATTEMPTS" env-default:"2"`
}

// Option applies configuration on top of environment values.
type Option func(*ServerConfig)

// Load constructs a ServerConfig from the environment plus the supplied
// options.
func Load(opts ...Option) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	switch c.StorageBackend {
	case "memory":
	case "fs":
		if c.FSBaseDir == "" {
			return errors.New("fs_base_dir is required for fs storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.DatabaseURL != "" && c.DatabaseURL != "memory" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("unsupported database url %q", c.DatabaseURL)
	}
	return nil
}

// BuildService assembles the full ingestion service from the configuration:
// repository, blob store, broker, media processor, publisher, orchestrator,
// and the resilience wrapper. The returned cleanup function releases any
// connections.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simpleingest.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanup := func() {}

	var repo simpleingest.ContentRepository
	if c.DatabaseURL == "" || c.DatabaseURL == "memory" {
		repo = memoryrepo.New()
	} else {
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		repo = postgres.NewWithPool(pool)
		cleanup = pool.Close
	}

	store, err := c.buildStore(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var broker simpleingest.Broker
	if c.BrokerURL == "" {
		broker = memorybroker.New()
	} else {
		nb, err := natsbroker.New(c.BrokerURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		prev := cleanup
		cleanup = func() {
			_ = nb.Close()
			prev()
		}
		broker = nb
	}

	processor, err := media.NewProcessor(media.Config{
		Store:    store,
		MaxBytes: c.MaxMediaBytes,
		Logger:   logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	publisher := simpleingest.NewPublisher(broker,
		simpleingest.WithPublisherLogger(logger))

	validator := simpleingest.NewValidator(
		simpleingest.WithSuspiciousDomains(c.SuspiciousDomains...))

	svc, err := simpleingest.New(
		simpleingest.WithRepository(repo),
		simpleingest.WithMediaProcessor(processor),
		simpleingest.WithPublisher(publisher),
		simpleingest.WithLinkEnricher(simpleingest.NewLinkFetcher(nil, logger)),
		simpleingest.WithValidator(validator),
		simpleingest.WithLogger(logger),
		simpleingest.WithMaxParallelMedia(c.MaxParallelMedia),
		simpleingest.WithPublishAttempts(c.PublishAttempts),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	resilient := simpleingest.NewResilientService(svc, simpleingest.BreakerSettings{
		ConsecutiveFailures: c.BreakerFailures,
		OpenTimeout:         time.Duration(c.BreakerOpenSeconds) * time.Second,
		MaxAttempts:         c.IngestAttempts,
	}, logger)

	return resilient, cleanup, nil
}

func (c *ServerConfig) buildStore(ctx context.Context) (simpleingest.BlobStore, error) {
	switch c.StorageBackend {
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FSBaseDir,
			URLPrefix: c.FSURLPrefix,
		})
	case "s3":
		return s3storage.New(ctx, s3storage.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			Endpoint:        c.S3Endpoint,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretKey,
			UsePathStyle:    c.S3UsePathStyle,
			PublicBaseURL:   c.S3PublicBaseURL,
		})
	default:
		return memorystorage.New(""), nil
	}
}

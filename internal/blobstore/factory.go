package blobstore

import (
	"context"
	"fmt"
	"log/slog"

	"stationdocs/internal/config"
)

// NewFromConfig builds the backend named by cfg.BlobBackend, wrapped with metrics
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.BlobBackend {
	case "", "memory":
		store = NewMemory()
	case "file":
		store, err = NewFile(cfg.BlobDir)
	case "postgres":
		store, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.TablePrefix, logger)
	case "s3":
		store, err = NewS3(ctx, S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.BlobBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob backend: %w", cfg.BlobBackend, err)
	}

	logger.Info("blob store ready", "backend", store.Type())
	return WithMetrics(store), nil
}

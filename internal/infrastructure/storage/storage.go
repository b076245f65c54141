package storage

import (
	"context"
	"fmt"

	catalogapp "github.com/commerce/backend/internal/application/catalog"
	"github.com/commerce/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New returns the object storage selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (catalogapp.ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalObjectStorage(cfg.LocalDir, cfg.PublicBaseURL)
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			logger.Warn("could not verify storage bucket", zap.String("bucket", s.Bucket()), zap.Error(err))
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

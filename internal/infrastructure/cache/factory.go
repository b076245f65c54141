package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the cache backends chosen at startup
type Stores struct {
	// Redis is nil when running on in-memory backends
	Redis        *redis.Client
	Idempotency  shared.IdempotencyStore
	SessionCache SessionCache
}

// NewRateLimiter returns a Redis backed limiter when Redis is connected and
// an in-memory one otherwise
func (s *Stores) NewRateLimiter(name string, limit int, window time.Duration) RateLimiter {
	if s.Redis != nil {
		return NewRedisRateLimiter(s.Redis, "ratelimit:"+name+":", limit, window)
	}
	return NewFixedWindowLimiter(limit, window)
}

// Close releases the stores and the Redis client
func (s *Stores) Close() error {
	_ = s.Idempotency.Close()
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

// NewStores connects to Redis when enabled and falls back to in-memory
// backends otherwise. In production an unreachable Redis is an error.
func NewStores(ctx context.Context, cfg config.RedisConfig, production bool, logger *zap.Logger) (*Stores, error) {
	if cfg.Enabled {
		client, err := NewRedisClient(ctx, cfg)
		if err == nil {
			logger.Info("using redis cache backends", zap.String("addr", cfg.Addr()))
			return &Stores{
				Redis:        client,
				Idempotency:  NewRedisIdempotencyStore(client, ""),
				SessionCache: NewRedisSessionCache(client),
			}, nil
		}
		if production {
			return nil, fmt.Errorf("redis is enabled but unavailable: %w", err)
		}
		logger.Warn("redis unavailable, falling back to in-memory cache backends", zap.Error(err))
	}
	return &Stores{
		Idempotency:  NewInMemoryIdempotencyStore(5 * time.Minute),
		SessionCache: NewInMemorySessionCache(),
	}, nil
}

package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of requests carrying an idempotency key.
type IdempotencyStore interface {
	// Claim marks key as in progress. It returns false when the key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the result for a claimed key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Result returns the stored result. ok is false when the key is unknown or still in progress.
	Result(ctx context.Context, key string) (result string, ok bool, err error)

	// Release drops a claim so the request can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a completed result is kept
	TTL time.Duration
	// LockTTL bounds how long an in-progress claim blocks retries
	LockTTL time.Duration
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		LockTTL: time.Minute,
	}
}

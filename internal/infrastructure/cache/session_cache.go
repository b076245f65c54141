package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache remembers sessions known to be active so authenticated
// requests skip the database. Entries must be evicted on logout.
type SessionCache interface {
	IsActive(ctx context.Context, sessionID string) (bool, error)
	MarkActive(ctx context.Context, sessionID string, ttl time.Duration) error
	Evict(ctx context.Context, sessionIDs ...string) error
}

// InMemorySessionCache is a SessionCache for a single instance
type InMemorySessionCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemorySessionCache creates an empty cache
func NewInMemorySessionCache() *InMemorySessionCache {
	return &InMemorySessionCache{entries: make(map[string]time.Time), now: time.Now}
}

// IsActive implements SessionCache
func (c *InMemorySessionCache) IsActive(_ context.Context, sessionID string) (bool, error) {
	c.mu.RLock()
	exp, ok := c.entries[sessionID]
	c.mu.RUnlock()
	return ok && c.now().Before(exp), nil
}

// MarkActive implements SessionCache
func (c *InMemorySessionCache) MarkActive(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, exp := range c.entries {
		if !now.Before(exp) {
			delete(c.entries, id)
		}
	}
	c.entries[sessionID] = now.Add(ttl)
	return nil
}

// Evict implements SessionCache
func (c *InMemorySessionCache) Evict(_ context.Context, sessionIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range sessionIDs {
		delete(c.entries, id)
	}
	return nil
}

// RedisSessionCache is a SessionCache shared between instances
type RedisSessionCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisSessionCache creates a cache on an existing client
func NewRedisSessionCache(client redis.UniversalClient) *RedisSessionCache {
	return &RedisSessionCache{client: client, keyPrefix: "auth:session:"}
}

// IsActive implements SessionCache
func (c *RedisSessionCache) IsActive(ctx context.Context, sessionID string) (bool, error) {
	err := c.client.Get(ctx, c.keyPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read session cache: %w", err)
	}
	return true, nil
}

// MarkActive implements SessionCache
func (c *RedisSessionCache) MarkActive(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.keyPrefix+sessionID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}

// Evict implements SessionCache
func (c *RedisSessionCache) Evict(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = c.keyPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("evict session cache: %w", err)
	}
	return nil
}

var (
	_ SessionCache = (*InMemorySessionCache)(nil)
	_ SessionCache = (*RedisSessionCache)(nil)
)

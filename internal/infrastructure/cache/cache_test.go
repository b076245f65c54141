package cache

import (
	"context"
	"testing"
	"time"

	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryIdempotencyStore_ClaimCompleteResult(t *testing.T) {
	s := NewInMemoryIdempotencyStore(0)
	defer s.Close()
	ctx := context.Background()

	ok, err := s.Claim(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must fail while in progress")

	_, found, err := s.Result(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Complete(ctx, "k1", "order-1", time.Hour))
	res, found, err := s.Result(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-1", res)

	require.NoError(t, s.Release(ctx, "k1"))
	_, found, _ = s.Result(ctx, "k1")
	assert.True(t, found, "release does not drop completed keys")
}

func TestInMemoryIdempotencyStore_ReleaseAndExpiry(t *testing.T) {
	s := NewInMemoryIdempotencyStore(0)
	defer s.Close()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	ok, _ := s.Claim(ctx, "k", time.Minute)
	require.True(t, ok)
	require.NoError(t, s.Release(ctx, "k"))
	ok, _ = s.Claim(ctx, "k", time.Minute)
	assert.True(t, ok, "released key can be claimed again")

	now = now.Add(2 * time.Minute)
	ok, _ = s.Claim(ctx, "k", time.Minute)
	assert.True(t, ok, "expired claim can be taken over")

	now = now.Add(2 * time.Minute)
	s.purge()
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	s := NewInMemoryIdempotencyStore(time.Millisecond)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestInMemorySessionCache(t *testing.T) {
	c := NewInMemorySessionCache()
	ctx := context.Background()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.MarkActive(ctx, "s1", time.Minute))
	active, err := c.IsActive(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, c.Evict(ctx, "s1"))
	active, _ = c.IsActive(ctx, "s1")
	assert.False(t, active)

	require.NoError(t, c.MarkActive(ctx, "s2", time.Minute))
	now = now.Add(time.Hour)
	active, _ = c.IsActive(ctx, "s2")
	assert.False(t, active)
}

func TestNewStores_FallsBackWithoutRedis(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
	stores, err := NewStores(context.Background(), cfg, false, zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()
	assert.Nil(t, stores.Redis)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)

	_, err = NewStores(context.Background(), cfg, true, zap.NewNop())
	assert.Error(t, err)
}

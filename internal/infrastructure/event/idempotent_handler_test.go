package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	return m.Called(ctx, key, result, ttl).Error(0)
}

func (m *mockIdempotencyStore) Result(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func newIdempotentFixture(t *testing.T) (*IdempotentHandler, *testHandler) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	inner := newTestHandler("order.placed")
	return NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop()), inner
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	h, inner := newIdempotentFixture(t)
	evt := newTestEvent("order.placed")

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("order.placed")))

	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"order.placed"}, h.EventTypes())
}

func TestIdempotentHandler_FailureAllowsRetry(t *testing.T) {
	h, inner := newIdempotentFixture(t)
	evt := newTestEvent("order.placed")

	inner.err = errors.New("smtp down")
	require.Error(t, h.Handle(context.Background(), evt))

	inner.err = nil
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, int64(1), h.Stats().Failed)
}

func TestIdempotentHandler_StoreErrorStillHandles(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("Claim", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	inner := newTestHandler()
	h := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent("x")))
	assert.Len(t, inner.getHandled(), 1)
	store.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotentHandler_ConcurrentDeliveries(t *testing.T) {
	h, inner := newIdempotentFixture(t)
	evt := newTestEvent("order.placed")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), evt)
		}()
	}
	wg.Wait()

	assert.Len(t, inner.getHandled(), 1)
}

package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("order.placed")
	bus.Subscribe(handler)

	evt := newTestEvent("order.placed")
	require.NoError(t, bus.Publish(context.Background(), evt, newTestEvent("order.canceled")))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, evt, handled[0])
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := newTestHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("a"), newTestEvent("b")))
	assert.Len(t, all.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_HandlerErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("order.placed")
	failing.err = errors.New("smtp down")
	next := newTestHandler("order.placed")
	bus.Subscribe(failing)
	bus.Subscribe(next)

	err := bus.Publish(context.Background(), newTestEvent("order.placed"))
	require.NoError(t, err)
	assert.Len(t, next.getHandled(), 1, "later handlers still run")
	require.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventBus_Publish_RecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))
	bus.Subscribe(NewHandlerFunc(func(context.Context, shared.DomainEvent) error {
		panic("boom")
	}, "x"))

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("x"))
	})
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("x")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_AsyncSurvivesCanceledContext(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())

	var gotErr error
	done := make(chan struct{})
	bus.Subscribe(NewHandlerFunc(func(ctx context.Context, _ shared.DomainEvent) error {
		gotErr = ctx.Err()
		close(done)
		return nil
	}, "order.placed"))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("order.placed")))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	require.NoError(t, bus.Stop(context.Background()))
	assert.NoError(t, gotErr)
}

func TestInMemoryEventBus_StopRejectsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Stop(context.Background()))

	err := bus.Publish(context.Background(), newTestEvent("x"))
	assert.ErrorIs(t, err, ErrBusStopped)

	require.NoError(t, bus.Start(context.Background()))
	assert.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
}

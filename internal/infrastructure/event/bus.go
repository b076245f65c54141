// Package event dispatches domain events to in-process handlers.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/commerce/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing after Stop
var ErrBusStopped = errors.New("event bus is stopped")

// InMemoryEventBus dispatches events to the handlers of a HandlerRegistry.
//
// In async mode each event is handled on its own goroutine with a context
// detached from the publisher's cancellation, so a finished HTTP request
// does not abort notification sending. Stop waits for those goroutines.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	async    bool
	running  atomic.Bool
	wg       sync.WaitGroup
}

// BusOption configures the bus
type BusOption func(*InMemoryEventBus)

// WithAsyncDispatch handles events on background goroutines
func WithAsyncDispatch() BusOption {
	return func(b *InMemoryEventBus) { b.async = true }
}

// NewInMemoryEventBus creates a bus that is already accepting events
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.running.Store(true)
	return b
}

// Publish hands events to their handlers. Handler failures are logged and
// never returned, so a failed email cannot undo a placed order.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		return ErrBusStopped
	}
	for _, evt := range events {
		handlers := b.registry.GetHandlers(evt.EventType())
		if len(handlers) == 0 {
			continue
		}
		if !b.async {
			b.dispatch(ctx, handlers, evt)
			continue
		}
		b.wg.Add(1)
		go func(ctx context.Context, evt shared.DomainEvent) {
			defer b.wg.Done()
			b.dispatch(ctx, handlers, evt)
		}(context.WithoutCancel(ctx), evt)
	}
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handlers []shared.EventHandler, evt shared.DomainEvent) {
	for _, handler := range handlers {
		if err := b.safeHandle(ctx, handler, evt); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", evt.EventType()),
				zap.String("event_id", evt.EventID().String()),
				zap.String("aggregate_id", evt.AggregateID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", evt.EventType()),
				zap.Any("panic", r),
			)
			err = nil
		}
	}()
	return handler.Handle(ctx, evt)
}

// Subscribe registers handler. Without explicit types the handler's own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start resumes accepting events after Stop
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop rejects new events and waits for in-flight handlers or ctx expiry
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

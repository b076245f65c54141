package event

import (
	"context"
	"sync/atomic"

	"github.com/commerce/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const idempotencyKeyPrefix = "event:"

// IdempotencyStats counts how wrapped handlers treated their events
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event id.
// A failed run releases the claim so a redelivery is processed again.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event id before running the wrapped handler
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := idempotencyKeyPrefix + evt.EventID().String()

	claimed, err := h.store.Claim(ctx, key, h.config.LockTTL)
	if err != nil {
		// Processing twice beats dropping the event
		h.logger.Warn("idempotency claim failed, handling anyway",
			zap.String("event_id", evt.EventID().String()),
			zap.Error(err),
		)
		return h.run(ctx, evt)
	}
	if !claimed {
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", evt.EventID().String()),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}

	if err := h.run(ctx, evt); err != nil {
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("failed to release idempotency claim", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}
	return h.store.Complete(ctx, key, evt.EventType(), h.config.TTL)
}

func (h *IdempotentHandler) run(ctx context.Context, evt shared.DomainEvent) error {
	if err := h.handler.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

package order

import (
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order event types
const (
	EventOrderPlaced    = "order.placed"
	EventOrderCanceled  = "order.canceled"
	EventOrderCompleted = "order.completed"
	EventReturnReceived = "order.return_received"

	AggregateTypeOrder = "Order"
)

// OrderEvent is published on order lifecycle changes
type OrderEvent struct {
	shared.BaseDomainEvent
	DisplayID    int64           `json:"display_id"`
	Email        string          `json:"email"`
	CurrencyCode string          `json:"currency_code"`
	Total        decimal.Decimal `json:"total"`
}

// NewOrderEvent creates an order event of eventType
func NewOrderEvent(eventType string, o *Order) *OrderEvent {
	return &OrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID),
		DisplayID:       o.DisplayID,
		Email:           o.Email,
		CurrencyCode:    o.CurrencyCode,
		Total:           o.Totals.Total,
	}
}

// ReturnReceivedEvent is published once returned goods arrive
type ReturnReceivedEvent struct {
	shared.BaseDomainEvent
	ReturnID     uuid.UUID       `json:"return_id"`
	Email        string          `json:"email"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	CurrencyCode string          `json:"currency_code"`
}

// NewReturnReceivedEvent creates a return received event
func NewReturnReceivedEvent(o *Order, r *Return) *ReturnReceivedEvent {
	return &ReturnReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReturnReceived, AggregateTypeOrder, o.ID),
		ReturnID:        r.ID,
		Email:           o.Email,
		RefundAmount:    r.RefundAmount,
		CurrencyCode:    o.CurrencyCode,
	}
}

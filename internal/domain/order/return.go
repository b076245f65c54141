package order

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnItem is a quantity of an order line sent back
type ReturnItem struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason,omitempty"`
	Note       string    `json:"note,omitempty"`
}

// Return is a customer return of order items
type Return struct {
	shared.BaseEntity
	OrderID      uuid.UUID
	LocationID   *uuid.UUID
	Status       ReturnStatus
	Items        []ReturnItem
	RefundAmount decimal.Decimal
	ReceivedAt   *time.Time
	CanceledAt   *time.Time
}

// NewReturn requests a return of items from o
func NewReturn(o *Order, items []ReturnItem, locationID *uuid.UUID) (*Return, error) {
	if o.Status == StatusCanceled {
		return nil, shared.NewDomainError("INVALID_STATE", "canceled orders cannot be returned")
	}
	if err := o.ValidateReturn(items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Reason = strings.TrimSpace(items[i].Reason)
	}
	return &Return{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      o.ID,
		LocationID:   locationID,
		Status:       ReturnRequested,
		Items:        items,
		RefundAmount: o.RefundAmountFor(items),
	}, nil
}

// Receive marks the items as received
func (r *Return) Receive(at time.Time) error {
	if r.Status != ReturnRequested {
		return shared.NewDomainError("INVALID_STATE", "return is "+string(r.Status))
	}
	r.Status = ReturnReceived
	r.ReceivedAt = &at
	r.Touch()
	return nil
}

// Cancel cancels a requested return
func (r *Return) Cancel(at time.Time) error {
	if r.Status != ReturnRequested {
		return shared.NewDomainError("INVALID_STATE", "return is "+string(r.Status))
	}
	r.Status = ReturnCanceled
	r.CanceledAt = &at
	r.Touch()
	return nil
}

// ReturnRepository persists returns
type ReturnRepository interface {
	Create(ctx context.Context, r *Return) error
	Update(ctx context.Context, r *Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Return, error)
}

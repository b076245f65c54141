package fulfillment

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Item is a quantity of an order line item included in a fulfillment
type Item struct {
	LineItemID uuid.UUID
	Quantity   int
}

// Fulfillment is a shipment of some order items from one location
type Fulfillment struct {
	shared.BaseEntity
	OrderID         uuid.UUID
	LocationID      *uuid.UUID
	ProviderID      string
	Items           []Item
	TrackingNumbers []string
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CanceledAt      *time.Time
}

// Fulfillment state errors
var (
	ErrAlreadyShipped  = shared.NewDomainError("FULFILLMENT_ALREADY_SHIPPED", "Fulfillment has already been shipped")
	ErrNotShipped      = shared.NewDomainError("FULFILLMENT_NOT_SHIPPED", "Fulfillment has not been shipped")
	ErrCanceled        = shared.NewDomainError("FULFILLMENT_CANCELED", "Fulfillment was canceled")
	ErrNothingToFulfil = shared.NewDomainError("NOTHING_TO_FULFILL", "No items to fulfill")
)

// NewFulfillment creates a fulfillment for items with positive quantities.
// Repeated line items are merged into one entry.
func NewFulfillment(orderID uuid.UUID, locationID *uuid.UUID, providerID string, items []Item) (*Fulfillment, error) {
	kept := make([]Item, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.LineItemID]; ok {
			kept[i].Quantity += it.Quantity
			continue
		}
		index[it.LineItemID] = len(kept)
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return nil, ErrNothingToFulfil
	}
	if providerID == "" {
		providerID = "manual"
	}
	return &Fulfillment{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		LocationID: locationID,
		ProviderID: providerID,
		Items:      kept,
	}, nil
}

// Ship marks the fulfillment shipped with tracking numbers
func (f *Fulfillment) Ship(trackingNumbers []string, at time.Time) error {
	switch {
	case f.CanceledAt != nil:
		return ErrCanceled
	case f.ShippedAt != nil:
		return ErrAlreadyShipped
	}
	cleaned := make([]string, 0, len(trackingNumbers))
	for _, n := range trackingNumbers {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	f.TrackingNumbers = cleaned
	f.ShippedAt = &at
	f.UpdatedAt = at
	return nil
}

// Deliver marks a shipped fulfillment delivered
func (f *Fulfillment) Deliver(at time.Time) error {
	switch {
	case f.CanceledAt != nil:
		return ErrCanceled
	case f.ShippedAt == nil:
		return ErrNotShipped
	}
	f.DeliveredAt = &at
	f.UpdatedAt = at
	return nil
}

// Cancel cancels a fulfillment that was not shipped
func (f *Fulfillment) Cancel(at time.Time) error {
	if f.ShippedAt != nil {
		return ErrAlreadyShipped
	}
	if f.CanceledAt != nil {
		return nil
	}
	f.CanceledAt = &at
	f.UpdatedAt = at
	return nil
}

// IsActive reports whether the fulfillment still counts towards fulfilled quantities
func (f *Fulfillment) IsActive() bool {
	return f.CanceledAt == nil
}

// QuantityFor returns how many units of lineItemID the fulfillment carries
func (f *Fulfillment) QuantityFor(lineItemID uuid.UUID) int {
	total := 0
	for _, it := range f.Items {
		if it.LineItemID == lineItemID {
			total += it.Quantity
		}
	}
	return total
}

// Repository persists fulfillments
type Repository interface {
	Create(ctx context.Context, f *Fulfillment) error
	Update(ctx context.Context, f *Fulfillment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Fulfillment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Fulfillment, error)
}

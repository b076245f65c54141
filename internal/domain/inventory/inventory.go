// Package inventory tracks stocked, reserved and incoming quantities per location.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Item is a stock keeping unit tracked in inventory
type Item struct {
	shared.BaseEntity
	SKU              string
	Title            string
	RequiresShipping bool
	OriginCountry    string
	Weight           int
}

// NewItem creates an inventory item
func NewItem(sku, title string, requiresShipping bool) (*Item, error) {
	sku = strings.TrimSpace(sku)
	var v shared.Validator
	v.Check(sku != "" || strings.TrimSpace(title) != "", "sku", "sku or title is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Item{
		BaseEntity:       shared.NewBaseEntity(),
		SKU:              sku,
		Title:            strings.TrimSpace(title),
		RequiresShipping: requiresShipping,
	}, nil
}

// Level holds the quantities of one item at one location
type Level struct {
	shared.BaseEntity
	InventoryItemID  uuid.UUID
	LocationID       uuid.UUID
	StockedQuantity  int
	ReservedQuantity int
	IncomingQuantity int
}

// NewLevel creates a level for an item at a location
func NewLevel(itemID, locationID uuid.UUID, stocked, incoming int) (*Level, error) {
	var v shared.Validator
	v.Check(stocked >= 0, "stocked_quantity", "stocked_quantity cannot be negative")
	v.Check(incoming >= 0, "incoming_quantity", "incoming_quantity cannot be negative")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Level{
		BaseEntity:       shared.NewBaseEntity(),
		InventoryItemID:  itemID,
		LocationID:       locationID,
		StockedQuantity:  stocked,
		IncomingQuantity: incoming,
	}, nil
}

// Available returns stocked minus reserved
func (l *Level) Available() int {
	return l.StockedQuantity - l.ReservedQuantity
}

// Adjust changes the stocked quantity by delta. Stock cannot drop below what is reserved.
func (l *Level) Adjust(delta int) error {
	next := l.StockedQuantity + delta
	if next < 0 || next < l.ReservedQuantity {
		return shared.NewDomainError("INSUFFICIENT_INVENTORY",
			fmt.Sprintf("cannot adjust stock by %d: %d stocked, %d reserved", delta, l.StockedQuantity, l.ReservedQuantity))
	}
	l.StockedQuantity = next
	l.Touch()
	return nil
}

// Reserve moves quantity into the reserved bucket
func (l *Level) Reserve(quantity int) error {
	if quantity <= 0 {
		return shared.NewInvalidDataError("quantity", "quantity must be positive")
	}
	if l.Available() < quantity {
		return ErrInsufficientInventory(l.InventoryItemID, l.Available(), quantity)
	}
	l.ReservedQuantity += quantity
	l.Touch()
	return nil
}

// Release returns reserved quantity to available stock
func (l *Level) Release(quantity int) {
	l.ReservedQuantity -= quantity
	if l.ReservedQuantity < 0 {
		l.ReservedQuantity = 0
	}
	l.Touch()
}

// Consume ships reserved quantity: it leaves both stocked and reserved
func (l *Level) Consume(quantity int) {
	l.Release(quantity)
	l.StockedQuantity -= quantity
	if l.StockedQuantity < 0 {
		l.StockedQuantity = 0
	}
}

// ErrInsufficientInventory builds the error reported when a reservation does not fit
func ErrInsufficientInventory(itemID uuid.UUID, available, requested int) *shared.DomainError {
	return shared.NewDomainError("INSUFFICIENT_INVENTORY",
		fmt.Sprintf("inventory item %s has %d available, %d requested", itemID, available, requested))
}

// Reservation holds stock for a cart or order line item
type Reservation struct {
	shared.BaseEntity
	InventoryItemID uuid.UUID
	LocationID      uuid.UUID
	LineItemID      *uuid.UUID
	Quantity        int
	ExpiresAt       *time.Time
	Description     string
}

// NewReservation creates a reservation
func NewReservation(itemID, locationID uuid.UUID, lineItemID *uuid.UUID, quantity int, expiresAt *time.Time) (*Reservation, error) {
	if quantity <= 0 {
		return nil, shared.NewInvalidDataError("quantity", "quantity must be positive")
	}
	return &Reservation{
		BaseEntity:      shared.NewBaseEntity(),
		InventoryItemID: itemID,
		LocationID:      locationID,
		LineItemID:      lineItemID,
		Quantity:        quantity,
		ExpiresAt:       expiresAt,
	}, nil
}

// IsExpired reports whether the reservation lapsed at now
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// ReservationRequest asks for quantity of an item at one of locations
type ReservationRequest struct {
	InventoryItemID uuid.UUID
	LocationIDs     []uuid.UUID
	LineItemID      *uuid.UUID
	Quantity        int
	ExpiresAt       *time.Time
}

// ItemRepository persists inventory items
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Item, int64, error)
}

// LevelRepository persists inventory levels and reservations.
type LevelRepository interface {
	CreateLevel(ctx context.Context, level *Level) error
	UpdateLevel(ctx context.Context, level *Level) error
	FindLevel(ctx context.Context, itemID, locationID uuid.UUID) (*Level, error)
	FindLevels(ctx context.Context, itemID uuid.UUID) ([]*Level, error)
	ListLevels(ctx context.Context, q shared.ListQuery) ([]*Level, int64, error)

	// Reserve creates all reservations or none. Levels are locked while
	// availability is checked.
	Reserve(ctx context.Context, requests []ReservationRequest) ([]*Reservation, error)
	// ReleaseReservations deletes reservations and gives their quantity back
	ReleaseReservations(ctx context.Context, ids []uuid.UUID) error
	// ReleaseByLineItems deletes the reservations of line items
	ReleaseByLineItems(ctx context.Context, lineItemIDs []uuid.UUID) error
	// ConsumeByLineItem turns reserved units of a line item into shipped stock
	ConsumeByLineItem(ctx context.Context, lineItemID uuid.UUID, quantity int) error
	FindReservations(ctx context.Context, q shared.ListQuery) ([]*Reservation, int64, error)
	// ReleaseExpired deletes reservations whose expires_at passed
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}

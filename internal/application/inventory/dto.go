package inventory

import (
	"time"

	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/stocklocation"
	"github.com/google/uuid"
)

// ========================================
// Stock locations
// ========================================

// LocationRequest creates or replaces a stock location
type LocationRequest struct {
	Name            string              `json:"name" binding:"required,max=200"`
	Address         valueobject.Address `json:"address"`
	SalesChannelIDs []uuid.UUID         `json:"sales_channel_ids"`
}

// LocationResponse represents a stock location
type LocationResponse struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Address         valueobject.Address `json:"address"`
	SalesChannelIDs []uuid.UUID         `json:"sales_channel_ids"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toLocationResponse(l *stocklocation.StockLocation) LocationResponse {
	ids := l.SalesChannelIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return LocationResponse{
		ID:              l.ID,
		Name:            l.Name,
		Address:         l.Address,
		SalesChannelIDs: ids,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ========================================
// Inventory items and levels
// ========================================

// ItemRequest creates or replaces an inventory item
type ItemRequest struct {
	SKU              string `json:"sku" binding:"max=100"`
	Title            string `json:"title" binding:"max=200"`
	RequiresShipping *bool  `json:"requires_shipping"`
	OriginCountry    string `json:"origin_country" binding:"omitempty,len=2"`
	Weight           int    `json:"weight" binding:"gte=0"`
}

// ItemResponse represents an inventory item with its levels
type ItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	RequiresShipping  bool            `json:"requires_shipping"`
	OriginCountry     string          `json:"origin_country,omitempty"`
	Weight            int             `json:"weight"`
	StockedQuantity   int             `json:"stocked_quantity"`
	ReservedQuantity  int             `json:"reserved_quantity"`
	AvailableQuantity int             `json:"available_quantity"`
	Levels            []LevelResponse `json:"location_levels"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CreateLevelRequest stocks an item at a location
type CreateLevelRequest struct {
	LocationID       uuid.UUID `json:"location_id" binding:"required"`
	StockedQuantity  int       `json:"stocked_quantity" binding:"gte=0"`
	IncomingQuantity int       `json:"incoming_quantity" binding:"gte=0"`
}

// UpdateLevelRequest changes quantities of a level. Nil fields are unchanged.
type UpdateLevelRequest struct {
	StockedQuantity  *int `json:"stocked_quantity" binding:"omitempty,gte=0"`
	IncomingQuantity *int `json:"incoming_quantity" binding:"omitempty,gte=0"`
}

// AdjustRequest changes stocked quantity by a signed delta
type AdjustRequest struct {
	LocationID uuid.UUID `json:"location_id" binding:"required"`
	Delta      int       `json:"delta" binding:"required"`
}

// LevelResponse represents an inventory level
type LevelResponse struct {
	ID                uuid.UUID `json:"id"`
	InventoryItemID   uuid.UUID `json:"inventory_item_id"`
	LocationID        uuid.UUID `json:"location_id"`
	StockedQuantity   int       `json:"stocked_quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	IncomingQuantity  int       `json:"incoming_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toLevelResponse(l *inventory.Level) LevelResponse {
	return LevelResponse{
		ID:                l.ID,
		InventoryItemID:   l.InventoryItemID,
		LocationID:        l.LocationID,
		StockedQuantity:   l.StockedQuantity,
		ReservedQuantity:  l.ReservedQuantity,
		IncomingQuantity:  l.IncomingQuantity,
		AvailableQuantity: l.Available(),
		UpdatedAt:         l.UpdatedAt,
	}
}

func toItemResponse(item *inventory.Item, levels []*inventory.Level) ItemResponse {
	resp := ItemResponse{
		ID:               item.ID,
		SKU:              item.SKU,
		Title:            item.Title,
		RequiresShipping: item.RequiresShipping,
		OriginCountry:    item.OriginCountry,
		Weight:           item.Weight,
		Levels:           make([]LevelResponse, len(levels)),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
	for i, l := range levels {
		resp.Levels[i] = toLevelResponse(l)
		resp.StockedQuantity += l.StockedQuantity
		resp.ReservedQuantity += l.ReservedQuantity
	}
	resp.AvailableQuantity = resp.StockedQuantity - resp.ReservedQuantity
	return resp
}

// ========================================
// Reservations
// ========================================

// ReservationRequest asks to hold quantity of an item
type ReservationRequest struct {
	InventoryItemID uuid.UUID   `json:"inventory_item_id" binding:"required"`
	LocationIDs     []uuid.UUID `json:"location_ids" binding:"required,min=1"`
	LineItemID      *uuid.UUID  `json:"line_item_id"`
	Quantity        int         `json:"quantity" binding:"required,gt=0"`
	ExpiresAt       *time.Time  `json:"expires_at"`
}

// ReservationResponse represents a reservation
type ReservationResponse struct {
	ID              uuid.UUID  `json:"id"`
	InventoryItemID uuid.UUID  `json:"inventory_item_id"`
	LocationID      uuid.UUID  `json:"location_id"`
	LineItemID      *uuid.UUID `json:"line_item_id"`
	Quantity        int        `json:"quantity"`
	ExpiresAt       *time.Time `json:"expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toReservationResponse(r *inventory.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		InventoryItemID: r.InventoryItemID,
		LocationID:      r.LocationID,
		LineItemID:      r.LineItemID,
		Quantity:        r.Quantity,
		ExpiresAt:       r.ExpiresAt,
		CreatedAt:       r.CreatedAt,
	}
}

// ExpiredReservationStats reports one expiry sweep
type ExpiredReservationStats struct {
	Released    int64     `json:"released"`
	ProcessedAt time.Time `json:"processed_at"`
}

package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/stocklocation"
	"github.com/google/uuid"
)

// StockLocationModel is the persistence model for stock locations.
type StockLocationModel struct {
	BaseModel
	Name    string              `gorm:"type:varchar(200);not null"`
	Address valueobject.Address `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StockLocationModel) TableName() string {
	return "stock_locations"
}

// ToDomain converts the model; sales channels are attached by the repository.
func (m *StockLocationModel) ToDomain(channelIDs []uuid.UUID) *stocklocation.StockLocation {
	if channelIDs == nil {
		channelIDs = make([]uuid.UUID, 0)
	}
	return &stocklocation.StockLocation{
		BaseEntity:      m.BaseModel.ToDomain(),
		Name:            m.Name,
		Address:         m.Address,
		SalesChannelIDs: channelIDs,
	}
}

// StockLocationModelFromDomain creates a persistence model from a domain StockLocation.
func StockLocationModelFromDomain(l *stocklocation.StockLocation) *StockLocationModel {
	m := &StockLocationModel{Name: l.Name, Address: l.Address}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// LocationSalesChannelModel links stock locations to the sales channels they serve.
type LocationSalesChannelModel struct {
	StockLocationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SalesChannelID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (LocationSalesChannelModel) TableName() string {
	return "stock_location_sales_channels"
}

// InventoryItemModel is the persistence model for inventory items.
type InventoryItemModel struct {
	BaseModel
	SKU              *string `gorm:"column:sku;type:varchar(100)"`
	Title            string  `gorm:"type:varchar(255)"`
	RequiresShipping bool    `gorm:"not null;default:true"`
	OriginCountry    string  `gorm:"type:varchar(2)"`
	Weight           int     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *InventoryItemModel) ToDomain() *inventory.Item {
	item := &inventory.Item{
		BaseEntity:       m.BaseModel.ToDomain(),
		Title:            m.Title,
		RequiresShipping: m.RequiresShipping,
		OriginCountry:    m.OriginCountry,
		Weight:           m.Weight,
	}
	if m.SKU != nil {
		item.SKU = *m.SKU
	}
	return item
}

// InventoryItemModelFromDomain creates a persistence model from a domain Item.
func InventoryItemModelFromDomain(i *inventory.Item) *InventoryItemModel {
	m := &InventoryItemModel{
		Title:            i.Title,
		RequiresShipping: i.RequiresShipping,
		OriginCountry:    i.OriginCountry,
		Weight:           i.Weight,
	}
	if i.SKU != "" {
		sku := i.SKU
		m.SKU = &sku
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// InventoryLevelModel holds the quantities of an item at a location.
type InventoryLevelModel struct {
	BaseModel
	InventoryItemID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_level_item_location,priority:1"`
	LocationID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_level_item_location,priority:2"`
	StockedQuantity  int       `gorm:"not null;default:0"`
	ReservedQuantity int       `gorm:"not null;default:0"`
	IncomingQuantity int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryLevelModel) TableName() string {
	return "inventory_levels"
}

// ToDomain converts the persistence model to a domain Level.
func (m *InventoryLevelModel) ToDomain() *inventory.Level {
	return &inventory.Level{
		BaseEntity:       m.BaseModel.ToDomain(),
		InventoryItemID:  m.InventoryItemID,
		LocationID:       m.LocationID,
		StockedQuantity:  m.StockedQuantity,
		ReservedQuantity: m.ReservedQuantity,
		IncomingQuantity: m.IncomingQuantity,
	}
}

// InventoryLevelModelFromDomain creates a persistence model from a domain Level.
func InventoryLevelModelFromDomain(l *inventory.Level) *InventoryLevelModel {
	m := &InventoryLevelModel{
		InventoryItemID:  l.InventoryItemID,
		LocationID:       l.LocationID,
		StockedQuantity:  l.StockedQuantity,
		ReservedQuantity: l.ReservedQuantity,
		IncomingQuantity: l.IncomingQuantity,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// ReservationModel is a stock reservation. Released reservations are deleted.
type ReservationModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	InventoryItemID uuid.UUID  `gorm:"type:uuid;not null;index"`
	LocationID      uuid.UUID  `gorm:"type:uuid;not null"`
	LineItemID      *uuid.UUID `gorm:"type:uuid;index"`
	Quantity        int        `gorm:"not null"`
	ExpiresAt       *time.Time `gorm:"index"`
	Description     string     `gorm:"type:varchar(255)"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservation_items"
}

// ToDomain converts the persistence model to a domain Reservation.
func (m *ReservationModel) ToDomain() *inventory.Reservation {
	return &inventory.Reservation{
		BaseEntity:      shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		InventoryItemID: m.InventoryItemID,
		LocationID:      m.LocationID,
		LineItemID:      m.LineItemID,
		Quantity:        m.Quantity,
		ExpiresAt:       m.ExpiresAt,
		Description:     m.Description,
	}
}

// ReservationModelFromDomain creates a persistence model from a domain Reservation.
func ReservationModelFromDomain(r *inventory.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:              r.ID,
		InventoryItemID: r.InventoryItemID,
		LocationID:      r.LocationID,
		LineItemID:      r.LineItemID,
		Quantity:        r.Quantity,
		ExpiresAt:       r.ExpiresAt,
		Description:     r.Description,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingOptionModel is the persistence model for shipping options.
type ShippingOptionModel struct {
	BaseModel
	Name        string                `gorm:"type:varchar(255);not null"`
	RegionID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProviderID  string                `gorm:"type:varchar(100);not null"`
	PriceType   fulfillment.PriceType `gorm:"type:varchar(20);not null;default:'flat'"`
	Amount      decimal.Decimal       `gorm:"type:numeric(20,4);not null"`
	IsReturn    bool                  `gorm:"not null;default:false"`
	AdminOnly   bool                  `gorm:"not null;default:false"`
	MinSubtotal *decimal.Decimal      `gorm:"type:numeric(20,4)"`
	MaxSubtotal *decimal.Decimal      `gorm:"type:numeric(20,4)"`
	Data        JSONMap               `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (ShippingOptionModel) TableName() string {
	return "shipping_options"
}

// ToDomain converts the model to a domain ShippingOption
func (m *ShippingOptionModel) ToDomain() *fulfillment.ShippingOption {
	return &fulfillment.ShippingOption{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		RegionID:    m.RegionID,
		ProviderID:  m.ProviderID,
		PriceType:   m.PriceType,
		Amount:      m.Amount,
		IsReturn:    m.IsReturn,
		AdminOnly:   m.AdminOnly,
		MinSubtotal: m.MinSubtotal,
		MaxSubtotal: m.MaxSubtotal,
		Data:        m.Data,
	}
}

// ShippingOptionModelFromDomain creates a persistence model from a domain ShippingOption
func ShippingOptionModelFromDomain(o *fulfillment.ShippingOption) *ShippingOptionModel {
	m := &ShippingOptionModel{
		Name:        o.Name,
		RegionID:    o.RegionID,
		ProviderID:  o.ProviderID,
		PriceType:   o.PriceType,
		Amount:      o.Amount,
		IsReturn:    o.IsReturn,
		AdminOnly:   o.AdminOnly,
		MinSubtotal: o.MinSubtotal,
		MaxSubtotal: o.MaxSubtotal,
		Data:        o.Data,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}

// FulfillmentModel is the persistence model for order fulfillments.
// Items and tracking numbers are small and always read together, so they live in JSON columns.
type FulfillmentModel struct {
	BaseModel
	OrderID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	LocationID      *uuid.UUID         `gorm:"type:uuid"`
	ProviderID      string             `gorm:"type:varchar(100);not null"`
	Items           []fulfillment.Item `gorm:"type:jsonb;serializer:json"`
	TrackingNumbers []string           `gorm:"type:jsonb;serializer:json"`
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CanceledAt      *time.Time
}

// TableName returns the table name for GORM
func (FulfillmentModel) TableName() string {
	return "fulfillments"
}

// ToDomain converts the model to a domain Fulfillment
func (m *FulfillmentModel) ToDomain() *fulfillment.Fulfillment {
	f := &fulfillment.Fulfillment{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrderID:         m.OrderID,
		LocationID:      m.LocationID,
		ProviderID:      m.ProviderID,
		Items:           m.Items,
		TrackingNumbers: m.TrackingNumbers,
		ShippedAt:       m.ShippedAt,
		DeliveredAt:     m.DeliveredAt,
		CanceledAt:      m.CanceledAt,
	}
	if f.TrackingNumbers == nil {
		f.TrackingNumbers = make([]string, 0)
	}
	return f
}

// FulfillmentModelFromDomain creates a persistence model from a domain Fulfillment
func FulfillmentModelFromDomain(f *fulfillment.Fulfillment) *FulfillmentModel {
	m := &FulfillmentModel{
		OrderID:         f.OrderID,
		LocationID:      f.LocationID,
		ProviderID:      f.ProviderID,
		Items:           f.Items,
		TrackingNumbers: f.TrackingNumbers,
		ShippedAt:       f.ShippedAt,
		DeliveredAt:     f.DeliveredAt,
		CanceledAt:      f.CanceledAt,
	}
	m.FromDomainBaseEntity(f.BaseEntity)
	return m
}

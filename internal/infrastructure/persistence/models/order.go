package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for orders.
// Shipping methods and totals are snapshots taken at checkout and never queried, so they are JSON.
type OrderModel struct {
	AggregateModel
	DisplayID         int64                   `gorm:"not null;uniqueIndex"`
	CartID            *uuid.UUID              `gorm:"type:uuid;uniqueIndex"`
	CustomerID        *uuid.UUID              `gorm:"type:uuid;index"`
	Email             string                  `gorm:"type:varchar(255);index"`
	RegionID          uuid.UUID               `gorm:"type:uuid;not null"`
	CurrencyCode      string                  `gorm:"type:varchar(3);not null"`
	SalesChannelID    *uuid.UUID              `gorm:"type:uuid"`
	ShippingAddress   *valueobject.Address    `gorm:"type:jsonb"`
	BillingAddress    *valueobject.Address    `gorm:"type:jsonb"`
	Status            order.Status            `gorm:"type:varchar(30);not null;default:'pending';index"`
	PaymentStatus     order.PaymentStatus     `gorm:"type:varchar(30);not null;default:'not_paid'"`
	FulfillmentStatus order.FulfillmentStatus `gorm:"type:varchar(30);not null;default:'not_fulfilled'"`
	ShippingMethods   []cart.ShippingMethod   `gorm:"type:jsonb;serializer:json"`
	PromoCodes        []string                `gorm:"type:jsonb;serializer:json"`
	Totals            cart.Totals             `gorm:"type:jsonb;serializer:json"`
	Total             decimal.Decimal         `gorm:"type:numeric(20,4);not null"`
	CanceledAt        *time.Time
	Metadata          JSONMap `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model and its items to a domain Order
func (m *OrderModel) ToDomain(items []OrderLineItemModel) *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		DisplayID:         m.DisplayID,
		CartID:            m.CartID,
		CustomerID:        m.CustomerID,
		Email:             m.Email,
		RegionID:          m.RegionID,
		CurrencyCode:      m.CurrencyCode,
		SalesChannelID:    m.SalesChannelID,
		ShippingAddress:   m.ShippingAddress,
		BillingAddress:    m.BillingAddress,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		FulfillmentStatus: m.FulfillmentStatus,
		ShippingMethods:   m.ShippingMethods,
		PromoCodes:        m.PromoCodes,
		Totals:            m.Totals,
		CanceledAt:        m.CanceledAt,
		Metadata:          m.Metadata,
		Items:             make([]order.LineItem, len(items)),
	}
	if o.PromoCodes == nil {
		o.PromoCodes = make([]string, 0)
	}
	for i := range items {
		o.Items[i] = items[i].ToDomain()
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		DisplayID:         o.DisplayID,
		CartID:            o.CartID,
		CustomerID:        o.CustomerID,
		Email:             o.Email,
		RegionID:          o.RegionID,
		CurrencyCode:      o.CurrencyCode,
		SalesChannelID:    o.SalesChannelID,
		ShippingAddress:   o.ShippingAddress,
		BillingAddress:    o.BillingAddress,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		ShippingMethods:   o.ShippingMethods,
		PromoCodes:        o.PromoCodes,
		Totals:            o.Totals,
		Total:             o.Totals.Total,
		CanceledAt:        o.CanceledAt,
		Metadata:          o.Metadata,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}

// OrderLineItemModel is an order line with its fulfillment counters
type OrderLineItemModel struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	VariantID         *uuid.UUID        `gorm:"type:uuid"`
	ProductID         *uuid.UUID        `gorm:"type:uuid"`
	InventoryItemID   *uuid.UUID        `gorm:"type:uuid"`
	Title             string            `gorm:"type:varchar(255);not null"`
	SKU               string            `gorm:"column:sku;type:varchar(100)"`
	Thumbnail         string            `gorm:"type:varchar(500)"`
	Quantity          int               `gorm:"not null"`
	UnitPrice         decimal.Decimal   `gorm:"type:numeric(20,4);not null"`
	RequiresShipping  bool              `gorm:"not null;default:true"`
	ManageInventory   bool              `gorm:"not null;default:true"`
	Adjustments       []cart.Adjustment `gorm:"type:jsonb;serializer:json"`
	TaxLines          []cart.TaxLine    `gorm:"type:jsonb;serializer:json"`
	FulfilledQuantity int               `gorm:"not null;default:0"`
	ShippedQuantity   int               `gorm:"not null;default:0"`
	DeliveredQuantity int               `gorm:"not null;default:0"`
	ReturnedQuantity  int               `gorm:"not null;default:0"`
	Position          int               `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the model to a domain order LineItem
func (m *OrderLineItemModel) ToDomain() order.LineItem {
	return order.LineItem{
		ID:                m.ID,
		VariantID:         m.VariantID,
		ProductID:         m.ProductID,
		InventoryItemID:   m.InventoryItemID,
		Title:             m.Title,
		SKU:               m.SKU,
		Thumbnail:         m.Thumbnail,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		RequiresShipping:  m.RequiresShipping,
		ManageInventory:   m.ManageInventory,
		Adjustments:       m.Adjustments,
		TaxLines:          m.TaxLines,
		FulfilledQuantity: m.FulfilledQuantity,
		ShippedQuantity:   m.ShippedQuantity,
		DeliveredQuantity: m.DeliveredQuantity,
		ReturnedQuantity:  m.ReturnedQuantity,
	}
}

// OrderLineItemModelFromDomain creates a persistence model for the item at position
func OrderLineItemModelFromDomain(orderID uuid.UUID, position int, li order.LineItem) OrderLineItemModel {
	return OrderLineItemModel{
		ID:                li.ID,
		OrderID:           orderID,
		VariantID:         li.VariantID,
		ProductID:         li.ProductID,
		InventoryItemID:   li.InventoryItemID,
		Title:             li.Title,
		SKU:               li.SKU,
		Thumbnail:         li.Thumbnail,
		Quantity:          li.Quantity,
		UnitPrice:         li.UnitPrice,
		RequiresShipping:  li.RequiresShipping,
		ManageInventory:   li.ManageInventory,
		Adjustments:       li.Adjustments,
		TaxLines:          li.TaxLines,
		FulfilledQuantity: li.FulfilledQuantity,
		ShippedQuantity:   li.ShippedQuantity,
		DeliveredQuantity: li.DeliveredQuantity,
		ReturnedQuantity:  li.ReturnedQuantity,
		Position:          position,
	}
}

// ReturnModel is the persistence model for order returns
type ReturnModel struct {
	BaseModel
	OrderID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	LocationID   *uuid.UUID         `gorm:"type:uuid"`
	Status       order.ReturnStatus `gorm:"type:varchar(20);not null;default:'requested'"`
	Items        []order.ReturnItem `gorm:"type:jsonb;serializer:json"`
	RefundAmount decimal.Decimal    `gorm:"type:numeric(20,4);not null"`
	ReceivedAt   *time.Time
	CanceledAt   *time.Time
}

// TableName returns the table name for GORM
func (ReturnModel) TableName() string {
	return "returns"
}

// ToDomain converts the model to a domain Return
func (m *ReturnModel) ToDomain() *order.Return {
	return &order.Return{
		BaseEntity:   m.BaseModel.ToDomain(),
		OrderID:      m.OrderID,
		LocationID:   m.LocationID,
		Status:       m.Status,
		Items:        m.Items,
		RefundAmount: m.RefundAmount,
		ReceivedAt:   m.ReceivedAt,
		CanceledAt:   m.CanceledAt,
	}
}

// ReturnModelFromDomain creates a persistence model from a domain Return
func ReturnModelFromDomain(r *order.Return) *ReturnModel {
	m := &ReturnModel{
		OrderID:      r.OrderID,
		LocationID:   r.LocationID,
		Status:       r.Status,
		Items:        r.Items,
		RefundAmount: r.RefundAmount,
		ReceivedAt:   r.ReceivedAt,
		CanceledAt:   r.CanceledAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

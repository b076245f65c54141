package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for carts.
type CartModel struct {
	AggregateModel
	RegionID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	CurrencyCode    string               `gorm:"type:varchar(3);not null"`
	CustomerID      *uuid.UUID           `gorm:"type:uuid;index"`
	Email           string               `gorm:"type:varchar(255)"`
	SalesChannelID  *uuid.UUID           `gorm:"type:uuid"`
	ShippingAddress *valueobject.Address `gorm:"type:jsonb"`
	BillingAddress  *valueobject.Address `gorm:"type:jsonb"`
	PromoCodes      []string             `gorm:"type:jsonb;serializer:json"`
	CompletedAt     *time.Time           `gorm:"index"`
	Metadata        JSONMap              `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the model and its loaded children to a domain Cart
func (m *CartModel) ToDomain(items []CartLineItemModel, methods []CartShippingMethodModel) *cart.Cart {
	c := &cart.Cart{
		BaseAggregateRoot: m.ToAggregateRoot(),
		RegionID:          m.RegionID,
		CurrencyCode:      m.CurrencyCode,
		CustomerID:        m.CustomerID,
		Email:             m.Email,
		SalesChannelID:    m.SalesChannelID,
		ShippingAddress:   m.ShippingAddress,
		BillingAddress:    m.BillingAddress,
		PromoCodes:        m.PromoCodes,
		CompletedAt:       m.CompletedAt,
		Metadata:          m.Metadata,
		Items:             make([]cart.LineItem, len(items)),
		ShippingMethods:   make([]cart.ShippingMethod, len(methods)),
	}
	if c.PromoCodes == nil {
		c.PromoCodes = make([]string, 0)
	}
	for i := range items {
		c.Items[i] = items[i].ToDomain()
	}
	for i := range methods {
		c.ShippingMethods[i] = methods[i].ToDomain()
	}
	return c
}

// CartModelFromDomain creates a persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{
		RegionID:        c.RegionID,
		CurrencyCode:    c.CurrencyCode,
		CustomerID:      c.CustomerID,
		Email:           c.Email,
		SalesChannelID:  c.SalesChannelID,
		ShippingAddress: c.ShippingAddress,
		BillingAddress:  c.BillingAddress,
		PromoCodes:      c.PromoCodes,
		CompletedAt:     c.CompletedAt,
		Metadata:        c.Metadata,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// CartLineItemModel is a cart line item. Adjustments and tax lines are
// recomputed as a whole on every refresh and are stored as JSON.
type CartLineItemModel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CartID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	VariantID        *uuid.UUID        `gorm:"type:uuid"`
	ProductID        *uuid.UUID        `gorm:"type:uuid"`
	ProductTypeID    *uuid.UUID        `gorm:"type:uuid"`
	InventoryItemID  *uuid.UUID        `gorm:"type:uuid"`
	Title            string            `gorm:"type:varchar(255);not null"`
	Subtitle         string            `gorm:"type:varchar(255)"`
	Thumbnail        string            `gorm:"type:varchar(500)"`
	SKU              string            `gorm:"column:sku;type:varchar(100)"`
	Quantity         int               `gorm:"not null"`
	UnitPrice        decimal.Decimal   `gorm:"type:numeric(20,4);not null"`
	OriginalPrice    decimal.Decimal   `gorm:"type:numeric(20,4);not null"`
	IsDiscountable   bool              `gorm:"not null;default:true"`
	IsTaxInclusive   bool              `gorm:"not null;default:false"`
	RequiresShipping bool              `gorm:"not null;default:true"`
	ManageInventory  bool              `gorm:"not null;default:true"`
	AllowBackorder   bool              `gorm:"not null;default:false"`
	Adjustments      []cart.Adjustment `gorm:"type:jsonb;serializer:json"`
	TaxLines         []cart.TaxLine    `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartLineItemModel) TableName() string {
	return "cart_line_items"
}

// ToDomain converts the model to a domain LineItem
func (m *CartLineItemModel) ToDomain() cart.LineItem {
	return cart.LineItem{
		ID:               m.ID,
		VariantID:        m.VariantID,
		ProductID:        m.ProductID,
		ProductTypeID:    m.ProductTypeID,
		InventoryItemID:  m.InventoryItemID,
		Title:            m.Title,
		Subtitle:         m.Subtitle,
		Thumbnail:        m.Thumbnail,
		SKU:              m.SKU,
		Quantity:         m.Quantity,
		UnitPrice:        m.UnitPrice,
		OriginalPrice:    m.OriginalPrice,
		IsDiscountable:   m.IsDiscountable,
		IsTaxInclusive:   m.IsTaxInclusive,
		RequiresShipping: m.RequiresShipping,
		ManageInventory:  m.ManageInventory,
		AllowBackorder:   m.AllowBackorder,
		Adjustments:      m.Adjustments,
		TaxLines:         m.TaxLines,
		CreatedAt:        m.CreatedAt,
	}
}

// CartLineItemModelFromDomain creates a persistence model from a domain LineItem
func CartLineItemModelFromDomain(cartID uuid.UUID, li cart.LineItem) CartLineItemModel {
	return CartLineItemModel{
		ID:               li.ID,
		CartID:           cartID,
		VariantID:        li.VariantID,
		ProductID:        li.ProductID,
		ProductTypeID:    li.ProductTypeID,
		InventoryItemID:  li.InventoryItemID,
		Title:            li.Title,
		Subtitle:         li.Subtitle,
		Thumbnail:        li.Thumbnail,
		SKU:              li.SKU,
		Quantity:         li.Quantity,
		UnitPrice:        li.UnitPrice,
		OriginalPrice:    li.OriginalPrice,
		IsDiscountable:   li.IsDiscountable,
		IsTaxInclusive:   li.IsTaxInclusive,
		RequiresShipping: li.RequiresShipping,
		ManageInventory:  li.ManageInventory,
		AllowBackorder:   li.AllowBackorder,
		Adjustments:      li.Adjustments,
		TaxLines:         li.TaxLines,
		CreatedAt:        li.CreatedAt,
	}
}

// CartShippingMethodModel is a shipping method selected on a cart
type CartShippingMethodModel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CartID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	ShippingOptionID uuid.UUID         `gorm:"type:uuid;not null"`
	Name             string            `gorm:"type:varchar(255);not null"`
	Amount           decimal.Decimal   `gorm:"type:numeric(20,4);not null"`
	Data             JSONMap           `gorm:"type:jsonb;serializer:json"`
	Adjustments      []cart.Adjustment `gorm:"type:jsonb;serializer:json"`
	TaxLines         []cart.TaxLine    `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartShippingMethodModel) TableName() string {
	return "cart_shipping_methods"
}

// ToDomain converts the model to a domain ShippingMethod
func (m *CartShippingMethodModel) ToDomain() cart.ShippingMethod {
	return cart.ShippingMethod{
		ID:               m.ID,
		ShippingOptionID: m.ShippingOptionID,
		Name:             m.Name,
		Amount:           m.Amount,
		Data:             m.Data,
		Adjustments:      m.Adjustments,
		TaxLines:         m.TaxLines,
	}
}

// CartShippingMethodModelFromDomain creates a persistence model from a domain ShippingMethod
func CartShippingMethodModelFromDomain(cartID uuid.UUID, sm cart.ShippingMethod) CartShippingMethodModel {
	return CartShippingMethodModel{
		ID:               sm.ID,
		CartID:           cartID,
		ShippingOptionID: sm.ShippingOptionID,
		Name:             sm.Name,
		Amount:           sm.Amount,
		Data:             sm.Data,
		Adjustments:      sm.Adjustments,
		TaxLines:         sm.TaxLines,
		CreatedAt:        time.Now(),
	}
}

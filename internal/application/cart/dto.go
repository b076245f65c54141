package cart

import (
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemRequest adds a variant to a cart
type LineItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required" example:"0b9f3c1e-4c2a-4f0e-9a51-6a8d1f2e7c33"`
	Quantity  int       `json:"quantity" binding:"required,min=1" example:"2"`
}

// UpdateLineItemRequest sets a line quantity; zero removes the line
type UpdateLineItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0" example:"1"`
}

// CreateCartRequest creates a cart. Region and sales channel fall back to the store defaults.
type CreateCartRequest struct {
	RegionID        *uuid.UUID           `json:"region_id"`
	SalesChannelID  *uuid.UUID           `json:"sales_channel_id"`
	Email           string               `json:"email" binding:"omitempty,email" example:"jane@example.com"`
	ShippingAddress *valueobject.Address `json:"shipping_address"`
	BillingAddress  *valueobject.Address `json:"billing_address"`
	Items           []LineItemRequest    `json:"items" binding:"omitempty,dive"`
	PromoCodes      []string             `json:"promo_codes"`
	Metadata        map[string]any       `json:"metadata"`
}

// UpdateCartRequest changes cart fields; nil fields are left untouched
type UpdateCartRequest struct {
	RegionID        *uuid.UUID           `json:"region_id"`
	Email           *string              `json:"email" binding:"omitempty,email"`
	ShippingAddress *valueobject.Address `json:"shipping_address"`
	BillingAddress  *valueobject.Address `json:"billing_address"`
	Metadata        map[string]any       `json:"metadata"`
}

// ShippingMethodRequest selects a shipping option
type ShippingMethodRequest struct {
	OptionID uuid.UUID      `json:"option_id" binding:"required"`
	Data     map[string]any `json:"data"`
}

// PromotionsRequest carries promotion codes
type PromotionsRequest struct {
	PromoCodes []string `json:"promo_codes" binding:"required,min=1,dive,required" example:"SUMMER10"`
}

// LineItemResponse represents a cart line
type LineItemResponse struct {
	ID               uuid.UUID         `json:"id"`
	VariantID        *uuid.UUID        `json:"variant_id,omitempty"`
	ProductID        *uuid.UUID        `json:"product_id,omitempty"`
	Title            string            `json:"title"`
	Subtitle         string            `json:"subtitle,omitempty"`
	Thumbnail        string            `json:"thumbnail,omitempty"`
	SKU              string            `json:"variant_sku,omitempty"`
	Quantity         int               `json:"quantity"`
	UnitPrice        decimal.Decimal   `json:"unit_price"`
	OriginalPrice    decimal.Decimal   `json:"original_price"`
	IsTaxInclusive   bool              `json:"is_tax_inclusive"`
	RequiresShipping bool              `json:"requires_shipping"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	DiscountTotal    decimal.Decimal   `json:"discount_total"`
	TaxTotal         decimal.Decimal   `json:"tax_total"`
	Adjustments      []cart.Adjustment `json:"adjustments"`
	TaxLines         []cart.TaxLine    `json:"tax_lines"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ShippingMethodResponse represents the chosen shipping method
type ShippingMethodResponse struct {
	ID               uuid.UUID         `json:"id"`
	ShippingOptionID uuid.UUID         `json:"shipping_option_id"`
	Name             string            `json:"name"`
	Amount           decimal.Decimal   `json:"amount"`
	Data             map[string]any    `json:"data,omitempty"`
	Adjustments      []cart.Adjustment `json:"adjustments"`
	TaxLines         []cart.TaxLine    `json:"tax_lines"`
}

// CartResponse represents a cart with its computed totals
type CartResponse struct {
	ID              uuid.UUID                `json:"id"`
	RegionID        uuid.UUID                `json:"region_id"`
	CurrencyCode    string                   `json:"currency_code"`
	CustomerID      *uuid.UUID               `json:"customer_id,omitempty"`
	Email           string                   `json:"email,omitempty"`
	SalesChannelID  *uuid.UUID               `json:"sales_channel_id,omitempty"`
	ShippingAddress *valueobject.Address     `json:"shipping_address,omitempty"`
	BillingAddress  *valueobject.Address     `json:"billing_address,omitempty"`
	Items           []LineItemResponse       `json:"items"`
	ShippingMethods []ShippingMethodResponse `json:"shipping_methods"`
	PromoCodes      []string                 `json:"promo_codes"`
	Metadata        map[string]any           `json:"metadata,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	cart.Totals
}

// ShippingOptionResponse is an option a cart may select
type ShippingOptionResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	ProviderID string          `json:"provider_id"`
	PriceType  string          `json:"price_type"`
	Amount     decimal.Decimal `json:"amount"`
}

// ToCartResponse converts a cart aggregate
func ToCartResponse(c *cart.Cart) CartResponse {
	resp := CartResponse{
		ID:              c.ID,
		RegionID:        c.RegionID,
		CurrencyCode:    c.CurrencyCode,
		CustomerID:      c.CustomerID,
		Email:           c.Email,
		SalesChannelID:  c.SalesChannelID,
		ShippingAddress: c.ShippingAddress,
		BillingAddress:  c.BillingAddress,
		Items:           make([]LineItemResponse, len(c.Items)),
		ShippingMethods: make([]ShippingMethodResponse, len(c.ShippingMethods)),
		PromoCodes:      c.PromoCodes,
		Metadata:        c.Metadata,
		CompletedAt:     c.CompletedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Totals:          c.Totals(),
	}
	if resp.PromoCodes == nil {
		resp.PromoCodes = []string{}
	}
	for i := range c.Items {
		li := &c.Items[i]
		resp.Items[i] = LineItemResponse{
			ID:               li.ID,
			VariantID:        li.VariantID,
			ProductID:        li.ProductID,
			Title:            li.Title,
			Subtitle:         li.Subtitle,
			Thumbnail:        li.Thumbnail,
			SKU:              li.SKU,
			Quantity:         li.Quantity,
			UnitPrice:        li.UnitPrice,
			OriginalPrice:    li.OriginalPrice,
			IsTaxInclusive:   li.IsTaxInclusive,
			RequiresShipping: li.RequiresShipping,
			Subtotal:         valueobject.RoundAmount(li.Subtotal(), c.CurrencyCode),
			DiscountTotal:    valueobject.RoundAmount(li.DiscountTotal(), c.CurrencyCode),
			TaxTotal:         valueobject.RoundAmount(li.TaxTotal(), c.CurrencyCode),
			Adjustments:      nonNilAdjustments(li.Adjustments),
			TaxLines:         nonNilTaxLines(li.TaxLines),
			CreatedAt:        li.CreatedAt,
		}
	}
	for i, sm := range c.ShippingMethods {
		resp.ShippingMethods[i] = ShippingMethodResponse{
			ID:               sm.ID,
			ShippingOptionID: sm.ShippingOptionID,
			Name:             sm.Name,
			Amount:           sm.Amount,
			Data:             sm.Data,
			Adjustments:      nonNilAdjustments(sm.Adjustments),
			TaxLines:         nonNilTaxLines(sm.TaxLines),
		}
	}
	return resp
}

func toShippingOptionResponse(so *fulfillment.ShippingOption) ShippingOptionResponse {
	return ShippingOptionResponse{
		ID:         so.ID,
		Name:       so.Name,
		ProviderID: so.ProviderID,
		PriceType:  string(so.PriceType),
		Amount:     so.Amount,
	}
}

func nonNilAdjustments(in []cart.Adjustment) []cart.Adjustment {
	if in == nil {
		return []cart.Adjustment{}
	}
	return in
}

func nonNilTaxLines(in []cart.TaxLine) []cart.TaxLine {
	if in == nil {
		return []cart.TaxLine{}
	}
	return in
}

package order

import (
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentItemRequest is a quantity of one order line
type FulfillmentItemRequest struct {
	LineItemID uuid.UUID `json:"line_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
}

// CreateFulfillmentRequest fulfills order items from a stock location.
// Without items every unfulfilled quantity is included.
type CreateFulfillmentRequest struct {
	LocationID *uuid.UUID               `json:"location_id"`
	ProviderID string                   `json:"provider_id" binding:"max=50"`
	Items      []FulfillmentItemRequest `json:"items" binding:"omitempty,dive"`
}

// ShipFulfillmentRequest marks a fulfillment shipped
type ShipFulfillmentRequest struct {
	TrackingNumbers []string `json:"tracking_numbers" binding:"omitempty,dive,max=100"`
}

// ReturnItemRequest is one returned line
type ReturnItemRequest struct {
	LineItemID uuid.UUID `json:"line_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
	Reason     string    `json:"reason" binding:"max=200"`
	Note       string    `json:"note" binding:"max=500"`
}

// RequestReturnRequest requests a return of shipped items
type RequestReturnRequest struct {
	LocationID *uuid.UUID          `json:"location_id"`
	Items      []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

// LineItemResponse represents an order line
type LineItemResponse struct {
	ID                uuid.UUID         `json:"id"`
	VariantID         *uuid.UUID        `json:"variant_id,omitempty"`
	ProductID         *uuid.UUID        `json:"product_id,omitempty"`
	Title             string            `json:"title"`
	SKU               string            `json:"variant_sku,omitempty"`
	Thumbnail         string            `json:"thumbnail,omitempty"`
	Quantity          int               `json:"quantity"`
	UnitPrice         decimal.Decimal   `json:"unit_price"`
	Total             decimal.Decimal   `json:"total"`
	FulfilledQuantity int               `json:"fulfilled_quantity"`
	ShippedQuantity   int               `json:"shipped_quantity"`
	DeliveredQuantity int               `json:"delivered_quantity"`
	ReturnedQuantity  int               `json:"returned_quantity"`
	Adjustments       []cart.Adjustment `json:"adjustments"`
	TaxLines          []cart.TaxLine    `json:"tax_lines"`
}

// ShippingMethodResponse represents an order shipping method
type ShippingMethodResponse struct {
	ID               uuid.UUID       `json:"id"`
	ShippingOptionID uuid.UUID       `json:"shipping_option_id"`
	Name             string          `json:"name"`
	Amount           decimal.Decimal `json:"amount"`
}

// OrderResponse represents an order
type OrderResponse struct {
	ID                uuid.UUID                `json:"id"`
	DisplayID         int64                    `json:"display_id"`
	CartID            *uuid.UUID               `json:"cart_id,omitempty"`
	CustomerID        *uuid.UUID               `json:"customer_id,omitempty"`
	Email             string                   `json:"email"`
	RegionID          uuid.UUID                `json:"region_id"`
	CurrencyCode      string                   `json:"currency_code"`
	SalesChannelID    *uuid.UUID               `json:"sales_channel_id,omitempty"`
	ShippingAddress   *valueobject.Address     `json:"shipping_address,omitempty"`
	BillingAddress    *valueobject.Address     `json:"billing_address,omitempty"`
	Status            string                   `json:"status"`
	PaymentStatus     string                   `json:"payment_status"`
	FulfillmentStatus string                   `json:"fulfillment_status"`
	Items             []LineItemResponse       `json:"items"`
	ShippingMethods   []ShippingMethodResponse `json:"shipping_methods"`
	PromoCodes        []string                 `json:"promo_codes"`
	Metadata          map[string]any           `json:"metadata,omitempty"`
	CanceledAt        *time.Time               `json:"canceled_at,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
	cart.Totals
}

// FulfillmentItemResponse is a fulfilled quantity of one line
type FulfillmentItemResponse struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	Quantity   int       `json:"quantity"`
}

// FulfillmentResponse represents a fulfillment
type FulfillmentResponse struct {
	ID              uuid.UUID                 `json:"id"`
	OrderID         uuid.UUID                 `json:"order_id"`
	LocationID      *uuid.UUID                `json:"location_id,omitempty"`
	ProviderID      string                    `json:"provider_id"`
	Items           []FulfillmentItemResponse `json:"items"`
	TrackingNumbers []string                  `json:"tracking_numbers"`
	ShippedAt       *time.Time                `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time                `json:"delivered_at,omitempty"`
	CanceledAt      *time.Time                `json:"canceled_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// ReturnResponse represents a return
type ReturnResponse struct {
	ID           uuid.UUID          `json:"id"`
	OrderID      uuid.UUID          `json:"order_id"`
	LocationID   *uuid.UUID         `json:"location_id,omitempty"`
	Status       string             `json:"status"`
	Items        []order.ReturnItem `json:"items"`
	RefundAmount decimal.Decimal    `json:"refund_amount"`
	ReceivedAt   *time.Time         `json:"received_at,omitempty"`
	CanceledAt   *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToOrderResponse converts an order aggregate
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                o.ID,
		DisplayID:         o.DisplayID,
		CartID:            o.CartID,
		CustomerID:        o.CustomerID,
		Email:             o.Email,
		RegionID:          o.RegionID,
		CurrencyCode:      o.CurrencyCode,
		SalesChannelID:    o.SalesChannelID,
		ShippingAddress:   o.ShippingAddress,
		BillingAddress:    o.BillingAddress,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		Items:             make([]LineItemResponse, len(o.Items)),
		ShippingMethods:   make([]ShippingMethodResponse, len(o.ShippingMethods)),
		PromoCodes:        o.PromoCodes,
		Metadata:          o.Metadata,
		CanceledAt:        o.CanceledAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Totals:            o.Totals,
	}
	if resp.PromoCodes == nil {
		resp.PromoCodes = []string{}
	}
	for i := range o.Items {
		li := &o.Items[i]
		resp.Items[i] = LineItemResponse{
			ID:                li.ID,
			VariantID:         li.VariantID,
			ProductID:         li.ProductID,
			Title:             li.Title,
			SKU:               li.SKU,
			Thumbnail:         li.Thumbnail,
			Quantity:          li.Quantity,
			UnitPrice:         li.UnitPrice,
			Total:             valueobject.RoundAmount(li.Total(), o.CurrencyCode),
			FulfilledQuantity: li.FulfilledQuantity,
			ShippedQuantity:   li.ShippedQuantity,
			DeliveredQuantity: li.DeliveredQuantity,
			ReturnedQuantity:  li.ReturnedQuantity,
			Adjustments:       li.Adjustments,
			TaxLines:          li.TaxLines,
		}
		if resp.Items[i].Adjustments == nil {
			resp.Items[i].Adjustments = []cart.Adjustment{}
		}
		if resp.Items[i].TaxLines == nil {
			resp.Items[i].TaxLines = []cart.TaxLine{}
		}
	}
	for i, sm := range o.ShippingMethods {
		resp.ShippingMethods[i] = ShippingMethodResponse{
			ID:               sm.ID,
			ShippingOptionID: sm.ShippingOptionID,
			Name:             sm.Name,
			Amount:           sm.Amount,
		}
	}
	return resp
}

func toFulfillmentResponse(f *fulfillment.Fulfillment) FulfillmentResponse {
	resp := FulfillmentResponse{
		ID:              f.ID,
		OrderID:         f.OrderID,
		LocationID:      f.LocationID,
		ProviderID:      f.ProviderID,
		Items:           make([]FulfillmentItemResponse, len(f.Items)),
		TrackingNumbers: f.TrackingNumbers,
		ShippedAt:       f.ShippedAt,
		DeliveredAt:     f.DeliveredAt,
		CanceledAt:      f.CanceledAt,
		CreatedAt:       f.CreatedAt,
	}
	for i, it := range f.Items {
		resp.Items[i] = FulfillmentItemResponse{LineItemID: it.LineItemID, Quantity: it.Quantity}
	}
	if resp.TrackingNumbers == nil {
		resp.TrackingNumbers = []string{}
	}
	return resp
}

func toReturnResponse(r *order.Return) ReturnResponse {
	return ReturnResponse{
		ID:           r.ID,
		OrderID:      r.OrderID,
		LocationID:   r.LocationID,
		Status:       string(r.Status),
		Items:        r.Items,
		RefundAmount: r.RefundAmount,
		ReceivedAt:   r.ReceivedAt,
		CanceledAt:   r.CanceledAt,
		CreatedAt:    r.CreatedAt,
	}
}

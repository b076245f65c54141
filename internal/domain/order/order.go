// Package order holds placed orders and their returns.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrOrderNotCancelable is returned when fulfilled items block a cancel
var ErrOrderNotCancelable = shared.NewDomainError("ORDER_NOT_CANCELABLE", "Order cannot be canceled once items are fulfilled")

// LineItem is an immutable snapshot of a cart line plus fulfilment progress
type LineItem struct {
	ID                uuid.UUID
	VariantID         *uuid.UUID
	ProductID         *uuid.UUID
	InventoryItemID   *uuid.UUID
	Title             string
	SKU               string
	Thumbnail         string
	Quantity          int
	UnitPrice         decimal.Decimal
	RequiresShipping  bool
	ManageInventory   bool
	Adjustments       []cart.Adjustment
	TaxLines          []cart.TaxLine
	FulfilledQuantity int
	ShippedQuantity   int
	DeliveredQuantity int
	ReturnedQuantity  int
}

// Subtotal returns unit price times quantity
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Total returns subtotal minus discounts plus taxes
func (li *LineItem) Total() decimal.Decimal {
	total := li.Subtotal()
	for _, a := range li.Adjustments {
		total = total.Sub(a.Amount)
	}
	for _, t := range li.TaxLines {
		total = total.Add(t.Amount)
	}
	return total
}

// Order is a placed order
type Order struct {
	shared.BaseAggregateRoot
	DisplayID         int64
	CartID            *uuid.UUID
	CustomerID        *uuid.UUID
	Email             string
	RegionID          uuid.UUID
	CurrencyCode      string
	SalesChannelID    *uuid.UUID
	ShippingAddress   *valueobject.Address
	BillingAddress    *valueobject.Address
	Status            Status
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	Items             []LineItem
	ShippingMethods   []cart.ShippingMethod
	PromoCodes        []string
	Totals            cart.Totals
	CanceledAt        *time.Time
	Metadata          map[string]any
}

// NewFromCart snapshots a cart into a pending order
func NewFromCart(c *cart.Cart) (*Order, error) {
	if len(c.Items) == 0 {
		return nil, cart.ErrCartEmpty
	}
	cartID := c.ID
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CartID:            &cartID,
		CustomerID:        c.CustomerID,
		Email:             c.Email,
		RegionID:          c.RegionID,
		CurrencyCode:      c.CurrencyCode,
		SalesChannelID:    c.SalesChannelID,
		ShippingAddress:   c.ShippingAddress,
		BillingAddress:    c.BillingAddress,
		Status:            StatusPending,
		PaymentStatus:     PaymentNotPaid,
		FulfillmentStatus: FulfillmentNotFulfilled,
		ShippingMethods:   append([]cart.ShippingMethod(nil), c.ShippingMethods...),
		PromoCodes:        append([]string(nil), c.PromoCodes...),
		Totals:            c.Totals(),
		Metadata:          c.Metadata,
	}
	for _, li := range c.Items {
		o.Items = append(o.Items, LineItem{
			ID:               li.ID,
			VariantID:        li.VariantID,
			ProductID:        li.ProductID,
			InventoryItemID:  li.InventoryItemID,
			Title:            li.Title,
			SKU:              li.SKU,
			Thumbnail:        li.Thumbnail,
			Quantity:         li.Quantity,
			UnitPrice:        li.UnitPrice,
			RequiresShipping: li.RequiresShipping,
			ManageInventory:  li.ManageInventory,
			Adjustments:      li.Adjustments,
			TaxLines:         li.TaxLines,
		})
	}
	return o, nil
}

// Item returns the line with id
func (o *Order) Item(id uuid.UUID) (*LineItem, error) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], nil
		}
	}
	return nil, shared.NewNotFoundError("LineItem", id)
}

func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot move order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.Touch()
	return nil
}

// CanCancel reports whether nothing was fulfilled yet
func (o *Order) CanCancel() bool {
	if o.Status != StatusPending && o.Status != StatusRequiresAction {
		return false
	}
	for _, li := range o.Items {
		if li.FulfilledQuantity > 0 {
			return false
		}
	}
	return true
}

// Cancel cancels an unfulfilled order
func (o *Order) Cancel(at time.Time) error {
	if !o.CanCancel() {
		return ErrOrderNotCancelable
	}
	if err := o.transition(StatusCanceled); err != nil {
		return err
	}
	o.CanceledAt = &at
	o.FulfillmentStatus = FulfillmentCanceled
	o.AddDomainEvent(NewOrderEvent(EventOrderCanceled, o))
	return nil
}

// Complete marks the order as completed
func (o *Order) Complete() error {
	if err := o.transition(StatusCompleted); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderEvent(EventOrderCompleted, o))
	return nil
}

// Archive hides a completed or canceled order
func (o *Order) Archive() error {
	return o.transition(StatusArchived)
}

// SetPaymentStatus updates the payment summary
func (o *Order) SetPaymentStatus(s PaymentStatus) {
	o.PaymentStatus = s
	o.Touch()
}

// RegisterFulfillment records items as fulfilled. Quantities of the same line
// item are summed and cannot exceed what is ordered minus what was already
// fulfilled.
func (o *Order) RegisterFulfillment(items []fulfillment.Item) error {
	if o.Status == StatusCanceled || o.Status == StatusArchived {
		return shared.NewDomainError("INVALID_STATE", "order is "+string(o.Status))
	}
	var v shared.Validator
	requested := make(map[uuid.UUID]int, len(items))
	first := make(map[uuid.UUID]int, len(items))
	for i, it := range items {
		if _, err := o.Item(it.LineItemID); err != nil {
			v.Check(false, fmt.Sprintf("items.%d.line_item_id", i), err.Error())
			continue
		}
		if _, seen := first[it.LineItemID]; !seen {
			first[it.LineItemID] = i
		}
		requested[it.LineItemID] += it.Quantity
	}
	for id, qty := range requested {
		li, _ := o.Item(id)
		left := li.Quantity - li.FulfilledQuantity
		v.Check(qty <= left, fmt.Sprintf("items.%d.quantity", first[id]),
			fmt.Sprintf("only %d of %s left to fulfil", left, li.Title))
	}
	if err := v.Err(); err != nil {
		return err
	}
	for id, qty := range requested {
		li, _ := o.Item(id)
		li.FulfilledQuantity += qty
	}
	o.refreshFulfillmentStatus()
	return nil
}

// CancelFulfillment gives fulfilled quantities back
func (o *Order) CancelFulfillment(items []fulfillment.Item) {
	for _, it := range items {
		if li, err := o.Item(it.LineItemID); err == nil {
			li.FulfilledQuantity = max(0, li.FulfilledQuantity-it.Quantity)
		}
	}
	o.refreshFulfillmentStatus()
}

// RegisterShipment records shipped quantities of a fulfillment
func (o *Order) RegisterShipment(items []fulfillment.Item) {
	for _, it := range items {
		if li, err := o.Item(it.LineItemID); err == nil {
			li.ShippedQuantity = min(li.FulfilledQuantity, li.ShippedQuantity+it.Quantity)
		}
	}
	o.refreshFulfillmentStatus()
}

// RegisterDelivery records delivered quantities of a fulfillment
func (o *Order) RegisterDelivery(items []fulfillment.Item) {
	for _, it := range items {
		if li, err := o.Item(it.LineItemID); err == nil {
			li.DeliveredQuantity = min(li.ShippedQuantity, li.DeliveredQuantity+it.Quantity)
		}
	}
	o.refreshFulfillmentStatus()
}

func (o *Order) refreshFulfillmentStatus() {
	var ordered, fulfilled, shipped, delivered int
	for _, li := range o.Items {
		ordered += li.Quantity
		fulfilled += li.FulfilledQuantity
		shipped += li.ShippedQuantity
		delivered += li.DeliveredQuantity
	}
	switch {
	case ordered > 0 && delivered == ordered:
		o.FulfillmentStatus = FulfillmentDelivered
	case ordered > 0 && shipped == ordered:
		o.FulfillmentStatus = FulfillmentShipped
	case shipped > 0:
		o.FulfillmentStatus = FulfillmentPartiallyShipped
	case ordered > 0 && fulfilled == ordered:
		o.FulfillmentStatus = FulfillmentFulfilled
	case fulfilled > 0:
		o.FulfillmentStatus = FulfillmentPartiallyFulfilled
	default:
		o.FulfillmentStatus = FulfillmentNotFulfilled
	}
	o.Touch()
}

// ValidateReturn checks that returned quantities do not exceed what was
// shipped and not yet returned. Each line item may appear once.
func (o *Order) ValidateReturn(items []ReturnItem) error {
	var v shared.Validator
	v.Check(len(items) > 0, "items", "at least one item is required")
	seen := make(map[uuid.UUID]bool, len(items))
	for i, it := range items {
		li, err := o.Item(it.LineItemID)
		if err != nil {
			v.Check(false, fmt.Sprintf("items.%d.line_item_id", i), err.Error())
			continue
		}
		if seen[it.LineItemID] {
			v.Check(false, fmt.Sprintf("items.%d.line_item_id", i), "line item is listed more than once")
			continue
		}
		seen[it.LineItemID] = true
		v.Check(it.Quantity > 0, fmt.Sprintf("items.%d.quantity", i), "quantity must be greater than 0")
		v.Check(it.Quantity <= li.ShippedQuantity-li.ReturnedQuantity, fmt.Sprintf("items.%d.quantity", i),
			fmt.Sprintf("only %d of %s can be returned", li.ShippedQuantity-li.ReturnedQuantity, li.Title))
	}
	return v.Err()
}

// RefundAmountFor prices returned items at what the customer paid per unit
func (o *Order) RefundAmountFor(items []ReturnItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		li, err := o.Item(it.LineItemID)
		if err != nil || li.Quantity == 0 {
			continue
		}
		perUnit := li.Total().Div(decimal.NewFromInt(int64(li.Quantity)))
		total = total.Add(perUnit.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return valueobject.RoundAmount(total, o.CurrencyCode)
}

// RegisterReturn adds received quantities
func (o *Order) RegisterReturn(items []ReturnItem) error {
	if err := o.ValidateReturn(items); err != nil {
		return err
	}
	for _, it := range items {
		li, _ := o.Item(it.LineItemID)
		li.ReturnedQuantity += it.Quantity
	}
	o.Touch()
	return nil
}

// Repository persists orders
type Repository interface {
	// Create assigns the next display id and stores the order
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByCartID(ctx context.Context, cartID uuid.UUID) (*Order, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Order, int64, error)
}

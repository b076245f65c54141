// Package cart holds the shopping cart aggregate and its totals.
package cart

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart errors
var (
	ErrCartCompleted = shared.NewDomainError("CART_COMPLETED", "Cart is already completed")
	ErrCartEmpty     = shared.NewDomainError("CART_EMPTY", "Cart has no line items")
)

// Adjustment is a discount applied to a line item or shipping method
type Adjustment struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Amount      decimal.Decimal `json:"amount"`
	PromotionID uuid.UUID       `json:"promotion_id"`
	CampaignID  *uuid.UUID      `json:"campaign_id,omitempty"`
}

// TaxLine is a tax applied to a line item or shipping method
type TaxLine struct {
	ID     uuid.UUID       `json:"id"`
	RateID uuid.UUID       `json:"rate_id"`
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// LineItem is a variant with a quantity in a cart
type LineItem struct {
	ID               uuid.UUID
	VariantID        *uuid.UUID
	ProductID        *uuid.UUID
	ProductTypeID    *uuid.UUID
	InventoryItemID  *uuid.UUID
	Title            string
	Subtitle         string
	Thumbnail        string
	SKU              string
	Quantity         int
	UnitPrice        decimal.Decimal
	OriginalPrice    decimal.Decimal
	IsDiscountable   bool
	IsTaxInclusive   bool
	RequiresShipping bool
	ManageInventory  bool
	AllowBackorder   bool
	Adjustments      []Adjustment
	TaxLines         []TaxLine
	CreatedAt        time.Time
}

// Subtotal returns unit price times quantity
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// DiscountTotal sums adjustments
func (li *LineItem) DiscountTotal() decimal.Decimal {
	return sumAdjustments(li.Adjustments)
}

// TaxTotal sums tax lines
func (li *LineItem) TaxTotal() decimal.Decimal {
	return sumTaxLines(li.TaxLines)
}

// ShippingMethod is the chosen shipping option of a cart
type ShippingMethod struct {
	ID               uuid.UUID
	ShippingOptionID uuid.UUID
	Name             string
	Amount           decimal.Decimal
	Data             map[string]any
	Adjustments      []Adjustment
	TaxLines         []TaxLine
}

// Totals are computed amounts of a cart, rounded to the currency
type Totals struct {
	ItemSubtotal          decimal.Decimal `json:"item_subtotal"`
	ItemDiscountTotal     decimal.Decimal `json:"item_discount_total"`
	ItemTaxTotal          decimal.Decimal `json:"item_tax_total"`
	ShippingSubtotal      decimal.Decimal `json:"shipping_subtotal"`
	ShippingDiscountTotal decimal.Decimal `json:"shipping_discount_total"`
	ShippingTaxTotal      decimal.Decimal `json:"shipping_tax_total"`
	DiscountTotal         decimal.Decimal `json:"discount_total"`
	TaxTotal              decimal.Decimal `json:"tax_total"`
	Total                 decimal.Decimal `json:"total"`
}

// Cart is the shopping cart aggregate
type Cart struct {
	shared.BaseAggregateRoot
	RegionID        uuid.UUID
	CurrencyCode    string
	CustomerID      *uuid.UUID
	Email           string
	SalesChannelID  *uuid.UUID
	ShippingAddress *valueobject.Address
	BillingAddress  *valueobject.Address
	Items           []LineItem
	ShippingMethods []ShippingMethod
	PromoCodes      []string
	CompletedAt     *time.Time
	Metadata        map[string]any
}

// NewCart creates an empty cart in a region
func NewCart(regionID uuid.UUID, currencyCode string) (*Cart, error) {
	var v shared.Validator
	v.Check(regionID != uuid.Nil, "region_id", "region_id is required")
	v.Check(len(strings.TrimSpace(currencyCode)) == 3, "currency_code", "currency_code must be a 3 letter code")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RegionID:          regionID,
		CurrencyCode:      strings.ToUpper(strings.TrimSpace(currencyCode)),
	}, nil
}

// IsCompleted reports whether the cart was turned into an order
func (c *Cart) IsCompleted() bool {
	return c.CompletedAt != nil
}

// EnsureMutable fails for completed carts
func (c *Cart) EnsureMutable() error {
	if c.IsCompleted() {
		return ErrCartCompleted
	}
	return nil
}

// SetEmail sets the contact email
func (c *Cart) SetEmail(email string) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	email = shared.NormalizeEmail(email)
	if email != "" && !shared.IsValidEmail(email) {
		return shared.NewInvalidDataError("email", "email is invalid")
	}
	c.Email = email
	c.Touch()
	return nil
}

// SetAddresses replaces the shipping and billing address. A nil argument keeps the current value.
func (c *Cart) SetAddresses(shipping, billing *valueobject.Address) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	var v shared.Validator
	if shipping != nil {
		a := shipping.Normalize()
		if err := a.Validate(); err != nil {
			v.Check(false, "shipping_address", err.Error())
		}
		shipping = &a
	}
	if billing != nil {
		a := billing.Normalize()
		if err := a.Validate(); err != nil {
			v.Check(false, "billing_address", err.Error())
		}
		billing = &a
	}
	if err := v.Err(); err != nil {
		return err
	}
	if shipping != nil {
		c.ShippingAddress = shipping
	}
	if billing != nil {
		c.BillingAddress = billing
	}
	c.Touch()
	return nil
}

// SetRegion moves the cart to another region. Prices, shipping methods and
// tax lines no longer apply and must be recomputed by the caller.
func (c *Cart) SetRegion(regionID uuid.UUID, currencyCode string) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	if regionID == c.RegionID {
		return nil
	}
	c.RegionID = regionID
	c.CurrencyCode = strings.ToUpper(currencyCode)
	c.ShippingMethods = nil
	for i := range c.Items {
		c.Items[i].TaxLines = nil
	}
	c.Touch()
	return nil
}

// SetCustomer links the cart to a customer
func (c *Cart) SetCustomer(customerID *uuid.UUID, email string) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	c.CustomerID = customerID
	if email != "" {
		return c.SetEmail(email)
	}
	c.Touch()
	return nil
}

// AddLineItem adds an item. A line for the same variant absorbs the quantity
// and takes the new unit price. The resulting line is returned.
func (c *Cart) AddLineItem(item LineItem) (*LineItem, error) {
	if err := c.EnsureMutable(); err != nil {
		return nil, err
	}
	if item.Quantity <= 0 {
		return nil, shared.NewInvalidDataError("quantity", "quantity must be greater than 0")
	}
	if item.UnitPrice.IsNegative() {
		return nil, shared.NewInvalidDataError("unit_price", "unit_price cannot be negative")
	}
	if item.VariantID != nil {
		for i := range c.Items {
			existing := &c.Items[i]
			if existing.VariantID != nil && *existing.VariantID == *item.VariantID {
				existing.Quantity += item.Quantity
				existing.UnitPrice = item.UnitPrice
				existing.OriginalPrice = item.OriginalPrice
				c.Touch()
				return existing, nil
			}
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.OriginalPrice.IsZero() {
		item.OriginalPrice = item.UnitPrice
	}
	c.Items = append(c.Items, item)
	c.Touch()
	return &c.Items[len(c.Items)-1], nil
}

// LineItem returns the line with id
func (c *Cart) LineItem(id uuid.UUID) (*LineItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], nil
		}
	}
	return nil, shared.NewNotFoundError("LineItem", id)
}

// UpdateLineItemQuantity sets the quantity of a line; zero removes it
func (c *Cart) UpdateLineItemQuantity(id uuid.UUID, quantity int) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	if quantity < 0 {
		return shared.NewInvalidDataError("quantity", "quantity cannot be negative")
	}
	if quantity == 0 {
		return c.RemoveLineItem(id)
	}
	li, err := c.LineItem(id)
	if err != nil {
		return err
	}
	li.Quantity = quantity
	c.Touch()
	return nil
}

// RemoveLineItem deletes a line
func (c *Cart) RemoveLineItem(id uuid.UUID) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("LineItem", id)
}

// SetShippingMethod replaces the shipping methods with one method
func (c *Cart) SetShippingMethod(method ShippingMethod) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	if method.Amount.IsNegative() {
		return shared.NewInvalidDataError("amount", "amount cannot be negative")
	}
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	c.ShippingMethods = []ShippingMethod{method}
	c.Touch()
	return nil
}

// RemoveShippingMethod drops a shipping method
func (c *Cart) RemoveShippingMethod(id uuid.UUID) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	for i := range c.ShippingMethods {
		if c.ShippingMethods[i].ID == id {
			c.ShippingMethods = append(c.ShippingMethods[:i], c.ShippingMethods[i+1:]...)
			c.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("ShippingMethod", id)
}

// ClearShippingAddress removes the shipping address along with the tax lines derived from it
func (c *Cart) ClearShippingAddress() {
	c.ShippingAddress = nil
	c.ApplyTaxLines(nil)
}

// AddPromoCodes registers codes; duplicates are ignored
func (c *Cart) AddPromoCodes(codes ...string) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || c.HasPromoCode(code) {
			continue
		}
		c.PromoCodes = append(c.PromoCodes, code)
	}
	c.Touch()
	return nil
}

// RemovePromoCodes drops codes
func (c *Cart) RemovePromoCodes(codes ...string) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	drop := make(map[string]bool, len(codes))
	for _, code := range codes {
		drop[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	kept := c.PromoCodes[:0]
	for _, code := range c.PromoCodes {
		if !drop[code] {
			kept = append(kept, code)
		}
	}
	c.PromoCodes = kept
	c.Touch()
	return nil
}

// HasPromoCode reports whether code is registered
func (c *Cart) HasPromoCode(code string) bool {
	code = strings.ToUpper(code)
	for _, existing := range c.PromoCodes {
		if existing == code {
			return true
		}
	}
	return false
}

// PromotionContext builds the view the promotion engine evaluates
func (c *Cart) PromotionContext(customerGroupIDs []uuid.UUID, at time.Time) promotion.CartContext {
	ctx := promotion.CartContext{
		CurrencyCode:     c.CurrencyCode,
		RegionID:         &c.RegionID,
		CustomerID:       c.CustomerID,
		CustomerGroupIDs: customerGroupIDs,
		SalesChannelID:   c.SalesChannelID,
		At:               at,
	}
	for _, li := range c.Items {
		item := promotion.CartItem{
			ID:           li.ID,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice,
			Discountable: li.IsDiscountable,
		}
		if li.ProductID != nil {
			item.ProductID = *li.ProductID
		}
		if li.VariantID != nil {
			item.VariantID = *li.VariantID
		}
		ctx.Items = append(ctx.Items, item)
	}
	for _, sm := range c.ShippingMethods {
		ctx.ShippingMethods = append(ctx.ShippingMethods, promotion.CartShipping{
			ID:               sm.ID,
			ShippingOptionID: sm.ShippingOptionID,
			Amount:           sm.Amount,
		})
	}
	return ctx
}

// ApplyAdjustments replaces all adjustments with those computed by the promotion engine
func (c *Cart) ApplyAdjustments(adjustments []promotion.Adjustment) {
	for i := range c.Items {
		c.Items[i].Adjustments = nil
	}
	for i := range c.ShippingMethods {
		c.ShippingMethods[i].Adjustments = nil
	}
	for _, a := range adjustments {
		adj := Adjustment{ID: uuid.New(), Code: a.Code, Amount: a.Amount, PromotionID: a.PromotionID, CampaignID: a.CampaignID}
		if a.IsShipping {
			for i := range c.ShippingMethods {
				if c.ShippingMethods[i].ID == a.ItemID {
					c.ShippingMethods[i].Adjustments = append(c.ShippingMethods[i].Adjustments, adj)
				}
			}
			continue
		}
		for i := range c.Items {
			if c.Items[i].ID == a.ItemID {
				c.Items[i].Adjustments = append(c.Items[i].Adjustments, adj)
			}
		}
	}
	c.Touch()
}

// Adjustments returns every adjustment as promotion engine output
func (c *Cart) Adjustments() []promotion.Adjustment {
	var out []promotion.Adjustment
	for _, li := range c.Items {
		for _, a := range li.Adjustments {
			out = append(out, promotion.Adjustment{ItemID: li.ID, PromotionID: a.PromotionID, CampaignID: a.CampaignID, Code: a.Code, Amount: a.Amount})
		}
	}
	for _, sm := range c.ShippingMethods {
		for _, a := range sm.Adjustments {
			out = append(out, promotion.Adjustment{ItemID: sm.ID, IsShipping: true, PromotionID: a.PromotionID, CampaignID: a.CampaignID, Code: a.Code, Amount: a.Amount})
		}
	}
	return out
}

// TaxInput returns the discounted taxable amounts of items and shipping methods
func (c *Cart) TaxInput() ([]tax.Item, []tax.ShippingItem) {
	items := make([]tax.Item, 0, len(c.Items))
	for _, li := range c.Items {
		items = append(items, tax.Item{
			ID:            li.ID,
			ProductID:     li.ProductID,
			ProductTypeID: li.ProductTypeID,
			Taxable:       nonNegative(li.Subtotal().Sub(li.DiscountTotal())),
		})
	}
	shipping := make([]tax.ShippingItem, 0, len(c.ShippingMethods))
	for _, sm := range c.ShippingMethods {
		optionID := sm.ShippingOptionID
		shipping = append(shipping, tax.ShippingItem{
			ID:               sm.ID,
			ShippingOptionID: &optionID,
			Taxable:          nonNegative(sm.Amount.Sub(sumAdjustments(sm.Adjustments))),
		})
	}
	return items, shipping
}

// ApplyTaxLines replaces all tax lines
func (c *Cart) ApplyTaxLines(lines []tax.Line) {
	for i := range c.Items {
		c.Items[i].TaxLines = nil
	}
	for i := range c.ShippingMethods {
		c.ShippingMethods[i].TaxLines = nil
	}
	for _, l := range lines {
		tl := TaxLine{ID: uuid.New(), RateID: l.RateID, Code: l.Code, Name: l.Name, Rate: l.Rate, Amount: l.Amount}
		if l.Shipped {
			for i := range c.ShippingMethods {
				if c.ShippingMethods[i].ID == l.ItemID {
					c.ShippingMethods[i].TaxLines = append(c.ShippingMethods[i].TaxLines, tl)
				}
			}
			continue
		}
		for i := range c.Items {
			if c.Items[i].ID == l.ItemID {
				c.Items[i].TaxLines = append(c.Items[i].TaxLines, tl)
			}
		}
	}
	c.Touch()
}

// RequiresShipping reports whether any item needs to be shipped
func (c *Cart) RequiresShipping() bool {
	for _, li := range c.Items {
		if li.RequiresShipping {
			return true
		}
	}
	return false
}

// Totals computes the cart totals
func (c *Cart) Totals() Totals {
	var t Totals
	for i := range c.Items {
		li := &c.Items[i]
		t.ItemSubtotal = t.ItemSubtotal.Add(li.Subtotal())
		t.ItemDiscountTotal = t.ItemDiscountTotal.Add(li.DiscountTotal())
		t.ItemTaxTotal = t.ItemTaxTotal.Add(li.TaxTotal())
	}
	for _, sm := range c.ShippingMethods {
		t.ShippingSubtotal = t.ShippingSubtotal.Add(sm.Amount)
		t.ShippingDiscountTotal = t.ShippingDiscountTotal.Add(sumAdjustments(sm.Adjustments))
		t.ShippingTaxTotal = t.ShippingTaxTotal.Add(sumTaxLines(sm.TaxLines))
	}
	t.DiscountTotal = t.ItemDiscountTotal.Add(t.ShippingDiscountTotal)
	t.TaxTotal = t.ItemTaxTotal.Add(t.ShippingTaxTotal)
	t.Total = t.ItemSubtotal.Add(t.ShippingSubtotal).Sub(t.DiscountTotal).Add(t.TaxTotal)

	round := func(d decimal.Decimal) decimal.Decimal { return valueobject.RoundAmount(d, c.CurrencyCode) }
	t.ItemSubtotal = round(t.ItemSubtotal)
	t.ItemDiscountTotal = round(t.ItemDiscountTotal)
	t.ItemTaxTotal = round(t.ItemTaxTotal)
	t.ShippingSubtotal = round(t.ShippingSubtotal)
	t.ShippingDiscountTotal = round(t.ShippingDiscountTotal)
	t.ShippingTaxTotal = round(t.ShippingTaxTotal)
	t.DiscountTotal = round(t.DiscountTotal)
	t.TaxTotal = round(t.TaxTotal)
	t.Total = round(t.Total)
	return t
}

// Complete marks the cart as turned into an order
func (c *Cart) Complete(at time.Time) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	if len(c.Items) == 0 {
		return ErrCartEmpty
	}
	c.CompletedAt = &at
	c.Touch()
	return nil
}

func sumAdjustments(adjs []Adjustment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range adjs {
		total = total.Add(a.Amount)
	}
	return total
}

func sumTaxLines(lines []TaxLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Repository persists carts with their items and shipping methods
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	// Save writes the cart and replaces its items and shipping methods
	Save(ctx context.Context, c *Cart) error
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q shared.ListQuery) ([]*Cart, int64, error)
	// DeleteAbandoned soft deletes incomplete carts untouched since before
	DeleteAbandoned(ctx context.Context, before time.Time) (int64, error)
}

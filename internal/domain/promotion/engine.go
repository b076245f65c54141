package promotion

import (
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is the promotion view of a line item
type CartItem struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	VariantID    uuid.UUID
	Quantity     int
	UnitPrice    decimal.Decimal
	Discountable bool
}

// Subtotal returns unit price times quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartShipping is the promotion view of a shipping method
type CartShipping struct {
	ID               uuid.UUID
	ShippingOptionID uuid.UUID
	Amount           decimal.Decimal
}

// CartContext holds what promotion rules are evaluated against
type CartContext struct {
	CurrencyCode     string
	RegionID         *uuid.UUID
	CustomerID       *uuid.UUID
	CustomerGroupIDs []uuid.UUID
	SalesChannelID   *uuid.UUID
	Items            []CartItem
	ShippingMethods  []CartShipping
	At               time.Time
}

// ItemSubtotal sums all item subtotals
func (c CartContext) ItemSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Adjustment is a discount produced by a promotion for one item or shipping method
type Adjustment struct {
	ItemID      uuid.UUID       `json:"item_id"`
	IsShipping  bool            `json:"is_shipping"`
	PromotionID uuid.UUID       `json:"promotion_id"`
	CampaignID  *uuid.UUID      `json:"campaign_id,omitempty"`
	Code        string          `json:"code"`
	Amount      decimal.Decimal `json:"amount"`
}

// ComputeActions evaluates promotions in order against the cart and returns
// adjustments. Each promotion only discounts what earlier ones left, so an
// item is never discounted below zero. Promotions whose campaign budget cannot
// cover the computed discount are skipped.
func ComputeActions(promotions []*Promotion, cart CartContext) []Adjustment {
	at := cart.At
	if at.IsZero() {
		at = time.Now()
	}
	remaining := make(map[uuid.UUID]decimal.Decimal, len(cart.Items)+len(cart.ShippingMethods))
	for _, it := range cart.Items {
		remaining[it.ID] = it.Subtotal()
	}
	for _, sm := range cart.ShippingMethods {
		remaining[sm.ID] = sm.Amount
	}

	var out []Adjustment
	for _, p := range promotions {
		if !p.IsActiveAt(at) || !rulesMatch(p.Rules, cartAttributes(cart)) {
			continue
		}
		m := p.Method
		if m.Type == MethodFixed && !strings.EqualFold(m.CurrencyCode, cart.CurrencyCode) {
			continue
		}

		adjustments := computePromotion(p, cart, remaining)
		total := decimal.Zero
		for _, a := range adjustments {
			total = total.Add(a.Amount)
		}
		if len(adjustments) == 0 || !total.IsPositive() {
			continue
		}
		if p.Campaign != nil && p.Campaign.Budget != nil {
			delta := total
			if p.Campaign.Budget.Type == BudgetUsage {
				delta = decimal.NewFromInt(1)
			}
			if !p.Campaign.Budget.CanUse(delta) {
				continue
			}
		}
		for _, a := range adjustments {
			remaining[a.ItemID] = remaining[a.ItemID].Sub(a.Amount)
		}
		out = append(out, adjustments...)
	}
	return out
}

type target struct {
	id        uuid.UUID
	shipping  bool
	unitPrice decimal.Decimal
	quantity  int
	remaining decimal.Decimal
}

func computePromotion(p *Promotion, cart CartContext, remaining map[uuid.UUID]decimal.Decimal) []Adjustment {
	m := p.Method
	var targets []target
	switch m.TargetType {
	case TargetItems, TargetOrder:
		for _, it := range cart.Items {
			if !it.Discountable {
				continue
			}
			if m.TargetType == TargetItems && !rulesMatch(m.TargetRules, itemAttributes(it)) {
				continue
			}
			targets = append(targets, target{id: it.ID, unitPrice: it.UnitPrice, quantity: it.Quantity, remaining: remaining[it.ID]})
		}
	case TargetShippingMethods:
		for _, sm := range cart.ShippingMethods {
			if !rulesMatch(m.TargetRules, map[string][]string{"shipping_option_id": {sm.ShippingOptionID.String()}}) {
				continue
			}
			targets = append(targets, target{id: sm.ID, shipping: true, unitPrice: sm.Amount, quantity: 1, remaining: remaining[sm.ID]})
		}
	}
	if len(targets) == 0 {
		return nil
	}

	amounts := make([]decimal.Decimal, len(targets))
	if m.Allocation == AllocationAcross {
		weights := make([]decimal.Decimal, len(targets))
		pool := decimal.Zero
		for i, t := range targets {
			weights[i] = decimal.Max(t.remaining, decimal.Zero)
			pool = pool.Add(weights[i])
		}
		if !pool.IsPositive() {
			return nil
		}
		var discount decimal.Decimal
		if m.Type == MethodPercentage {
			discount = valueobject.Percentage(pool, m.Value, cart.CurrencyCode)
		} else {
			discount = valueobject.MinDecimal(m.Value, pool)
		}
		parts, err := valueobject.Allocate(discount, weights, cart.CurrencyCode)
		if err != nil {
			return nil
		}
		amounts = parts
	} else {
		for i, t := range targets {
			qty := t.quantity
			if m.MaxQuantity != nil && qty > *m.MaxQuantity {
				qty = *m.MaxQuantity
			}
			var amount decimal.Decimal
			if m.Type == MethodPercentage {
				amount = valueobject.Percentage(t.unitPrice.Mul(decimal.NewFromInt(int64(qty))), m.Value, cart.CurrencyCode)
			} else {
				amount = m.Value.Mul(decimal.NewFromInt(int64(qty)))
			}
			amounts[i] = valueobject.MinDecimal(amount, decimal.Max(t.remaining, decimal.Zero))
		}
	}

	out := make([]Adjustment, 0, len(targets))
	for i, t := range targets {
		if !amounts[i].IsPositive() {
			continue
		}
		out = append(out, Adjustment{
			ItemID:      t.id,
			IsShipping:  t.shipping,
			PromotionID: p.ID,
			CampaignID:  p.CampaignID,
			Code:        p.Code,
			Amount:      amounts[i],
		})
	}
	return out
}

func cartAttributes(c CartContext) map[string][]string {
	attrs := map[string][]string{
		"currency_code": {strings.ToUpper(c.CurrencyCode)},
		"item_total":    {c.ItemSubtotal().String()},
	}
	if c.RegionID != nil {
		attrs["region_id"] = []string{c.RegionID.String()}
	}
	if c.CustomerID != nil {
		attrs["customer_id"] = []string{c.CustomerID.String()}
	}
	if c.SalesChannelID != nil {
		attrs["sales_channel_id"] = []string{c.SalesChannelID.String()}
	}
	groups := make([]string, len(c.CustomerGroupIDs))
	for i, g := range c.CustomerGroupIDs {
		groups[i] = g.String()
	}
	attrs["customer_group_id"] = groups
	return attrs
}

func itemAttributes(it CartItem) map[string][]string {
	return map[string][]string{
		"product_id": {it.ProductID.String()},
		"variant_id": {it.VariantID.String()},
	}
}

// rulesMatch requires every rule to hold. A missing attribute fails the rule.
func rulesMatch(rules []Rule, attrs map[string][]string) bool {
	for _, r := range rules {
		if !ruleMatches(r, attrs[r.Attribute]) {
			return false
		}
	}
	return true
}

func ruleMatches(r Rule, actual []string) bool {
	switch r.Operator {
	case OpEq, OpIn:
		return intersects(actual, r.Values)
	case OpNe:
		return !intersects(actual, r.Values)
	case OpGt, OpGte, OpLt, OpLte:
		if len(actual) == 0 || len(r.Values) == 0 {
			return false
		}
		a, err1 := decimal.NewFromString(actual[0])
		b, err2 := decimal.NewFromString(r.Values[0])
		if err1 != nil || err2 != nil {
			return false
		}
		switch r.Operator {
		case OpGt:
			return a.GreaterThan(b)
		case OpGte:
			return a.GreaterThanOrEqual(b)
		case OpLt:
			return a.LessThan(b)
		default:
			return a.LessThanOrEqual(b)
		}
	}
	return false
}

func intersects(actual, values []string) bool {
	for _, a := range actual {
		for _, v := range values {
			if strings.EqualFold(a, v) {
				return true
			}
		}
	}
	return false
}

package pricing

import (
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Context is the pricing context of a calculation
type Context struct {
	CurrencyCode     string
	RegionID         *uuid.UUID
	Quantity         int
	CustomerGroupIDs []uuid.UUID
	At               time.Time
}

// CalculatedPrice is the resolved price for one variant
type CalculatedPrice struct {
	VariantID        uuid.UUID       `json:"variant_id"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	CurrencyCode     string          `json:"currency_code"`
	IsOnSale         bool            `json:"is_on_sale"`
	PriceListID      *uuid.UUID      `json:"price_list_id,omitempty"`
}

// Calculate picks the price for variantID among candidates.
//
// Base prices must match the currency and quantity tier; a region specific
// price wins over a generic one, and among equals the cheapest wins. Active
// price lists then apply: override lists always replace the base price, sale
// lists only when cheaper.
func Calculate(variantID uuid.UUID, candidates []Price, lists map[uuid.UUID]*PriceList, pc Context) (CalculatedPrice, error) {
	qty := pc.Quantity
	if qty <= 0 {
		qty = 1
	}
	at := pc.At
	if at.IsZero() {
		at = time.Now()
	}

	var base *Price
	var override, sale *Price
	for i := range candidates {
		p := &candidates[i]
		if p.VariantID != variantID || p.CurrencyCode != pc.CurrencyCode || !p.coversQuantity(qty) {
			continue
		}
		if p.RegionID != nil && (pc.RegionID == nil || *p.RegionID != *pc.RegionID) {
			continue
		}
		if p.PriceListID == nil {
			if better(p, base) {
				base = p
			}
			continue
		}
		pl, ok := lists[*p.PriceListID]
		if !ok || !pl.IsActiveAt(at, pc.CustomerGroupIDs) {
			continue
		}
		switch pl.Type {
		case PriceListTypeOverride:
			if better(p, override) {
				override = p
			}
		case PriceListTypeSale:
			if better(p, sale) {
				sale = p
			}
		}
	}

	if base == nil && override == nil {
		return CalculatedPrice{}, shared.NewNotFoundError("Price for variant", variantID)
	}

	result := CalculatedPrice{VariantID: variantID, CurrencyCode: pc.CurrencyCode}
	if override != nil {
		result.OriginalAmount = override.Amount
		result.CalculatedAmount = override.Amount
		result.PriceListID = override.PriceListID
	} else {
		result.OriginalAmount = base.Amount
		result.CalculatedAmount = base.Amount
	}
	if sale != nil && sale.Amount.LessThan(result.CalculatedAmount) {
		result.CalculatedAmount = sale.Amount
		result.PriceListID = sale.PriceListID
		result.IsOnSale = true
	}
	return result, nil
}

// better prefers region specific prices, then the lower amount
func better(p, current *Price) bool {
	if current == nil {
		return true
	}
	if (p.RegionID != nil) != (current.RegionID != nil) {
		return p.RegionID != nil
	}
	return p.Amount.LessThan(current.Amount)
}

package tax

import (
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a computed tax line for an item or shipping method
type Line struct {
	ItemID  uuid.UUID       `json:"item_id"`
	RateID  uuid.UUID       `json:"rate_id"`
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Rate    decimal.Decimal `json:"rate"`
	Amount  decimal.Decimal `json:"amount"`
	Shipped bool            `json:"is_shipping"`
}

// Item is the taxable part of a line item
type Item struct {
	ID            uuid.UUID
	ProductID     *uuid.UUID
	ProductTypeID *uuid.UUID
	// Taxable is the amount after discounts
	Taxable decimal.Decimal
}

// ShippingItem is the taxable part of a shipping method
type ShippingItem struct {
	ID               uuid.UUID
	ShippingOptionID *uuid.UUID
	Taxable          decimal.Decimal
}

// Calculate returns tax lines for items and shipping methods using the
// country region and optional province region of an address.
//
// Resolution per item: a province rate whose rule matches wins, then a
// country rate whose rule matches, then the province default; a combinable
// province default is added on top of the country default.
func Calculate(country, province *Region, items []Item, shipping []ShippingItem, currencyCode string) []Line {
	var lines []Line
	for _, it := range items {
		for _, rate := range resolve(country, province, func(r *Rate) bool {
			return r.matches(ReferenceProduct, it.ProductID) || r.matches(ReferenceProductType, it.ProductTypeID)
		}) {
			lines = append(lines, newLine(it.ID, rate, it.Taxable, currencyCode, false))
		}
	}
	for _, sm := range shipping {
		for _, rate := range resolve(country, province, func(r *Rate) bool {
			return r.matches(ReferenceShippingOption, sm.ShippingOptionID)
		}) {
			lines = append(lines, newLine(sm.ID, rate, sm.Taxable, currencyCode, true))
		}
	}
	return lines
}

func resolve(country, province *Region, match func(*Rate) bool) []*Rate {
	for _, region := range []*Region{province, country} {
		if region == nil {
			continue
		}
		for i := range region.Rates {
			r := &region.Rates[i]
			if !r.IsDefault && !r.IsDeleted() && match(r) {
				return []*Rate{r}
			}
		}
	}

	var countryDefault *Rate
	if country != nil {
		countryDefault = country.DefaultRate()
	}
	if province != nil {
		if pd := province.DefaultRate(); pd != nil {
			if pd.IsCombinable && countryDefault != nil {
				return []*Rate{countryDefault, pd}
			}
			return []*Rate{pd}
		}
	}
	if countryDefault != nil {
		return []*Rate{countryDefault}
	}
	return nil
}

func newLine(itemID uuid.UUID, rate *Rate, taxable decimal.Decimal, currencyCode string, shipping bool) Line {
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	return Line{
		ItemID:  itemID,
		RateID:  rate.ID,
		Code:    rate.Code,
		Name:    rate.Name,
		Rate:    rate.Rate,
		Amount:  valueobject.Percentage(taxable, rate.Rate, currencyCode),
		Shipped: shipping,
	}
}

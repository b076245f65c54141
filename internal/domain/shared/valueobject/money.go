package valueobject

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var hundred = decimal.NewFromInt(100)

// CurrencyDigits returns the number of minor unit digits for an ISO 4217 code.
// Unknown codes use two digits.
func CurrencyDigits(code string) int32 {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// RoundAmount rounds amount half-up to the precision of the currency
func RoundAmount(amount decimal.Decimal, currencyCode string) decimal.Decimal {
	return amount.Round(CurrencyDigits(currencyCode))
}

// Percentage returns percent% of amount rounded to the currency precision
func Percentage(amount, percent decimal.Decimal, currencyCode string) decimal.Decimal {
	return RoundAmount(amount.Mul(percent).Div(hundred), currencyCode)
}

// MinDecimal returns the smaller of a and b
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Allocate splits total across weights in proportion, rounded to the currency
// precision. Shares are rounded down and the leftover minor units go one at a
// time to the largest fractional remainders, so the parts sum to total. When
// total does not exceed the sum of weights no part exceeds its weight.
func Allocate(total decimal.Decimal, weights []decimal.Decimal, currencyCode string) ([]decimal.Decimal, error) {
	if len(weights) == 0 {
		return nil, errors.New("weights cannot be empty")
	}
	if total.IsNegative() {
		return nil, errors.New("total cannot be negative")
	}
	sum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, errors.New("weights cannot be negative")
		}
		sum = sum.Add(w)
	}
	parts := make([]decimal.Decimal, len(weights))
	for i := range parts {
		parts[i] = decimal.Zero
	}
	if !sum.IsPositive() {
		return parts, nil
	}

	digits := CurrencyDigits(currencyCode)
	unit := decimal.New(1, -digits)
	total = total.Round(digits)
	capped := total.LessThanOrEqual(sum)

	fractions := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		exact := total.Mul(w).Div(sum)
		parts[i] = exact.RoundFloor(digits)
		fractions[i] = exact.Sub(parts[i])
		allocated = allocated.Add(parts[i])
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]].GreaterThan(fractions[order[b]])
	})

	left := total.Sub(allocated)
	for left.GreaterThanOrEqual(unit) {
		given := false
		for _, i := range order {
			if left.LessThan(unit) {
				break
			}
			if !weights[i].IsPositive() {
				continue
			}
			next := parts[i].Add(unit)
			if capped && next.GreaterThan(weights[i]) {
				continue
			}
			parts[i] = next
			left = left.Sub(unit)
			given = true
		}
		if !given {
			break
		}
	}
	return parts, nil
}

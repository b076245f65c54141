// Package currency holds the ISO 4217 currencies a store can sell in.
package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/currency"
)

// Currency is a supported currency keyed by its ISO 4217 code
type Currency struct {
	Code          string
	Symbol        string
	SymbolNative  string
	Name          string
	DecimalDigits int32
}

// New validates code against ISO 4217 and fills symbol and precision defaults.
func New(code, name, symbol, symbolNative string) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, shared.NewInvalidDataError("code", "code must be a valid ISO 4217 currency code")
	}
	if symbol == "" {
		symbol = DefaultSymbol(unit)
	}
	if symbolNative == "" {
		symbolNative = symbol
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	return &Currency{
		Code:          code,
		Symbol:        symbol,
		SymbolNative:  symbolNative,
		Name:          name,
		DecimalDigits: valueobject.CurrencyDigits(code),
	}, nil
}

// DefaultSymbol renders the narrow symbol of a currency unit
func DefaultSymbol(unit currency.Unit) string {
	return strings.TrimSpace(fmt.Sprint(currency.NarrowSymbol(unit)))
}

// Repository defines currency persistence
type Repository interface {
	Upsert(ctx context.Context, c *Currency) error
	FindByCode(ctx context.Context, code string) (*Currency, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Currency, int64, error)
}

// Package pricing stores variant prices and resolves the price that applies to a cart line.
package pricing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Price is an amount for a variant in one currency, optionally bound to a
// region and a quantity tier.
type Price struct {
	ID           uuid.UUID
	VariantID    uuid.UUID
	PriceListID  *uuid.UUID
	Amount       decimal.Decimal
	CurrencyCode string
	RegionID     *uuid.UUID
	MinQuantity  *int
	MaxQuantity  *int
}

// Validate checks amount, currency and tier bounds
func (p Price) Validate(path string) error {
	var v shared.Validator
	v.Check(!p.Amount.IsNegative(), path+".amount", "amount cannot be negative")
	v.Check(len(p.CurrencyCode) == 3, path+".currency_code", "currency_code must be a 3 letter ISO code")
	if p.MinQuantity != nil && p.MaxQuantity != nil {
		v.Check(*p.MinQuantity <= *p.MaxQuantity, path+".min_quantity", "min_quantity cannot exceed max_quantity")
	}
	return v.Err()
}

// coversQuantity reports whether qty falls inside the tier
func (p Price) coversQuantity(qty int) bool {
	if p.MinQuantity != nil && qty < *p.MinQuantity {
		return false
	}
	if p.MaxQuantity != nil && qty > *p.MaxQuantity {
		return false
	}
	return true
}

// NormalizePrices validates a batch of prices for a variant
func NormalizePrices(variantID uuid.UUID, prices []Price) ([]Price, error) {
	var v shared.Validator
	out := make([]Price, len(prices))
	for i, p := range prices {
		p.CurrencyCode = strings.ToUpper(strings.TrimSpace(p.CurrencyCode))
		p.VariantID = variantID
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		v.Merge(p.Validate("prices." + strconv.Itoa(i)))
		out[i] = p
	}
	return out, v.Err()
}

// PriceListType decides how list prices combine with base prices
type PriceListType string

const (
	PriceListTypeSale     PriceListType = "sale"     // Applies only when cheaper
	PriceListTypeOverride PriceListType = "override" // Always replaces the base price
)

// PriceListStatus represents whether a price list is in effect
type PriceListStatus string

const (
	PriceListStatusDraft  PriceListStatus = "draft"
	PriceListStatusActive PriceListStatus = "active"
)

// PriceList is a set of prices valid for a time window and optional customer groups
type PriceList struct {
	shared.BaseEntity
	Title            string
	Description      string
	Type             PriceListType
	Status           PriceListStatus
	StartsAt         *time.Time
	EndsAt           *time.Time
	CustomerGroupIDs []uuid.UUID
	Prices           []Price
}

// NewPriceList creates a draft price list
func NewPriceList(title, description string, listType PriceListType) (*PriceList, error) {
	pl := &PriceList{
		BaseEntity: shared.NewBaseEntity(),
		Status:     PriceListStatusDraft,
	}
	if err := pl.Update(title, description, listType, nil, nil); err != nil {
		return nil, err
	}
	return pl, nil
}

// Update changes the list's header fields
func (pl *PriceList) Update(title, description string, listType PriceListType, startsAt, endsAt *time.Time) error {
	var v shared.Validator
	v.Check(strings.TrimSpace(title) != "", "title", "title is required")
	v.Check(listType == PriceListTypeSale || listType == PriceListTypeOverride, "type", "type must be sale or override")
	if startsAt != nil && endsAt != nil {
		v.Check(startsAt.Before(*endsAt), "ends_at", "ends_at must be after starts_at")
	}
	if err := v.Err(); err != nil {
		return err
	}
	pl.Title = strings.TrimSpace(title)
	pl.Description = description
	pl.Type = listType
	pl.StartsAt = startsAt
	pl.EndsAt = endsAt
	pl.Touch()
	return nil
}

// Activate puts the list in effect
func (pl *PriceList) Activate() {
	pl.Status = PriceListStatusActive
	pl.Touch()
}

// IsActiveAt reports whether the list applies at t for a customer in groups
func (pl *PriceList) IsActiveAt(t time.Time, groups []uuid.UUID) bool {
	if pl.Status != PriceListStatusActive || pl.IsDeleted() {
		return false
	}
	if pl.StartsAt != nil && t.Before(*pl.StartsAt) {
		return false
	}
	if pl.EndsAt != nil && !t.Before(*pl.EndsAt) {
		return false
	}
	if len(pl.CustomerGroupIDs) == 0 {
		return true
	}
	for _, want := range pl.CustomerGroupIDs {
		for _, g := range groups {
			if want == g {
				return true
			}
		}
	}
	return false
}

// Repository persists prices and price lists
type Repository interface {
	// ReplaceVariantPrices replaces the base prices (no price list) of a variant
	ReplaceVariantPrices(ctx context.Context, variantID uuid.UUID, prices []Price) error
	// FindPrices returns base and price-list prices for variants in currency
	FindPrices(ctx context.Context, variantIDs []uuid.UUID, currencyCode string) ([]Price, error)
	FindVariantPrices(ctx context.Context, variantID uuid.UUID) ([]Price, error)

	CreatePriceList(ctx context.Context, pl *PriceList) error
	UpdatePriceList(ctx context.Context, pl *PriceList) error
	DeletePriceList(ctx context.Context, id uuid.UUID) error
	FindPriceList(ctx context.Context, id uuid.UUID) (*PriceList, error)
	FindPriceListsByIDs(ctx context.Context, ids []uuid.UUID) ([]*PriceList, error)
	ListPriceLists(ctx context.Context, q shared.ListQuery) ([]*PriceList, int64, error)
}

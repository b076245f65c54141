// Package fulfillment models shipping options and the fulfillments created for orders.
package fulfillment

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceType of a shipping option
type PriceType string

const (
	PriceTypeFlat       PriceType = "flat"
	PriceTypeCalculated PriceType = "calculated"
)

// ShippingOption is a way to ship a cart in a region
type ShippingOption struct {
	shared.BaseEntity
	Name       string
	RegionID   uuid.UUID
	ProviderID string
	PriceType  PriceType
	Amount     decimal.Decimal
	IsReturn   bool
	AdminOnly  bool
	// MinSubtotal and MaxSubtotal restrict the option to carts in a subtotal range
	MinSubtotal *decimal.Decimal
	MaxSubtotal *decimal.Decimal
	Data        map[string]any
}

// ShippingOptionInput carries the writable fields
type ShippingOptionInput struct {
	Name        string
	RegionID    uuid.UUID
	ProviderID  string
	PriceType   PriceType
	Amount      decimal.Decimal
	IsReturn    bool
	AdminOnly   bool
	MinSubtotal *decimal.Decimal
	MaxSubtotal *decimal.Decimal
}

// NewShippingOption validates and creates an option
func NewShippingOption(in ShippingOptionInput) (*ShippingOption, error) {
	so := &ShippingOption{BaseEntity: shared.NewBaseEntity()}
	if err := so.Update(in); err != nil {
		return nil, err
	}
	return so, nil
}

// Update replaces the option's fields
func (so *ShippingOption) Update(in ShippingOptionInput) error {
	if in.PriceType == "" {
		in.PriceType = PriceTypeFlat
	}
	if in.ProviderID == "" {
		in.ProviderID = "manual"
	}
	var v shared.Validator
	v.Check(strings.TrimSpace(in.Name) != "", "name", "name is required")
	v.Check(in.RegionID != uuid.Nil, "region_id", "region_id is required")
	v.Check(in.PriceType == PriceTypeFlat || in.PriceType == PriceTypeCalculated, "price_type", "price_type must be flat or calculated")
	v.Check(!in.Amount.IsNegative(), "amount", "amount cannot be negative")
	if in.MinSubtotal != nil && in.MaxSubtotal != nil {
		v.Check(in.MinSubtotal.LessThanOrEqual(*in.MaxSubtotal), "min_subtotal", "min_subtotal cannot exceed max_subtotal")
	}
	if err := v.Err(); err != nil {
		return err
	}
	so.Name = strings.TrimSpace(in.Name)
	so.RegionID = in.RegionID
	so.ProviderID = in.ProviderID
	so.PriceType = in.PriceType
	so.Amount = in.Amount
	so.IsReturn = in.IsReturn
	so.AdminOnly = in.AdminOnly
	so.MinSubtotal = in.MinSubtotal
	so.MaxSubtotal = in.MaxSubtotal
	so.Touch()
	return nil
}

// AvailableFor reports whether a store cart in regionID with subtotal may use the option
func (so *ShippingOption) AvailableFor(regionID uuid.UUID, subtotal decimal.Decimal) bool {
	if so.IsDeleted() || so.IsReturn || so.AdminOnly || so.RegionID != regionID {
		return false
	}
	if so.MinSubtotal != nil && subtotal.LessThan(*so.MinSubtotal) {
		return false
	}
	if so.MaxSubtotal != nil && subtotal.GreaterThan(*so.MaxSubtotal) {
		return false
	}
	return true
}

// ErrOptionUnavailable is returned when a cart selects an option it may not use
var ErrOptionUnavailable = shared.NewDomainError("SHIPPING_OPTION_UNAVAILABLE", "Shipping option is not available for this cart")

// ShippingOptionRepository persists shipping options
type ShippingOptionRepository interface {
	Create(ctx context.Context, so *ShippingOption) error
	Update(ctx context.Context, so *ShippingOption) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*ShippingOption, error)
	FindByRegion(ctx context.Context, regionID uuid.UUID) ([]*ShippingOption, error)
	List(ctx context.Context, q shared.ListQuery) ([]*ShippingOption, int64, error)
}

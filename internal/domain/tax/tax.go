// Package tax models tax regions and rates and computes tax lines for cart items.
package tax

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleReference is the kind of object a rate rule targets
type RuleReference string

const (
	ReferenceProduct        RuleReference = "product"
	ReferenceProductType    RuleReference = "product_type"
	ReferenceShippingOption RuleReference = "shipping_option"
)

// Region is a country, or a province nested under a country, with its own rates
type Region struct {
	shared.BaseEntity
	CountryCode  string
	ProvinceCode string
	ParentID     *uuid.UUID
	ProviderID   string
	Rates        []Rate
}

// NewRegion creates a tax region. Province regions need a parent country region.
func NewRegion(countryCode, provinceCode string, parentID *uuid.UUID) (*Region, error) {
	countryCode = strings.ToLower(strings.TrimSpace(countryCode))
	provinceCode = strings.ToLower(strings.TrimSpace(provinceCode))

	var v shared.Validator
	v.Check(len(countryCode) == 2, "country_code", "country_code must be an ISO 3166-1 alpha-2 code")
	v.Check(provinceCode == "" || parentID != nil, "parent_id", "a province region requires a parent region")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Region{
		BaseEntity:   shared.NewBaseEntity(),
		CountryCode:  countryCode,
		ProvinceCode: provinceCode,
		ParentID:     parentID,
		ProviderID:   "system",
		Rates:        make([]Rate, 0),
	}, nil
}

// DefaultRate returns the region's default rate if any
func (r *Region) DefaultRate() *Rate {
	for i := range r.Rates {
		if r.Rates[i].IsDefault && !r.Rates[i].IsDeleted() {
			return &r.Rates[i]
		}
	}
	return nil
}

// Rate is a percentage applied to items in a region
type Rate struct {
	shared.BaseEntity
	TaxRegionID  uuid.UUID
	Name         string
	Code         string
	Rate         decimal.Decimal // percent, e.g. 25 for 25%
	IsDefault    bool
	IsCombinable bool
	Rules        []Rule
}

// Rule restricts a non-default rate to specific products, product types or shipping options
type Rule struct {
	Reference   RuleReference
	ReferenceID uuid.UUID
}

// NewRate validates and creates a rate
func NewRate(regionID uuid.UUID, name, code string, rate decimal.Decimal, isDefault, combinable bool, rules []Rule) (*Rate, error) {
	r := &Rate{BaseEntity: shared.NewBaseEntity(), TaxRegionID: regionID}
	if err := r.Update(name, code, rate, isDefault, combinable, rules); err != nil {
		return nil, err
	}
	return r, nil
}

// Update replaces the rate's fields
func (r *Rate) Update(name, code string, rate decimal.Decimal, isDefault, combinable bool, rules []Rule) error {
	var v shared.Validator
	v.Check(strings.TrimSpace(name) != "", "name", "name is required")
	v.Check(strings.TrimSpace(code) != "", "code", "code is required")
	v.Check(!rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(100)), "rate", "rate must be between 0 and 100")
	v.Check(!(isDefault && len(rules) > 0), "rules", "a default rate cannot have rules")
	for _, rule := range rules {
		switch rule.Reference {
		case ReferenceProduct, ReferenceProductType, ReferenceShippingOption:
		default:
			v.Check(false, "rules", "reference must be product, product_type or shipping_option")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(name)
	r.Code = strings.TrimSpace(code)
	r.Rate = rate
	r.IsDefault = isDefault
	r.IsCombinable = combinable
	r.Rules = rules
	r.Touch()
	return nil
}

func (r *Rate) matches(ref RuleReference, id *uuid.UUID) bool {
	if id == nil {
		return false
	}
	for _, rule := range r.Rules {
		if rule.Reference == ref && rule.ReferenceID == *id {
			return true
		}
	}
	return false
}

// Repository persists tax regions and rates
type Repository interface {
	CreateRegion(ctx context.Context, r *Region) error
	DeleteRegion(ctx context.Context, id uuid.UUID) error
	FindRegion(ctx context.Context, id uuid.UUID) (*Region, error)
	// FindRegionsFor returns the country region and, when present, the province region
	FindRegionsFor(ctx context.Context, countryCode, provinceCode string) ([]*Region, error)
	ListRegions(ctx context.Context, q shared.ListQuery) ([]*Region, int64, error)

	CreateRate(ctx context.Context, r *Rate) error
	UpdateRate(ctx context.Context, r *Rate) error
	DeleteRate(ctx context.Context, id uuid.UUID) error
	FindRate(ctx context.Context, id uuid.UUID) (*Rate, error)
	ListRates(ctx context.Context, q shared.ListQuery) ([]*Rate, int64, error)
}

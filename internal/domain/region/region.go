// Package region models selling regions and the countries assigned to them.
package region

import (
	"context"
	"strconv"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Country is an ISO 3166 country that may belong to one region
type Country struct {
	ISO2        string
	ISO3        string
	NumCode     int
	Name        string
	DisplayName string
	RegionID    *uuid.UUID
}

// Region groups countries that share a currency and tax settings
type Region struct {
	shared.BaseAggregateRoot
	Name           string
	CurrencyCode   string
	AutomaticTaxes bool
	Countries      []Country
	Metadata       map[string]any
}

// NewRegion creates a region. Country membership is assigned separately.
func NewRegion(name, currencyCode string, automaticTaxes bool) (*Region, error) {
	r := &Region{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AutomaticTaxes:    automaticTaxes,
		Countries:         make([]Country, 0),
	}
	if err := r.Update(name, currencyCode, automaticTaxes); err != nil {
		return nil, err
	}
	return r, nil
}

// Update changes the region's basic fields
func (r *Region) Update(name, currencyCode string, automaticTaxes bool) error {
	name = strings.TrimSpace(name)
	currencyCode = strings.ToUpper(strings.TrimSpace(currencyCode))

	var v shared.Validator
	v.Check(name != "", "name", "name is required")
	v.Check(len(currencyCode) == 3, "currency_code", "currency_code must be a 3 letter ISO code")
	if err := v.Err(); err != nil {
		return err
	}
	r.Name = name
	r.CurrencyCode = currencyCode
	r.AutomaticTaxes = automaticTaxes
	r.Touch()
	return nil
}

// HasCountry reports whether iso2 belongs to the region
func (r *Region) HasCountry(iso2 string) bool {
	iso2 = strings.ToLower(iso2)
	for _, c := range r.Countries {
		if c.ISO2 == iso2 {
			return true
		}
	}
	return false
}

// AssignCountries claims countries for the region. A country owned by another
// region is reported as not unique.
func (r *Region) AssignCountries(countries []Country) error {
	var v shared.Validator
	for i, c := range countries {
		if c.RegionID != nil && *c.RegionID != r.ID {
			v.Add(shared.ValidationIssue{
				Type:    shared.IssueNotUnique,
				Message: "country " + c.ISO2 + " already belongs to another region",
				Path:    "countries." + strconv.Itoa(i),
			})
		}
	}
	if err := v.Err(); err != nil {
		return err
	}
	for _, c := range countries {
		if r.HasCountry(c.ISO2) {
			continue
		}
		id := r.ID
		c.RegionID = &id
		r.Countries = append(r.Countries, c)
	}
	r.Touch()
	return nil
}

// RemoveCountries releases countries from the region
func (r *Region) RemoveCountries(iso2s []string) {
	drop := make(map[string]bool, len(iso2s))
	for _, code := range iso2s {
		drop[strings.ToLower(code)] = true
	}
	kept := r.Countries[:0]
	for _, c := range r.Countries {
		if !drop[c.ISO2] {
			kept = append(kept, c)
		}
	}
	r.Countries = kept
	r.Touch()
}

// CountryCodes returns the ISO2 codes of the region
func (r *Region) CountryCodes() []string {
	codes := make([]string, len(r.Countries))
	for i, c := range r.Countries {
		codes[i] = c.ISO2
	}
	return codes
}

// Repository defines region persistence
type Repository interface {
	Create(ctx context.Context, r *Region) error
	Update(ctx context.Context, r *Region) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Region, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Region, int64, error)
}

// CountryRepository reads the static country table and updates ownership
type CountryRepository interface {
	FindByISO2(ctx context.Context, codes []string) ([]Country, error)
	List(ctx context.Context, q shared.ListQuery) ([]Country, int64, error)
	// SetRegion assigns codes to regionID; a nil regionID releases them
	SetRegion(ctx context.Context, codes []string, regionID *uuid.UUID) error
	// ReleaseRegion clears every country pointing at regionID
	ReleaseRegion(ctx context.Context, regionID uuid.UUID) error
}

// Package tax manages tax regions and rates and computes tax lines.
package tax

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateRequest creates or replaces a tax rate
type RateRequest struct {
	TaxRegionID  uuid.UUID       `json:"tax_region_id"`
	Name         string          `json:"name" binding:"required,max=100"`
	Code         string          `json:"code" binding:"required,max=50"`
	Rate         decimal.Decimal `json:"rate"`
	IsDefault    bool            `json:"is_default"`
	IsCombinable bool            `json:"is_combinable"`
	Rules        []RuleRequest   `json:"rules" binding:"dive"`
}

// RuleRequest targets a rate at a product, product type or shipping option
type RuleRequest struct {
	Reference   string    `json:"reference" binding:"required,oneof=product product_type shipping_option"`
	ReferenceID uuid.UUID `json:"reference_id" binding:"required"`
}

// DefaultRateRequest is the default rate created together with a region
type DefaultRateRequest struct {
	Name         string          `json:"name" binding:"required,max=100"`
	Code         string          `json:"code" binding:"required,max=50"`
	Rate         decimal.Decimal `json:"rate"`
	IsCombinable bool            `json:"is_combinable"`
}

// CreateRegionRequest represents a request to create a tax region
type CreateRegionRequest struct {
	CountryCode  string              `json:"country_code" binding:"required,len=2"`
	ProvinceCode string              `json:"province_code" binding:"max=10"`
	ParentID     *uuid.UUID          `json:"parent_id"`
	DefaultRate  *DefaultRateRequest `json:"default_tax_rate"`
}

// RateResponse represents a tax rate
type RateResponse struct {
	ID           uuid.UUID       `json:"id"`
	TaxRegionID  uuid.UUID       `json:"tax_region_id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	Rate         decimal.Decimal `json:"rate"`
	IsDefault    bool            `json:"is_default"`
	IsCombinable bool            `json:"is_combinable"`
	Rules        []RuleRequest   `json:"rules"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RegionResponse represents a tax region with its rates
type RegionResponse struct {
	ID           uuid.UUID      `json:"id"`
	CountryCode  string         `json:"country_code"`
	ProvinceCode string         `json:"province_code,omitempty"`
	ParentID     *uuid.UUID     `json:"parent_id,omitempty"`
	ProviderID   string         `json:"provider_id"`
	Rates        []RateResponse `json:"tax_rates"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toRateResponse(r *tax.Rate) RateResponse {
	rules := make([]RuleRequest, len(r.Rules))
	for i, rule := range r.Rules {
		rules[i] = RuleRequest{Reference: string(rule.Reference), ReferenceID: rule.ReferenceID}
	}
	return RateResponse{
		ID:           r.ID,
		TaxRegionID:  r.TaxRegionID,
		Name:         r.Name,
		Code:         r.Code,
		Rate:         r.Rate,
		IsDefault:    r.IsDefault,
		IsCombinable: r.IsCombinable,
		Rules:        rules,
		CreatedAt:    r.CreatedAt,
	}
}

func toRegionResponse(r *tax.Region) RegionResponse {
	rates := make([]RateResponse, 0, len(r.Rates))
	for i := range r.Rates {
		if !r.Rates[i].IsDeleted() {
			rates = append(rates, toRateResponse(&r.Rates[i]))
		}
	}
	return RegionResponse{
		ID:           r.ID,
		CountryCode:  r.CountryCode,
		ProvinceCode: r.ProvinceCode,
		ParentID:     r.ParentID,
		ProviderID:   r.ProviderID,
		Rates:        rates,
		CreatedAt:    r.CreatedAt,
	}
}

func (r RateRequest) rules() []tax.Rule {
	rules := make([]tax.Rule, len(r.Rules))
	for i, rule := range r.Rules {
		rules[i] = tax.Rule{Reference: tax.RuleReference(rule.Reference), ReferenceID: rule.ReferenceID}
	}
	return rules
}

// Service handles tax regions, rates and tax calculation
type Service struct {
	repo tax.Repository
}

// NewService creates a new tax Service
func NewService(repo tax.Repository) *Service {
	return &Service{repo: repo}
}

// CreateRegion creates a tax region. A province region without a parent is
// attached to the region of its country.
func (s *Service) CreateRegion(ctx context.Context, req CreateRegionRequest) (*RegionResponse, error) {
	parentID := req.ParentID
	if req.ProvinceCode != "" {
		parent, err := s.resolveParent(ctx, req.CountryCode, parentID)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}
	existing, err := s.repo.FindRegionsFor(ctx, req.CountryCode, req.ProvinceCode)
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.ProvinceCode == normalize(req.ProvinceCode) {
			return nil, shared.NewNotUniqueError("TaxRegion", "country_code", req.CountryCode+"/"+req.ProvinceCode)
		}
	}

	region, err := tax.NewRegion(req.CountryCode, req.ProvinceCode, parentID)
	if err != nil {
		return nil, err
	}
	if d := req.DefaultRate; d != nil {
		rate, err := tax.NewRate(region.ID, d.Name, d.Code, d.Rate, true, d.IsCombinable, nil)
		if err != nil {
			return nil, err
		}
		region.Rates = append(region.Rates, *rate)
	}
	if err := s.repo.CreateRegion(ctx, region); err != nil {
		return nil, err
	}
	resp := toRegionResponse(region)
	return &resp, nil
}

func (s *Service) resolveParent(ctx context.Context, countryCode string, parentID *uuid.UUID) (*tax.Region, error) {
	if parentID != nil {
		parent, err := s.repo.FindRegion(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.CountryCode != normalize(countryCode) || parent.ProvinceCode != "" {
			return nil, shared.NewInvalidDataError("parent_id", "parent must be the country region of "+countryCode)
		}
		return parent, nil
	}
	regions, err := s.repo.FindRegionsFor(ctx, countryCode, "")
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, shared.NewInvalidDataError("parent_id", "no tax region exists for country "+countryCode)
	}
	return regions[0], nil
}

// GetRegion returns a tax region
func (s *Service) GetRegion(ctx context.Context, id uuid.UUID) (*RegionResponse, error) {
	region, err := s.repo.FindRegion(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRegionResponse(region)
	return &resp, nil
}

// DeleteRegion soft deletes a tax region with its provinces and rates
func (s *Service) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRegion(ctx, id)
}

// ListRegions lists tax regions
func (s *Service) ListRegions(ctx context.Context, q shared.ListQuery) (shared.ListResult[RegionResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.ListRegions(ctx, q)
	if err != nil {
		return shared.ListResult[RegionResponse]{}, err
	}
	items := make([]RegionResponse, len(rows))
	for i, r := range rows {
		items[i] = toRegionResponse(r)
	}
	return shared.NewListResult(items, total, q), nil
}

// CreateRate adds a rate to a region. A new default rate replaces the old default.
func (s *Service) CreateRate(ctx context.Context, req RateRequest) (*RateResponse, error) {
	if _, err := s.repo.FindRegion(ctx, req.TaxRegionID); err != nil {
		return nil, err
	}
	rate, err := tax.NewRate(req.TaxRegionID, req.Name, req.Code, req.Rate, req.IsDefault, req.IsCombinable, req.rules())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRate(ctx, rate); err != nil {
		return nil, err
	}
	resp := toRateResponse(rate)
	return &resp, nil
}

// GetRate returns a rate
func (s *Service) GetRate(ctx context.Context, id uuid.UUID) (*RateResponse, error) {
	rate, err := s.repo.FindRate(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRateResponse(rate)
	return &resp, nil
}

// UpdateRate replaces a rate's fields. The region of a rate cannot change.
func (s *Service) UpdateRate(ctx context.Context, id uuid.UUID, req RateRequest) (*RateResponse, error) {
	rate, err := s.repo.FindRate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rate.Update(req.Name, req.Code, req.Rate, req.IsDefault, req.IsCombinable, req.rules()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRate(ctx, rate); err != nil {
		return nil, err
	}
	resp := toRateResponse(rate)
	return &resp, nil
}

// DeleteRate soft deletes a rate
func (s *Service) DeleteRate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRate(ctx, id)
}

// ListRates lists rates
func (s *Service) ListRates(ctx context.Context, q shared.ListQuery) (shared.ListResult[RateResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.ListRates(ctx, q)
	if err != nil {
		return shared.ListResult[RateResponse]{}, err
	}
	items := make([]RateResponse, len(rows))
	for i, r := range rows {
		items[i] = toRateResponse(r)
	}
	return shared.NewListResult(items, total, q), nil
}

// CalculateTaxLines computes tax lines for the address. Addresses without a
// country, and countries without a tax region, produce no lines.
func (s *Service) CalculateTaxLines(ctx context.Context, items []tax.Item, shipping []tax.ShippingItem, address valueobject.Address, currencyCode string) ([]tax.Line, error) {
	address = address.Normalize()
	if address.CountryCode == "" {
		return nil, nil
	}
	regions, err := s.repo.FindRegionsFor(ctx, address.CountryCode, address.Province)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, nil
	}
	country := regions[0]
	var province *tax.Region
	if len(regions) > 1 {
		province = regions[1]
	}
	return tax.Calculate(country, province, items, shipping, currencyCode), nil
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

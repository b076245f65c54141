// Package region manages selling regions and their country assignments.
package region

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRegionRequest represents a request to create a region
type CreateRegionRequest struct {
	Name           string         `json:"name" binding:"required,max=100"`
	CurrencyCode   string         `json:"currency_code" binding:"required,len=3"`
	AutomaticTaxes *bool          `json:"automatic_taxes"`
	Countries      []string       `json:"countries" binding:"dive,len=2"`
	Metadata       map[string]any `json:"metadata"`
}

// UpdateRegionRequest represents a partial region update
type UpdateRegionRequest struct {
	Name           *string        `json:"name" binding:"omitempty,max=100"`
	CurrencyCode   *string        `json:"currency_code" binding:"omitempty,len=3"`
	AutomaticTaxes *bool          `json:"automatic_taxes"`
	Metadata       map[string]any `json:"metadata"`
}

// CountriesRequest lists ISO 3166-1 alpha-2 country codes
type CountriesRequest struct {
	Countries []string `json:"countries" binding:"required,min=1,dive,len=2"`
}

// CountryResponse represents a country
type CountryResponse struct {
	ISO2        string     `json:"iso_2"`
	ISO3        string     `json:"iso_3"`
	NumCode     int        `json:"num_code"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	RegionID    *uuid.UUID `json:"region_id,omitempty"`
}

// RegionResponse represents a region in API responses
type RegionResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	CurrencyCode   string            `json:"currency_code"`
	AutomaticTaxes bool              `json:"automatic_taxes"`
	Countries      []CountryResponse `json:"countries"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ToCountryResponse converts a domain country
func ToCountryResponse(c region.Country) CountryResponse {
	return CountryResponse{
		ISO2:        c.ISO2,
		ISO3:        c.ISO3,
		NumCode:     c.NumCode,
		Name:        c.Name,
		DisplayName: c.DisplayName,
		RegionID:    c.RegionID,
	}
}

// ToRegionResponse converts a domain region
func ToRegionResponse(r *region.Region) RegionResponse {
	countries := make([]CountryResponse, len(r.Countries))
	for i, c := range r.Countries {
		countries[i] = ToCountryResponse(c)
	}
	return RegionResponse{
		ID:             r.ID,
		Name:           r.Name,
		CurrencyCode:   r.CurrencyCode,
		AutomaticTaxes: r.AutomaticTaxes,
		Countries:      countries,
		Metadata:       r.Metadata,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// Service handles region operations
type Service struct {
	regionRepo   region.Repository
	countryRepo  region.CountryRepository
	currencyRepo currency.Repository
	logger       *zap.Logger
}

// NewService creates a new region Service
func NewService(
	regionRepo region.Repository,
	countryRepo region.CountryRepository,
	currencyRepo currency.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		regionRepo:   regionRepo,
		countryRepo:  countryRepo,
		currencyRepo: currencyRepo,
		logger:       logger,
	}
}

// Create creates a region and assigns its countries
func (s *Service) Create(ctx context.Context, req CreateRegionRequest) (*RegionResponse, error) {
	automaticTaxes := true
	if req.AutomaticTaxes != nil {
		automaticTaxes = *req.AutomaticTaxes
	}
	r, err := region.NewRegion(req.Name, req.CurrencyCode, automaticTaxes)
	if err != nil {
		return nil, err
	}
	r.Metadata = req.Metadata
	if err := s.ensureCurrency(ctx, r.CurrencyCode); err != nil {
		return nil, err
	}
	countries, err := s.loadCountries(ctx, req.Countries)
	if err != nil {
		return nil, err
	}
	if err := r.AssignCountries(countries); err != nil {
		return nil, err
	}

	if err := s.regionRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	if err := s.countryRepo.SetRegion(ctx, r.CountryCodes(), &r.ID); err != nil {
		return nil, err
	}
	s.logger.Info("region created", zap.String("region_id", r.ID.String()), zap.Strings("countries", r.CountryCodes()))

	resp := ToRegionResponse(r)
	return &resp, nil
}

// Retrieve returns a region with its countries
func (s *Service) Retrieve(ctx context.Context, id uuid.UUID) (*RegionResponse, error) {
	r, err := s.regionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRegionResponse(r)
	return &resp, nil
}

// List lists regions
func (s *Service) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[RegionResponse], error) {
	q = q.Normalize()
	rows, total, err := s.regionRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[RegionResponse]{}, err
	}
	items := make([]RegionResponse, len(rows))
	for i, r := range rows {
		items[i] = ToRegionResponse(r)
	}
	return shared.NewListResult(items, total, q), nil
}

// Update applies a partial update
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRegionRequest) (*RegionResponse, error) {
	r, err := s.regionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, code, automaticTaxes := r.Name, r.CurrencyCode, r.AutomaticTaxes
	if req.Name != nil {
		name = *req.Name
	}
	if req.CurrencyCode != nil {
		code = *req.CurrencyCode
		if err := s.ensureCurrency(ctx, code); err != nil {
			return nil, err
		}
	}
	if req.AutomaticTaxes != nil {
		automaticTaxes = *req.AutomaticTaxes
	}
	if err := r.Update(name, code, automaticTaxes); err != nil {
		return nil, err
	}
	if req.Metadata != nil {
		r.Metadata = req.Metadata
	}
	r.IncrementVersion()
	if err := s.regionRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	resp := ToRegionResponse(r)
	return &resp, nil
}

// Delete soft deletes a region and releases its countries
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.regionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("region deleted", zap.String("region_id", id.String()))
	return nil
}

// AddCountries assigns countries to a region. Countries of other regions are rejected.
func (s *Service) AddCountries(ctx context.Context, id uuid.UUID, req CountriesRequest) (*RegionResponse, error) {
	r, err := s.regionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	countries, err := s.loadCountries(ctx, req.Countries)
	if err != nil {
		return nil, err
	}
	if err := r.AssignCountries(countries); err != nil {
		return nil, err
	}
	if err := s.countryRepo.SetRegion(ctx, r.CountryCodes(), &r.ID); err != nil {
		return nil, err
	}
	resp := ToRegionResponse(r)
	return &resp, nil
}

// RemoveCountries releases countries from a region
func (s *Service) RemoveCountries(ctx context.Context, id uuid.UUID, req CountriesRequest) (*RegionResponse, error) {
	r, err := s.regionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owned := make([]string, 0, len(req.Countries))
	for _, code := range req.Countries {
		if r.HasCountry(code) {
			owned = append(owned, strings.ToLower(code))
		}
	}
	r.RemoveCountries(owned)
	if err := s.countryRepo.SetRegion(ctx, owned, nil); err != nil {
		return nil, err
	}
	resp := ToRegionResponse(r)
	return &resp, nil
}

// ListCountries lists the country table
func (s *Service) ListCountries(ctx context.Context, q shared.ListQuery) (shared.ListResult[CountryResponse], error) {
	q = q.Normalize()
	rows, total, err := s.countryRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[CountryResponse]{}, err
	}
	items := make([]CountryResponse, len(rows))
	for i, c := range rows {
		items[i] = ToCountryResponse(c)
	}
	return shared.NewListResult(items, total, q), nil
}

func (s *Service) ensureCurrency(ctx context.Context, code string) error {
	_, err := s.currencyRepo.FindByCode(ctx, code)
	if shared.IsNotFound(err) {
		return shared.NewInvalidDataError("currency_code", "currency "+strings.ToUpper(code)+" is not supported")
	}
	return err
}

// loadCountries resolves codes in request order, reporting unknown codes by index
func (s *Service) loadCountries(ctx context.Context, codes []string) ([]region.Country, error) {
	found, err := s.countryRepo.FindByISO2(ctx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]region.Country, len(found))
	for _, c := range found {
		byCode[c.ISO2] = c
	}
	var v shared.Validator
	out := make([]region.Country, 0, len(codes))
	for i, code := range codes {
		c, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			v.Check(false, "countries."+strconv.Itoa(i), "country "+code+" does not exist")
			continue
		}
		out = append(out, c)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

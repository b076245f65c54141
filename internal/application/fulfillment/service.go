// Package fulfillment manages shipping options and exposes the options a
// cart may use.
package fulfillment

import (
	"context"
	"time"

	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingOptionRequest creates or replaces a shipping option
type ShippingOptionRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	RegionID    uuid.UUID        `json:"region_id" binding:"required"`
	ProviderID  string           `json:"provider_id"`
	PriceType   string           `json:"price_type" binding:"omitempty,oneof=flat calculated"`
	Amount      decimal.Decimal  `json:"amount"`
	IsReturn    bool             `json:"is_return"`
	AdminOnly   bool             `json:"admin_only"`
	MinSubtotal *decimal.Decimal `json:"min_subtotal"`
	MaxSubtotal *decimal.Decimal `json:"max_subtotal"`
}

// ShippingOptionResponse represents a shipping option
type ShippingOptionResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	RegionID    uuid.UUID        `json:"region_id"`
	ProviderID  string           `json:"provider_id"`
	PriceType   string           `json:"price_type"`
	Amount      decimal.Decimal  `json:"amount"`
	IsReturn    bool             `json:"is_return"`
	AdminOnly   bool             `json:"admin_only"`
	MinSubtotal *decimal.Decimal `json:"min_subtotal"`
	MaxSubtotal *decimal.Decimal `json:"max_subtotal"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (r ShippingOptionRequest) toInput() fulfillment.ShippingOptionInput {
	return fulfillment.ShippingOptionInput{
		Name:        r.Name,
		RegionID:    r.RegionID,
		ProviderID:  r.ProviderID,
		PriceType:   fulfillment.PriceType(r.PriceType),
		Amount:      r.Amount,
		IsReturn:    r.IsReturn,
		AdminOnly:   r.AdminOnly,
		MinSubtotal: r.MinSubtotal,
		MaxSubtotal: r.MaxSubtotal,
	}
}

// ToShippingOptionResponse converts a domain option
func ToShippingOptionResponse(so *fulfillment.ShippingOption) ShippingOptionResponse {
	return ShippingOptionResponse{
		ID:          so.ID,
		Name:        so.Name,
		RegionID:    so.RegionID,
		ProviderID:  so.ProviderID,
		PriceType:   string(so.PriceType),
		Amount:      so.Amount,
		IsReturn:    so.IsReturn,
		AdminOnly:   so.AdminOnly,
		MinSubtotal: so.MinSubtotal,
		MaxSubtotal: so.MaxSubtotal,
		CreatedAt:   so.CreatedAt,
		UpdatedAt:   so.UpdatedAt,
	}
}

// Service handles shipping options
type Service struct {
	options    fulfillment.ShippingOptionRepository
	regionRepo region.Repository
}

// NewService creates a new fulfillment Service
func NewService(options fulfillment.ShippingOptionRepository, regionRepo region.Repository) *Service {
	return &Service{options: options, regionRepo: regionRepo}
}

// CreateShippingOption creates a shipping option in an existing region
func (s *Service) CreateShippingOption(ctx context.Context, req ShippingOptionRequest) (*ShippingOptionResponse, error) {
	if err := s.ensureRegion(ctx, req.RegionID); err != nil {
		return nil, err
	}
	so, err := fulfillment.NewShippingOption(req.toInput())
	if err != nil {
		return nil, err
	}
	if err := s.options.Create(ctx, so); err != nil {
		return nil, err
	}
	resp := ToShippingOptionResponse(so)
	return &resp, nil
}

// UpdateShippingOption replaces a shipping option
func (s *Service) UpdateShippingOption(ctx context.Context, id uuid.UUID, req ShippingOptionRequest) (*ShippingOptionResponse, error) {
	so, err := s.options.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RegionID != so.RegionID {
		if err := s.ensureRegion(ctx, req.RegionID); err != nil {
			return nil, err
		}
	}
	if err := so.Update(req.toInput()); err != nil {
		return nil, err
	}
	if err := s.options.Update(ctx, so); err != nil {
		return nil, err
	}
	resp := ToShippingOptionResponse(so)
	return &resp, nil
}

func (s *Service) ensureRegion(ctx context.Context, id uuid.UUID) error {
	if _, err := s.regionRepo.FindByID(ctx, id); err != nil {
		if shared.IsNotFound(err) {
			return shared.NewInvalidDataError("region_id", "region "+id.String()+" does not exist")
		}
		return err
	}
	return nil
}

// GetShippingOption returns a shipping option
func (s *Service) GetShippingOption(ctx context.Context, id uuid.UUID) (*ShippingOptionResponse, error) {
	so, err := s.options.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToShippingOptionResponse(so)
	return &resp, nil
}

// DeleteShippingOption soft deletes a shipping option
func (s *Service) DeleteShippingOption(ctx context.Context, id uuid.UUID) error {
	return s.options.Delete(ctx, id)
}

// ListShippingOptions lists shipping options
func (s *Service) ListShippingOptions(ctx context.Context, q shared.ListQuery) (shared.ListResult[ShippingOptionResponse], error) {
	q = q.Normalize()
	rows, total, err := s.options.List(ctx, q)
	if err != nil {
		return shared.ListResult[ShippingOptionResponse]{}, err
	}
	items := make([]ShippingOptionResponse, len(rows))
	for i, so := range rows {
		items[i] = ToShippingOptionResponse(so)
	}
	return shared.NewListResult(items, total, q), nil
}

// ListCartOptions returns the options a cart in regionID with the given item
// subtotal may select
func (s *Service) ListCartOptions(ctx context.Context, regionID uuid.UUID, subtotal decimal.Decimal) ([]*fulfillment.ShippingOption, error) {
	options, err := s.options.FindByRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	out := make([]*fulfillment.ShippingOption, 0, len(options))
	for _, so := range options {
		if so.AvailableFor(regionID, subtotal) {
			out = append(out, so)
		}
	}
	return out, nil
}

// ResolveCartOption loads an option and checks the cart may use it
func (s *Service) ResolveCartOption(ctx context.Context, optionID, regionID uuid.UUID, subtotal decimal.Decimal) (*fulfillment.ShippingOption, error) {
	so, err := s.options.FindByID(ctx, optionID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewInvalidDataError("option_id", "shipping option "+optionID.String()+" does not exist")
		}
		return nil, err
	}
	if !so.AvailableFor(regionID, subtotal) {
		return nil, fulfillment.ErrOptionUnavailable
	}
	return so, nil
}

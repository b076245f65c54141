// Package store manages the store settings and sales channels.
package store

import (
	"context"
	"strconv"
	"time"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/store"
	"github.com/google/uuid"
)

// UpdateStoreRequest represents a partial store update
type UpdateStoreRequest struct {
	Name                  *string    `json:"name" binding:"omitempty,min=1,max=200"`
	DefaultCurrencyCode   *string    `json:"default_currency_code" binding:"omitempty,len=3"`
	SupportedCurrencies   []string   `json:"supported_currencies" binding:"omitempty,dive,len=3"`
	DefaultRegionID       *uuid.UUID `json:"default_region_id"`
	DefaultSalesChannelID *uuid.UUID `json:"default_sales_channel_id"`
	DefaultLocationID     *uuid.UUID `json:"default_location_id"`
}

// StoreResponse represents the store settings
type StoreResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	DefaultCurrencyCode   string     `json:"default_currency_code"`
	SupportedCurrencies   []string   `json:"supported_currencies"`
	DefaultRegionID       *uuid.UUID `json:"default_region_id,omitempty"`
	DefaultSalesChannelID *uuid.UUID `json:"default_sales_channel_id,omitempty"`
	DefaultLocationID     *uuid.UUID `json:"default_location_id,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// SalesChannelRequest creates or updates a sales channel
type SalesChannelRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	IsDisabled  bool   `json:"is_disabled"`
}

// SalesChannelResponse represents a sales channel
type SalesChannelResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDisabled  bool      `json:"is_disabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toStoreResponse(s *store.Store) StoreResponse {
	return StoreResponse{
		ID:                    s.ID,
		Name:                  s.Name,
		DefaultCurrencyCode:   s.DefaultCurrencyCode,
		SupportedCurrencies:   s.SupportedCurrencies,
		DefaultRegionID:       s.DefaultRegionID,
		DefaultSalesChannelID: s.DefaultSalesChannelID,
		DefaultLocationID:     s.DefaultLocationID,
		UpdatedAt:             s.UpdatedAt,
	}
}

func toSalesChannelResponse(sc *store.SalesChannel) SalesChannelResponse {
	return SalesChannelResponse{
		ID:          sc.ID,
		Name:        sc.Name,
		Description: sc.Description,
		IsDisabled:  sc.IsDisabled,
		CreatedAt:   sc.CreatedAt,
		UpdatedAt:   sc.UpdatedAt,
	}
}

// Service handles store settings and sales channels
type Service struct {
	storeRepo    store.Repository
	channelRepo  store.SalesChannelRepository
	currencyRepo currency.Repository
}

// NewService creates a new store Service
func NewService(storeRepo store.Repository, channelRepo store.SalesChannelRepository, currencyRepo currency.Repository) *Service {
	return &Service{storeRepo: storeRepo, channelRepo: channelRepo, currencyRepo: currencyRepo}
}

// EnsureDefaults creates the store with a default sales channel when none
// exists yet and returns the current settings
func (s *Service) EnsureDefaults(ctx context.Context, name, currencyCode string) (*StoreResponse, error) {
	st, err := s.storeRepo.Get(ctx)
	if err == nil {
		resp := toStoreResponse(st)
		return &resp, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	channel, err := store.NewSalesChannel("Default Sales Channel", "Created with the store")
	if err != nil {
		return nil, err
	}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}
	st = store.NewStore(name, currencyCode)
	st.DefaultSalesChannelID = &channel.ID
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := toStoreResponse(st)
	return &resp, nil
}

// Retrieve returns the store settings
func (s *Service) Retrieve(ctx context.Context) (*StoreResponse, error) {
	st, err := s.storeRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	resp := toStoreResponse(st)
	return &resp, nil
}

// Update changes the store settings. Every supported currency must be registered
// and the default sales channel must exist.
func (s *Service) Update(ctx context.Context, req UpdateStoreRequest) (*StoreResponse, error) {
	st, err := s.storeRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.DefaultCurrencyCode != nil || req.SupportedCurrencies != nil {
		def, supported := st.DefaultCurrencyCode, st.SupportedCurrencies
		if req.DefaultCurrencyCode != nil {
			def = *req.DefaultCurrencyCode
		}
		if req.SupportedCurrencies != nil {
			supported = req.SupportedCurrencies
		}
		if err := st.SetCurrencies(def, supported); err != nil {
			return nil, err
		}
		var v shared.Validator
		for i, code := range st.SupportedCurrencies {
			_, err := s.currencyRepo.FindByCode(ctx, code)
			if shared.IsNotFound(err) {
				v.Check(false, "supported_currencies."+strconv.Itoa(i), "currency "+code+" is not registered")
			} else if err != nil {
				return nil, err
			}
		}
		if err := v.Err(); err != nil {
			return nil, err
		}
	}
	if req.DefaultSalesChannelID != nil {
		if _, err := s.channelRepo.FindByID(ctx, *req.DefaultSalesChannelID); err != nil {
			return nil, err
		}
		st.DefaultSalesChannelID = req.DefaultSalesChannelID
	}
	if req.DefaultRegionID != nil {
		st.DefaultRegionID = req.DefaultRegionID
	}
	if req.DefaultLocationID != nil {
		st.DefaultLocationID = req.DefaultLocationID
	}
	st.Touch()
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := toStoreResponse(st)
	return &resp, nil
}

// DefaultSalesChannel returns the channel carts fall back to
func (s *Service) DefaultSalesChannel(ctx context.Context) (*uuid.UUID, error) {
	st, err := s.storeRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.DefaultSalesChannelID, nil
}

// DefaultRegion returns the region carts created without one are placed in
func (s *Service) DefaultRegion(ctx context.Context) (*uuid.UUID, error) {
	st, err := s.storeRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.DefaultRegionID, nil
}

// DefaultLocation returns the stock location fulfillments and returns use when none is given
func (s *Service) DefaultLocation(ctx context.Context) (*uuid.UUID, error) {
	st, err := s.storeRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.DefaultLocationID, nil
}

// CreateSalesChannel creates a sales channel
func (s *Service) CreateSalesChannel(ctx context.Context, req SalesChannelRequest) (*SalesChannelResponse, error) {
	sc, err := store.NewSalesChannel(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	sc.IsDisabled = req.IsDisabled
	if err := s.channelRepo.Create(ctx, sc); err != nil {
		return nil, err
	}
	resp := toSalesChannelResponse(sc)
	return &resp, nil
}

// GetSalesChannel returns a sales channel
func (s *Service) GetSalesChannel(ctx context.Context, id uuid.UUID) (*SalesChannelResponse, error) {
	sc, err := s.channelRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toSalesChannelResponse(sc)
	return &resp, nil
}

// UpdateSalesChannel replaces a sales channel's fields
func (s *Service) UpdateSalesChannel(ctx context.Context, id uuid.UUID, req SalesChannelRequest) (*SalesChannelResponse, error) {
	sc, err := s.channelRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sc.Update(req.Name, req.Description, req.IsDisabled); err != nil {
		return nil, err
	}
	if err := s.channelRepo.Update(ctx, sc); err != nil {
		return nil, err
	}
	resp := toSalesChannelResponse(sc)
	return &resp, nil
}

// DeleteSalesChannel soft deletes a sales channel. The store default cannot be deleted.
func (s *Service) DeleteSalesChannel(ctx context.Context, id uuid.UUID) error {
	st, err := s.storeRepo.Get(ctx)
	if err != nil && !shared.IsNotFound(err) {
		return err
	}
	if st != nil && st.DefaultSalesChannelID != nil && *st.DefaultSalesChannelID == id {
		return shared.NewDomainError("DEFAULT_SALES_CHANNEL", "The default sales channel cannot be deleted")
	}
	return s.channelRepo.Delete(ctx, id)
}

// ListSalesChannels lists sales channels
func (s *Service) ListSalesChannels(ctx context.Context, q shared.ListQuery) (shared.ListResult[SalesChannelResponse], error) {
	q = q.Normalize()
	rows, total, err := s.channelRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[SalesChannelResponse]{}, err
	}
	items := make([]SalesChannelResponse, len(rows))
	for i, sc := range rows {
		items[i] = toSalesChannelResponse(sc)
	}
	return shared.NewListResult(items, total, q), nil
}

// EnsureChannelEnabled returns ErrSalesChannelDisabled for disabled channels
func (s *Service) EnsureChannelEnabled(ctx context.Context, id uuid.UUID) error {
	sc, err := s.channelRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sc.IsDisabled {
		return store.ErrSalesChannelDisabled
	}
	return nil
}

package inventory

import (
	"context"
	"strconv"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/stocklocation"
	"github.com/commerce/backend/internal/domain/store"
	"github.com/google/uuid"
)

// LocationService manages stock locations
type LocationService struct {
	repo        stocklocation.Repository
	channelRepo store.SalesChannelRepository
}

// NewLocationService creates a new LocationService
func NewLocationService(repo stocklocation.Repository, channelRepo store.SalesChannelRepository) *LocationService {
	return &LocationService{repo: repo, channelRepo: channelRepo}
}

// Create creates a stock location
func (s *LocationService) Create(ctx context.Context, req LocationRequest) (*LocationResponse, error) {
	loc, err := stocklocation.New(req.Name, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.checkChannels(ctx, req.SalesChannelIDs); err != nil {
		return nil, err
	}
	loc.SalesChannelIDs = req.SalesChannelIDs
	if err := s.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	resp := toLocationResponse(loc)
	return &resp, nil
}

// Update replaces a stock location
func (s *LocationService) Update(ctx context.Context, id uuid.UUID, req LocationRequest) (*LocationResponse, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := loc.Update(req.Name, req.Address); err != nil {
		return nil, err
	}
	if req.SalesChannelIDs != nil {
		if err := s.checkChannels(ctx, req.SalesChannelIDs); err != nil {
			return nil, err
		}
		loc.SalesChannelIDs = req.SalesChannelIDs
	}
	if err := s.repo.Update(ctx, loc); err != nil {
		return nil, err
	}
	resp := toLocationResponse(loc)
	return &resp, nil
}

func (s *LocationService) checkChannels(ctx context.Context, ids []uuid.UUID) error {
	var v shared.Validator
	for i, id := range ids {
		if _, err := s.channelRepo.FindByID(ctx, id); err != nil {
			if !shared.IsNotFound(err) {
				return err
			}
			v.Check(false, "sales_channel_ids."+strconv.Itoa(i), "sales channel "+id.String()+" does not exist")
		}
	}
	return v.Err()
}

// Get returns a stock location
func (s *LocationService) Get(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toLocationResponse(loc)
	return &resp, nil
}

// Delete soft deletes a stock location
func (s *LocationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List lists stock locations
func (s *LocationService) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[LocationResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return shared.ListResult[LocationResponse]{}, err
	}
	items := make([]LocationResponse, len(rows))
	for i, l := range rows {
		items[i] = toLocationResponse(l)
	}
	return shared.NewListResult(items, total, q), nil
}

// LocationIDsForChannel returns the ids of locations serving a sales channel.
// Without a channel every location qualifies.
func (s *LocationService) LocationIDsForChannel(ctx context.Context, salesChannelID *uuid.UUID) ([]uuid.UUID, error) {
	var locations []*stocklocation.StockLocation
	if salesChannelID != nil {
		found, err := s.repo.FindBySalesChannel(ctx, *salesChannelID)
		if err != nil {
			return nil, err
		}
		locations = found
	} else {
		q := shared.NewListQuery()
		q.Limit = shared.MaxListLimit
		found, _, err := s.repo.List(ctx, q)
		if err != nil {
			return nil, err
		}
		locations = found
	}
	ids := make([]uuid.UUID, len(locations))
	for i, l := range locations {
		ids[i] = l.ID
	}
	return ids, nil
}

// Package inventory manages stock locations, inventory items, their levels
// and the reservations held against them.
package inventory

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/stocklocation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles inventory items, levels and reservations
type Service struct {
	items     inventory.ItemRepository
	levels    inventory.LevelRepository
	locations stocklocation.Repository
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new inventory Service
func NewService(
	items inventory.ItemRepository,
	levels inventory.LevelRepository,
	locations stocklocation.Repository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{items: items, levels: levels, locations: locations, logger: logger, now: time.Now}
}

// ========================================
// Items
// ========================================

// CreateItem creates an inventory item with a unique SKU
func (s *Service) CreateItem(ctx context.Context, req ItemRequest) (*ItemResponse, error) {
	requiresShipping := true
	if req.RequiresShipping != nil {
		requiresShipping = *req.RequiresShipping
	}
	item, err := inventory.NewItem(req.SKU, req.Title, requiresShipping)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, item.SKU, nil); err != nil {
		return nil, err
	}
	item.OriginCountry = strings.ToLower(req.OriginCountry)
	item.Weight = req.Weight
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	resp := toItemResponse(item, nil)
	return &resp, nil
}

// UpdateItem replaces an item's fields
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, req ItemRequest) (*ItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" && strings.TrimSpace(req.Title) == "" {
		return nil, shared.NewInvalidDataError("sku", "sku or title is required")
	}
	if sku != item.SKU {
		if err := s.ensureSKUFree(ctx, sku, &id); err != nil {
			return nil, err
		}
	}
	item.SKU = sku
	item.Title = strings.TrimSpace(req.Title)
	if req.RequiresShipping != nil {
		item.RequiresShipping = *req.RequiresShipping
	}
	item.OriginCountry = strings.ToLower(req.OriginCountry)
	item.Weight = req.Weight
	item.Touch()
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return s.itemWithLevels(ctx, item)
}

func (s *Service) ensureSKUFree(ctx context.Context, sku string, excludeID *uuid.UUID) error {
	if sku == "" {
		return nil
	}
	exists, err := s.items.ExistsBySKU(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewNotUniqueError("InventoryItem", "sku", sku)
	}
	return nil
}

// GetItem returns an item with its levels
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.itemWithLevels(ctx, item)
}

func (s *Service) itemWithLevels(ctx context.Context, item *inventory.Item) (*ItemResponse, error) {
	levels, err := s.levels.FindLevels(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(item, levels)
	return &resp, nil
}

// DeleteItem soft deletes an item
func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.items.Delete(ctx, id)
}

// ListItems lists items without their levels
func (s *Service) ListItems(ctx context.Context, q shared.ListQuery) (shared.ListResult[ItemResponse], error) {
	q = q.Normalize()
	rows, total, err := s.items.List(ctx, q)
	if err != nil {
		return shared.ListResult[ItemResponse]{}, err
	}
	out := make([]ItemResponse, len(rows))
	for i, item := range rows {
		out[i] = toItemResponse(item, nil)
	}
	return shared.NewListResult(out, total, q), nil
}

// ========================================
// Levels
// ========================================

// CreateLevel stocks an item at a location
func (s *Service) CreateLevel(ctx context.Context, itemID uuid.UUID, req CreateLevelRequest) (*LevelResponse, error) {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	if _, err := s.locations.FindByID(ctx, req.LocationID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewInvalidDataError("location_id", "stock location "+req.LocationID.String()+" does not exist")
		}
		return nil, err
	}
	if _, err := s.levels.FindLevel(ctx, itemID, req.LocationID); err == nil {
		return nil, shared.NewNotUniqueError("InventoryLevel", "location_id", req.LocationID)
	} else if !shared.IsNotFound(err) {
		return nil, err
	}
	level, err := inventory.NewLevel(itemID, req.LocationID, req.StockedQuantity, req.IncomingQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.levels.CreateLevel(ctx, level); err != nil {
		return nil, err
	}
	resp := toLevelResponse(level)
	return &resp, nil
}

// UpdateLevel sets stocked and incoming quantities. Stock cannot drop below
// what is reserved.
func (s *Service) UpdateLevel(ctx context.Context, itemID, locationID uuid.UUID, req UpdateLevelRequest) (*LevelResponse, error) {
	level, err := s.levels.FindLevel(ctx, itemID, locationID)
	if err != nil {
		return nil, err
	}
	if req.StockedQuantity != nil {
		if err := level.Adjust(*req.StockedQuantity - level.StockedQuantity); err != nil {
			return nil, err
		}
	}
	if req.IncomingQuantity != nil {
		level.IncomingQuantity = *req.IncomingQuantity
	}
	if err := s.levels.UpdateLevel(ctx, level); err != nil {
		return nil, err
	}
	resp := toLevelResponse(level)
	return &resp, nil
}

// ListLevels lists levels, optionally filtered by item or location
func (s *Service) ListLevels(ctx context.Context, q shared.ListQuery) (shared.ListResult[LevelResponse], error) {
	q = q.Normalize()
	rows, total, err := s.levels.ListLevels(ctx, q)
	if err != nil {
		return shared.ListResult[LevelResponse]{}, err
	}
	out := make([]LevelResponse, len(rows))
	for i, l := range rows {
		out[i] = toLevelResponse(l)
	}
	return shared.NewListResult(out, total, q), nil
}

// AdjustInventory changes the stocked quantity of an item at a location by delta
func (s *Service) AdjustInventory(ctx context.Context, itemID uuid.UUID, req AdjustRequest) (*LevelResponse, error) {
	level, err := s.levels.FindLevel(ctx, itemID, req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := level.Adjust(req.Delta); err != nil {
		return nil, err
	}
	if err := s.levels.UpdateLevel(ctx, level); err != nil {
		return nil, err
	}
	s.logger.Info("inventory adjusted",
		zap.String("inventory_item_id", itemID.String()),
		zap.String("location_id", req.LocationID.String()),
		zap.Int("delta", req.Delta),
		zap.Int("stocked_quantity", level.StockedQuantity),
	)
	resp := toLevelResponse(level)
	return &resp, nil
}

// ========================================
// Availability and reservations
// ========================================

// ConfirmAvailability reports whether one of the locations can cover quantity
// of the item on its own
func (s *Service) ConfirmAvailability(ctx context.Context, itemID uuid.UUID, locationIDs []uuid.UUID, quantity int) (bool, error) {
	levels, err := s.levels.FindLevels(ctx, itemID)
	if err != nil {
		return false, err
	}
	allowed := make(map[uuid.UUID]bool, len(locationIDs))
	for _, id := range locationIDs {
		allowed[id] = true
	}
	for _, l := range levels {
		if allowed[l.LocationID] && l.Available() >= quantity {
			return true, nil
		}
	}
	return false, nil
}

// CreateReservations reserves every request or none
func (s *Service) CreateReservations(ctx context.Context, reqs []ReservationRequest) ([]ReservationResponse, error) {
	requests := make([]inventory.ReservationRequest, len(reqs))
	var v shared.Validator
	for i, r := range reqs {
		path := "items." + strconv.Itoa(i)
		v.Check(r.Quantity > 0, path+".quantity", "quantity must be positive")
		v.Check(len(r.LocationIDs) > 0, path+".location_ids", "at least one location is required")
		requests[i] = inventory.ReservationRequest(r)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	created, err := s.levels.Reserve(ctx, requests)
	if err != nil {
		return nil, err
	}
	out := make([]ReservationResponse, len(created))
	for i, r := range created {
		out[i] = toReservationResponse(r)
	}
	return out, nil
}

// ListReservations lists reservations
func (s *Service) ListReservations(ctx context.Context, q shared.ListQuery) (shared.ListResult[ReservationResponse], error) {
	q = q.Normalize()
	rows, total, err := s.levels.FindReservations(ctx, q)
	if err != nil {
		return shared.ListResult[ReservationResponse]{}, err
	}
	out := make([]ReservationResponse, len(rows))
	for i, r := range rows {
		out[i] = toReservationResponse(r)
	}
	return shared.NewListResult(out, total, q), nil
}

// DeleteReservations releases reservations by id
func (s *Service) DeleteReservations(ctx context.Context, ids []uuid.UUID) error {
	return s.levels.ReleaseReservations(ctx, ids)
}

// DeleteReservationsByLineItem releases what is held for line items
func (s *Service) DeleteReservationsByLineItem(ctx context.Context, lineItemIDs ...uuid.UUID) error {
	return s.levels.ReleaseByLineItems(ctx, lineItemIDs)
}

// ConsumeReservation turns reserved units of a line item into shipped stock
func (s *Service) ConsumeReservation(ctx context.Context, lineItemID uuid.UUID, quantity int) error {
	return s.levels.ConsumeByLineItem(ctx, lineItemID, quantity)
}

// Restock puts quantity back into stock at a location, creating the level if needed
func (s *Service) Restock(ctx context.Context, itemID, locationID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	level, err := s.levels.FindLevel(ctx, itemID, locationID)
	if shared.IsNotFound(err) {
		level, err = inventory.NewLevel(itemID, locationID, quantity, 0)
		if err != nil {
			return err
		}
		return s.levels.CreateLevel(ctx, level)
	}
	if err != nil {
		return err
	}
	if err := level.Adjust(quantity); err != nil {
		return err
	}
	return s.levels.UpdateLevel(ctx, level)
}

// ReleaseExpired releases every reservation whose expiry passed
func (s *Service) ReleaseExpired(ctx context.Context) (*ExpiredReservationStats, error) {
	stats := &ExpiredReservationStats{ProcessedAt: s.now()}
	released, err := s.levels.ReleaseExpired(ctx, stats.ProcessedAt)
	if err != nil {
		s.logger.Error("Failed to release expired reservations", zap.Error(err))
		return nil, err
	}
	stats.Released = released
	if released > 0 {
		s.logger.Info("Released expired reservations", zap.Int64("count", released))
	}
	return stats, nil
}

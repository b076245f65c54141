package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var inventoryItemListSpec = ListSpec{
	SortFields: map[string]string{
		"sku":        "sku",
		"title":      "title",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"sku", "title"},
	FilterColumns: map[string]string{
		"id":                "id",
		"sku":               "sku",
		"requires_shipping": "requires_shipping",
	},
	Filters: map[string]FilterFunc{
		"location_id": func(db *gorm.DB, value any) *gorm.DB {
			return db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.InventoryLevelModel{}).Select("inventory_item_id").
				Where("location_id = ?", value))
		},
	},
}

var inventoryLevelListSpec = ListSpec{
	SortFields: map[string]string{
		"stocked_quantity":  "stocked_quantity",
		"reserved_quantity": "reserved_quantity",
		"created_at":        "created_at",
	},
	DefaultOrder: "created_at ASC",
	FilterColumns: map[string]string{
		"inventory_item_id": "inventory_item_id",
		"location_id":       "location_id",
		"stocked_quantity":  "stocked_quantity",
	},
}

var reservationListSpec = ListSpec{
	SortFields: map[string]string{
		"created_at": "created_at",
		"expires_at": "expires_at",
		"quantity":   "quantity",
	},
	DefaultOrder: "created_at DESC",
	FilterColumns: map[string]string{
		"inventory_item_id": "inventory_item_id",
		"location_id":       "location_id",
		"line_item_id":      "line_item_id",
		"expires_at":        "expires_at",
	},
}

// GormInventoryItemRepository implements inventory.ItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

var _ inventory.ItemRepository = (*GormInventoryItemRepository)(nil)

// Create creates an inventory item
func (r *GormInventoryItemRepository) Create(ctx context.Context, item *inventory.Item) error {
	err := r.db.WithContext(ctx).Create(models.InventoryItemModelFromDomain(item)).Error
	return translateWriteError(err, "InventoryItem", "sku", item.SKU)
}

// Update updates an inventory item
func (r *GormInventoryItemRepository) Update(ctx context.Context, item *inventory.Item) error {
	err := updateRow(ctx, r.db, models.InventoryItemModelFromDomain(item), "InventoryItem", item.ID)
	return translateWriteError(err, "InventoryItem", "sku", item.SKU)
}

// Delete soft deletes the item together with its levels
func (r *GormInventoryItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.InventoryItemModel{}, "id = ?", id), "InventoryItem", id); err != nil {
			return err
		}
		return tx.Where("inventory_item_id = ?", id).Delete(&models.InventoryLevelModel{}).Error
	})
}

// FindByID finds an item by ID
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "InventoryItem", id)
	}
	return model.ToDomain(), nil
}

// ExistsBySKU reports whether a live item other than excludeID uses sku
func (r *GormInventoryItemRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&models.InventoryItemModel{}).Where("LOWER(sku) = ?", strings.ToLower(sku))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// List returns one page of items
func (r *GormInventoryItemRepository) List(ctx context.Context, q shared.ListQuery) ([]*inventory.Item, int64, error) {
	rows, total, err := listPage[models.InventoryItemModel](ctx, r.db, q, inventoryItemListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*inventory.Item, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// GormInventoryLevelRepository implements inventory.LevelRepository using GORM.
// Quantity changes are applied with guarded UPDATE statements so concurrent
// reservations can never push reserved above stocked.
type GormInventoryLevelRepository struct {
	db *gorm.DB
}

// NewGormInventoryLevelRepository creates a new GormInventoryLevelRepository
func NewGormInventoryLevelRepository(db *gorm.DB) *GormInventoryLevelRepository {
	return &GormInventoryLevelRepository{db: db}
}

var _ inventory.LevelRepository = (*GormInventoryLevelRepository)(nil)

// CreateLevel creates the level of an item at a location
func (r *GormInventoryLevelRepository) CreateLevel(ctx context.Context, level *inventory.Level) error {
	err := r.db.WithContext(ctx).Create(models.InventoryLevelModelFromDomain(level)).Error
	return translateWriteError(err, "InventoryLevel", "location_id", level.LocationID)
}

// UpdateLevel writes stocked and incoming quantities. Reserved quantity is
// owned by the reservation methods and is not overwritten.
func (r *GormInventoryLevelRepository) UpdateLevel(ctx context.Context, level *inventory.Level) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryLevelModel{}).
		Where("id = ? AND reserved_quantity <= ?", level.ID, level.StockedQuantity).
		Updates(map[string]any{
			"stocked_quantity":  level.StockedQuantity,
			"incoming_quantity": level.IncomingQuantity,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.findLevelByID(ctx, r.db, level.ID); err != nil {
			return err
		}
		return inventory.ErrInsufficientInventory(level.InventoryItemID, level.StockedQuantity, level.ReservedQuantity)
	}
	return nil
}

func (r *GormInventoryLevelRepository) findLevelByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.InventoryLevelModel, error) {
	var model models.InventoryLevelModel
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "InventoryLevel", id)
	}
	return &model, nil
}

// FindLevel returns the level of an item at a location
func (r *GormInventoryLevelRepository) FindLevel(ctx context.Context, itemID, locationID uuid.UUID) (*inventory.Level, error) {
	var model models.InventoryLevelModel
	if err := r.db.WithContext(ctx).
		Where("inventory_item_id = ? AND location_id = ?", itemID, locationID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "InventoryLevel", itemID)
	}
	return model.ToDomain(), nil
}

// FindLevels returns every level of an item
func (r *GormInventoryLevelRepository) FindLevels(ctx context.Context, itemID uuid.UUID) ([]*inventory.Level, error) {
	var rows []models.InventoryLevelModel
	if err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*inventory.Level, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ListLevels returns one page of levels
func (r *GormInventoryLevelRepository) ListLevels(ctx context.Context, q shared.ListQuery) ([]*inventory.Level, int64, error) {
	rows, total, err := listPage[models.InventoryLevelModel](ctx, r.db, q, inventoryLevelListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*inventory.Level, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// Reserve places every request at the first of its locations with enough
// available stock. Either all reservations are created or none.
func (r *GormInventoryLevelRepository) Reserve(ctx context.Context, requests []inventory.ReservationRequest) ([]*inventory.Reservation, error) {
	reservations := make([]*inventory.Reservation, 0, len(requests))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, req := range requests {
			if req.Quantity <= 0 {
				return shared.NewInvalidDataError(fmt.Sprintf("items.%d.quantity", i), "quantity must be positive")
			}
			res, err := r.reserveOne(tx, req)
			if err != nil {
				return err
			}
			reservations = append(reservations, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *GormInventoryLevelRepository) reserveOne(tx *gorm.DB, req inventory.ReservationRequest) (*inventory.Reservation, error) {
	if len(req.LocationIDs) == 0 {
		return nil, inventory.ErrInsufficientInventory(req.InventoryItemID, 0, req.Quantity)
	}
	var levels []models.InventoryLevelModel
	if err := forUpdate(tx).
		Where("inventory_item_id = ? AND location_id IN ?", req.InventoryItemID, req.LocationIDs).
		Find(&levels).Error; err != nil {
		return nil, err
	}
	byLocation := make(map[uuid.UUID]models.InventoryLevelModel, len(levels))
	for _, l := range levels {
		byLocation[l.LocationID] = l
	}

	best := 0
	for _, locationID := range req.LocationIDs {
		level, ok := byLocation[locationID]
		if !ok {
			continue
		}
		available := level.StockedQuantity - level.ReservedQuantity
		if available > best {
			best = available
		}
		if available < req.Quantity {
			continue
		}
		result := tx.Model(&models.InventoryLevelModel{}).
			Where("id = ? AND stocked_quantity - reserved_quantity >= ?", level.ID, req.Quantity).
			Updates(map[string]any{
				"reserved_quantity": gorm.Expr("reserved_quantity + ?", req.Quantity),
				"updated_at":        time.Now(),
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		res, err := inventory.NewReservation(req.InventoryItemID, locationID, req.LineItemID, req.Quantity, req.ExpiresAt)
		if err != nil {
			return nil, err
		}
		if err := tx.Create(models.ReservationModelFromDomain(res)).Error; err != nil {
			return nil, err
		}
		return res, nil
	}
	return nil, inventory.ErrInsufficientInventory(req.InventoryItemID, best, req.Quantity)
}

// ReleaseReservations deletes reservations and gives their quantity back
func (r *GormInventoryLevelRepository) ReleaseReservations(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ReservationModel
		if err := forUpdate(tx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		_, err := releaseRows(tx, rows)
		return err
	})
}

// ReleaseByLineItems deletes the reservations held for line items
func (r *GormInventoryLevelRepository) ReleaseByLineItems(ctx context.Context, lineItemIDs []uuid.UUID) error {
	if len(lineItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ReservationModel
		if err := forUpdate(tx).Where("line_item_id IN ?", lineItemIDs).Find(&rows).Error; err != nil {
			return err
		}
		_, err := releaseRows(tx, rows)
		return err
	})
}

// ReleaseExpired deletes reservations whose expiry passed and returns how many were released
func (r *GormInventoryLevelRepository) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	var released int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ReservationModel
		if err := forUpdate(tx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Find(&rows).Error; err != nil {
			return err
		}
		n, err := releaseRows(tx, rows)
		released = n
		return err
	})
	return released, err
}

// releaseRows deletes each reservation and gives its quantity back only when
// this call removed the row, so a release racing another one is counted once.
func releaseRows(tx *gorm.DB, rows []models.ReservationModel) (int64, error) {
	var released int64
	for _, row := range rows {
		result := tx.Where("id = ?", row.ID).Delete(&models.ReservationModel{})
		if result.Error != nil {
			return released, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		if err := adjustReserved(tx, row.InventoryItemID, row.LocationID, -row.Quantity, 0); err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}

// adjustReserved shifts reserved and stocked quantities of one level, clamping at zero
func adjustReserved(tx *gorm.DB, itemID, locationID uuid.UUID, reservedDelta, stockedDelta int) error {
	updates := map[string]any{
		"reserved_quantity": gorm.Expr("CASE WHEN reserved_quantity + ? < 0 THEN 0 ELSE reserved_quantity + ? END", reservedDelta, reservedDelta),
		"updated_at":        time.Now(),
	}
	if stockedDelta != 0 {
		updates["stocked_quantity"] = gorm.Expr("CASE WHEN stocked_quantity + ? < 0 THEN 0 ELSE stocked_quantity + ? END", stockedDelta, stockedDelta)
	}
	return tx.Model(&models.InventoryLevelModel{}).
		Where("inventory_item_id = ? AND location_id = ?", itemID, locationID).
		Updates(updates).Error
}

// ConsumeByLineItem ships up to quantity reserved units of a line item:
// they leave both reserved and stocked, and the reservations shrink or disappear.
func (r *GormInventoryLevelRepository) ConsumeByLineItem(ctx context.Context, lineItemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ReservationModel
		if err := forUpdate(tx).
			Where("line_item_id = ?", lineItemID).
			Order("created_at ASC").
			Find(&rows).Error; err != nil {
			return err
		}
		remaining := quantity
		for _, row := range rows {
			if remaining == 0 {
				break
			}
			take := row.Quantity
			if take > remaining {
				take = remaining
			}
			if err := adjustReserved(tx, row.InventoryItemID, row.LocationID, -take, -take); err != nil {
				return err
			}
			if take == row.Quantity {
				if err := tx.Delete(&models.ReservationModel{}, "id = ?", row.ID).Error; err != nil {
					return err
				}
			} else if err := tx.Model(&models.ReservationModel{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{"quantity": row.Quantity - take, "updated_at": time.Now()}).Error; err != nil {
				return err
			}
			remaining -= take
		}
		return nil
	})
}

// FindReservations returns one page of reservations
func (r *GormInventoryLevelRepository) FindReservations(ctx context.Context, q shared.ListQuery) ([]*inventory.Reservation, int64, error) {
	rows, total, err := listPage[models.ReservationModel](ctx, r.db, q, reservationListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*inventory.Reservation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

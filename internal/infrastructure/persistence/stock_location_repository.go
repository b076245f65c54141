package persistence

import (
	"context"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/stocklocation"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var stockLocationListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultOrder:  "name ASC",
	SearchColumns: []string{"name"},
	FilterColumns: map[string]string{
		"id":   "id",
		"name": "name",
	},
	Filters: map[string]FilterFunc{
		"sales_channel_id": func(db *gorm.DB, value any) *gorm.DB {
			return db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.LocationSalesChannelModel{}).Select("stock_location_id").
				Where("sales_channel_id = ?", value))
		},
	},
}

// GormStockLocationRepository implements stocklocation.Repository using GORM
type GormStockLocationRepository struct {
	db *gorm.DB
}

// NewGormStockLocationRepository creates a new GormStockLocationRepository
func NewGormStockLocationRepository(db *gorm.DB) *GormStockLocationRepository {
	return &GormStockLocationRepository{db: db}
}

var _ stocklocation.Repository = (*GormStockLocationRepository)(nil)

// Create inserts the location and its sales channel links
func (r *GormStockLocationRepository) Create(ctx context.Context, l *stocklocation.StockLocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.StockLocationModelFromDomain(l)).Error; err != nil {
			return err
		}
		return r.replaceChannels(tx, l)
	})
}

// Update writes the location and replaces its sales channel links
func (r *GormStockLocationRepository) Update(ctx context.Context, l *stocklocation.StockLocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(ctx, tx, models.StockLocationModelFromDomain(l), "StockLocation", l.ID); err != nil {
			return err
		}
		return r.replaceChannels(tx, l)
	})
}

func (r *GormStockLocationRepository) replaceChannels(tx *gorm.DB, l *stocklocation.StockLocation) error {
	if err := tx.Where("stock_location_id = ?", l.ID).Delete(&models.LocationSalesChannelModel{}).Error; err != nil {
		return err
	}
	if len(l.SalesChannelIDs) == 0 {
		return nil
	}
	rows := make([]models.LocationSalesChannelModel, len(l.SalesChannelIDs))
	for i, id := range l.SalesChannelIDs {
		rows[i] = models.LocationSalesChannelModel{StockLocationID: l.ID, SalesChannelID: id}
	}
	return tx.Create(&rows).Error
}

// Delete soft deletes the location and unlinks its sales channels
func (r *GormStockLocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.StockLocationModel{}, "id = ?", id), "StockLocation", id); err != nil {
			return err
		}
		return tx.Where("stock_location_id = ?", id).Delete(&models.LocationSalesChannelModel{}).Error
	})
}

// FindByID finds a location by ID
func (r *GormStockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stocklocation.StockLocation, error) {
	var model models.StockLocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "StockLocation", id)
	}
	out, err := r.hydrate(ctx, []models.StockLocationModel{model})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// FindBySalesChannel returns the live locations that serve a sales channel, oldest first
func (r *GormStockLocationRepository) FindBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) ([]*stocklocation.StockLocation, error) {
	var rows []models.StockLocationModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.LocationSalesChannelModel{}).
			Select("stock_location_id").
			Where("sales_channel_id = ?", salesChannelID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

// List returns one page of locations
func (r *GormStockLocationRepository) List(ctx context.Context, q shared.ListQuery) ([]*stocklocation.StockLocation, int64, error) {
	rows, total, err := listPage[models.StockLocationModel](ctx, r.db, q, stockLocationListSpec)
	if err != nil {
		return nil, 0, err
	}
	out, err := r.hydrate(ctx, rows)
	return out, total, err
}

func (r *GormStockLocationRepository) hydrate(ctx context.Context, rows []models.StockLocationModel) ([]*stocklocation.StockLocation, error) {
	out := make([]*stocklocation.StockLocation, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var links []models.LocationSalesChannelModel
	if err := r.db.WithContext(ctx).Where("stock_location_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, err
	}
	byLocation := make(map[uuid.UUID][]uuid.UUID)
	for _, l := range links {
		byLocation[l.StockLocationID] = append(byLocation[l.StockLocationID], l.SalesChannelID)
	}
	for i := range rows {
		out[i] = rows[i].ToDomain(byLocation[rows[i].ID])
	}
	return out, nil
}

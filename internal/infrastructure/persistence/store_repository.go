package persistence

import (
	"context"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/store"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var salesChannelListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at ASC",
	SearchColumns: []string{"name", "description"},
	FilterColumns: map[string]string{
		"is_disabled": "is_disabled",
		"id":          "id",
	},
}

// GormStoreRepository implements store.Repository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

var _ store.Repository = (*GormStoreRepository)(nil)

// Get returns the oldest store row
func (r *GormStoreRepository) Get(ctx context.Context) (*store.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&model).Error; err != nil {
		return nil, translateError(err, "Store", "default")
	}
	return model.ToDomain(), nil
}

// Save inserts or updates the store
func (r *GormStoreRepository) Save(ctx context.Context, s *store.Store) error {
	return r.db.WithContext(ctx).Save(models.StoreModelFromDomain(s)).Error
}

// GormSalesChannelRepository implements store.SalesChannelRepository using GORM
type GormSalesChannelRepository struct {
	db *gorm.DB
}

// NewGormSalesChannelRepository creates a new GormSalesChannelRepository
func NewGormSalesChannelRepository(db *gorm.DB) *GormSalesChannelRepository {
	return &GormSalesChannelRepository{db: db}
}

var _ store.SalesChannelRepository = (*GormSalesChannelRepository)(nil)

// Create creates a sales channel
func (r *GormSalesChannelRepository) Create(ctx context.Context, sc *store.SalesChannel) error {
	return r.db.WithContext(ctx).Create(models.SalesChannelModelFromDomain(sc)).Error
}

// Update updates a sales channel
func (r *GormSalesChannelRepository) Update(ctx context.Context, sc *store.SalesChannel) error {
	return updateRow(ctx, r.db, models.SalesChannelModelFromDomain(sc), "SalesChannel", sc.ID)
}

// Delete soft deletes a sales channel and detaches it from products and stock locations
func (r *GormSalesChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.SalesChannelModel{}, "id = ?", id), "SalesChannel", id); err != nil {
			return err
		}
		if err := tx.Where("sales_channel_id = ?", id).Delete(&models.ProductSalesChannelModel{}).Error; err != nil {
			return err
		}
		return tx.Where("sales_channel_id = ?", id).Delete(&models.LocationSalesChannelModel{}).Error
	})
}

// FindByID finds a sales channel by ID
func (r *GormSalesChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.SalesChannel, error) {
	var model models.SalesChannelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "SalesChannel", id)
	}
	return model.ToDomain(), nil
}

// List returns one page of sales channels
func (r *GormSalesChannelRepository) List(ctx context.Context, q shared.ListQuery) ([]*store.SalesChannel, int64, error) {
	rows, total, err := listPage[models.SalesChannelModel](ctx, r.db, q, salesChannelListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*store.SalesChannel, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

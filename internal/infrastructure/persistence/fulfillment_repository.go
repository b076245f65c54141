package persistence

import (
	"context"

	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var shippingOptionListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"amount":     "amount",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at ASC",
	SearchColumns: []string{"name"},
	FilterColumns: map[string]string{
		"id":          "id",
		"region_id":   "region_id",
		"provider_id": "provider_id",
		"is_return":   "is_return",
		"admin_only":  "admin_only",
	},
}

// GormShippingOptionRepository implements fulfillment.ShippingOptionRepository using GORM
type GormShippingOptionRepository struct {
	db *gorm.DB
}

// NewGormShippingOptionRepository creates a new GormShippingOptionRepository
func NewGormShippingOptionRepository(db *gorm.DB) *GormShippingOptionRepository {
	return &GormShippingOptionRepository{db: db}
}

var _ fulfillment.ShippingOptionRepository = (*GormShippingOptionRepository)(nil)

// Create creates a shipping option
func (r *GormShippingOptionRepository) Create(ctx context.Context, so *fulfillment.ShippingOption) error {
	return r.db.WithContext(ctx).Create(models.ShippingOptionModelFromDomain(so)).Error
}

// Update writes a shipping option
func (r *GormShippingOptionRepository) Update(ctx context.Context, so *fulfillment.ShippingOption) error {
	return updateRow(ctx, r.db, models.ShippingOptionModelFromDomain(so), "ShippingOption", so.ID)
}

// Delete soft deletes a shipping option
func (r *GormShippingOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.ShippingOptionModel{}, "id = ?", id), "ShippingOption", id)
}

// FindByID finds a shipping option by ID
func (r *GormShippingOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.ShippingOption, error) {
	var model models.ShippingOptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "ShippingOption", id)
	}
	return model.ToDomain(), nil
}

// FindByRegion returns the options offered in a region
func (r *GormShippingOptionRepository) FindByRegion(ctx context.Context, regionID uuid.UUID) ([]*fulfillment.ShippingOption, error) {
	var rows []models.ShippingOptionModel
	if err := r.db.WithContext(ctx).
		Where("region_id = ?", regionID).
		Order("amount ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return shippingOptionsToDomain(rows), nil
}

// List returns one page of shipping options
func (r *GormShippingOptionRepository) List(ctx context.Context, q shared.ListQuery) ([]*fulfillment.ShippingOption, int64, error) {
	rows, total, err := listPage[models.ShippingOptionModel](ctx, r.db, q, shippingOptionListSpec)
	if err != nil {
		return nil, 0, err
	}
	return shippingOptionsToDomain(rows), total, nil
}

func shippingOptionsToDomain(rows []models.ShippingOptionModel) []*fulfillment.ShippingOption {
	out := make([]*fulfillment.ShippingOption, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// GormFulfillmentRepository implements fulfillment.Repository using GORM
type GormFulfillmentRepository struct {
	db *gorm.DB
}

// NewGormFulfillmentRepository creates a new GormFulfillmentRepository
func NewGormFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

var _ fulfillment.Repository = (*GormFulfillmentRepository)(nil)

// Create creates a fulfillment
func (r *GormFulfillmentRepository) Create(ctx context.Context, f *fulfillment.Fulfillment) error {
	return r.db.WithContext(ctx).Create(models.FulfillmentModelFromDomain(f)).Error
}

// Update writes a fulfillment
func (r *GormFulfillmentRepository) Update(ctx context.Context, f *fulfillment.Fulfillment) error {
	return updateRow(ctx, r.db, models.FulfillmentModelFromDomain(f), "Fulfillment", f.ID)
}

// FindByID finds a fulfillment by ID
func (r *GormFulfillmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Fulfillment, error) {
	var model models.FulfillmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Fulfillment", id)
	}
	return model.ToDomain(), nil
}

// FindByOrder returns the fulfillments of an order, oldest first
func (r *GormFulfillmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*fulfillment.Fulfillment, error) {
	var rows []models.FulfillmentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*fulfillment.Fulfillment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

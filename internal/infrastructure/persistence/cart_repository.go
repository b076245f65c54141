package persistence

import (
	"context"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var cartListSpec = ListSpec{
	SortFields: map[string]string{
		"created_at":   "created_at",
		"updated_at":   "updated_at",
		"completed_at": "completed_at",
	},
	DefaultOrder:  "updated_at DESC",
	SearchColumns: []string{"email"},
	FilterColumns: map[string]string{
		"id":               "id",
		"customer_id":      "customer_id",
		"region_id":        "region_id",
		"sales_channel_id": "sales_channel_id",
		"email":            "email",
		"updated_at":       "updated_at",
	},
	Filters: map[string]FilterFunc{
		"completed": func(db *gorm.DB, value any) *gorm.DB {
			if toString(value) == "true" {
				return db.Where("completed_at IS NOT NULL")
			}
			return db.Where("completed_at IS NULL")
		},
	},
}

// GormCartRepository implements cart.Repository using GORM.
// Save is guarded by the aggregate version.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

var _ cart.Repository = (*GormCartRepository)(nil)

// Create inserts a cart with its items and shipping methods
func (r *GormCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.CartModelFromDomain(c)).Error; err != nil {
			return err
		}
		return r.replaceChildren(tx, c)
	})
}

// Save writes the cart if nobody else saved it since it was loaded, then
// replaces its items and shipping methods. c.Version is bumped on success.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	expected := c.Version
	model := models.CartModelFromDomain(c)
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(ctx, tx, model, "Cart", c.ID, expected); err != nil {
			return err
		}
		return r.replaceChildren(tx, c)
	})
	if err != nil {
		return err
	}
	c.Version = expected + 1
	return nil
}

func (r *GormCartRepository) replaceChildren(tx *gorm.DB, c *cart.Cart) error {
	if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartLineItemModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartShippingMethodModel{}).Error; err != nil {
		return err
	}
	if len(c.Items) > 0 {
		items := make([]models.CartLineItemModel, len(c.Items))
		for i, li := range c.Items {
			items[i] = models.CartLineItemModelFromDomain(c.ID, li)
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}
	if len(c.ShippingMethods) > 0 {
		methods := make([]models.CartShippingMethodModel, len(c.ShippingMethods))
		for i, sm := range c.ShippingMethods {
			methods[i] = models.CartShippingMethodModelFromDomain(c.ID, sm)
		}
		if err := tx.Create(&methods).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a cart with its children
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Cart", id)
	}
	carts, err := r.hydrate(ctx, []models.CartModel{model})
	if err != nil {
		return nil, err
	}
	return carts[0], nil
}

// Delete soft deletes a cart
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.CartModel{}, "id = ?", id), "Cart", id)
}

// List returns one page of carts
func (r *GormCartRepository) List(ctx context.Context, q shared.ListQuery) ([]*cart.Cart, int64, error) {
	rows, total, err := listPage[models.CartModel](ctx, r.db, q, cartListSpec)
	if err != nil {
		return nil, 0, err
	}
	carts, err := r.hydrate(ctx, rows)
	return carts, total, err
}

// DeleteAbandoned soft deletes incomplete carts untouched since before
func (r *GormCartRepository) DeleteAbandoned(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("completed_at IS NULL AND updated_at < ?", before).
		Delete(&models.CartModel{})
	return result.RowsAffected, result.Error
}

func (r *GormCartRepository) hydrate(ctx context.Context, rows []models.CartModel) ([]*cart.Cart, error) {
	out := make([]*cart.Cart, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var items []models.CartLineItemModel
	if err := r.db.WithContext(ctx).
		Where("cart_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	var methods []models.CartShippingMethodModel
	if err := r.db.WithContext(ctx).
		Where("cart_id IN ?", ids).
		Order("created_at ASC").
		Find(&methods).Error; err != nil {
		return nil, err
	}

	itemsByCart := make(map[uuid.UUID][]models.CartLineItemModel, len(rows))
	for _, it := range items {
		itemsByCart[it.CartID] = append(itemsByCart[it.CartID], it)
	}
	methodsByCart := make(map[uuid.UUID][]models.CartShippingMethodModel, len(rows))
	for _, m := range methods {
		methodsByCart[m.CartID] = append(methodsByCart[m.CartID], m)
	}
	for i := range rows {
		out[i] = rows[i].ToDomain(itemsByCart[rows[i].ID], methodsByCart[rows[i].ID])
	}
	return out, nil
}

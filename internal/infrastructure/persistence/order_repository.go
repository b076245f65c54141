package persistence

import (
	"context"

	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// displayIDAttempts bounds retries when two orders race for the same display id
const displayIDAttempts = 5

var orderListSpec = ListSpec{
	SortFields: map[string]string{
		"display_id": "display_id",
		"created_at": "created_at",
		"updated_at": "updated_at",
		"total":      "total",
		"status":     "status",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"email"},
	FilterColumns: map[string]string{
		"id":                 "id",
		"display_id":         "display_id",
		"customer_id":        "customer_id",
		"region_id":          "region_id",
		"sales_channel_id":   "sales_channel_id",
		"email":              "email",
		"status":             "status",
		"payment_status":     "payment_status",
		"fulfillment_status": "fulfillment_status",
		"created_at":         "created_at",
		"total":              "total",
	},
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ order.Repository = (*GormOrderRepository)(nil)

// Create assigns the next display id and stores the order with its items.
// A second order for the same cart is rejected as not unique.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	var err error
	for attempt := 0; attempt < displayIDAttempts; attempt++ {
		err = r.create(ctx, o)
		if !uniqueViolation(err) {
			return err
		}
		if o.CartID != nil {
			if _, findErr := r.FindByCartID(ctx, *o.CartID); findErr == nil {
				return shared.NewNotUniqueError("Order", "cart_id", *o.CartID)
			}
		}
	}
	return err
}

func (r *GormOrderRepository) create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Unscoped().Model(&models.OrderModel{}).
			Select("COALESCE(MAX(display_id), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		o.DisplayID = last + 1
		if err := tx.Create(models.OrderModelFromDomain(o)).Error; err != nil {
			return err
		}
		return r.insertItems(tx, o)
	})
}

// Save writes the order and its line items under the version guard
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	expected := o.Version
	model := models.OrderModelFromDomain(o)
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(ctx, tx, model, "Order", o.ID, expected); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderLineItemModel{}).Error; err != nil {
			return err
		}
		return r.insertItems(tx, o)
	})
	if err != nil {
		return err
	}
	o.Version = expected + 1
	return nil
}

func (r *GormOrderRepository) insertItems(tx *gorm.DB, o *order.Order) error {
	if len(o.Items) == 0 {
		return nil
	}
	items := make([]models.OrderLineItemModel, len(o.Items))
	for i, li := range o.Items {
		items[i] = models.OrderLineItemModelFromDomain(o.ID, i, li)
	}
	return tx.Create(&items).Error
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCartID finds the order placed from a cart
func (r *GormOrderRepository) FindByCartID(ctx context.Context, cartID uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, "cart_id = ?", cartID)
}

func (r *GormOrderRepository) findOne(ctx context.Context, cond string, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Where(cond, id).First(&model).Error; err != nil {
		return nil, translateError(err, "Order", id)
	}
	orders, err := r.hydrate(ctx, []models.OrderModel{model})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// List returns one page of orders
func (r *GormOrderRepository) List(ctx context.Context, q shared.ListQuery) ([]*order.Order, int64, error) {
	rows, total, err := listPage[models.OrderModel](ctx, r.db, q, orderListSpec)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.hydrate(ctx, rows)
	return orders, total, err
}

func (r *GormOrderRepository) hydrate(ctx context.Context, rows []models.OrderModel) ([]*order.Order, error) {
	out := make([]*order.Order, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var items []models.OrderLineItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("order_id, position").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]models.OrderLineItemModel, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range rows {
		out[i] = rows[i].ToDomain(byOrder[rows[i].ID])
	}
	return out, nil
}

// GormReturnRepository implements order.ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

var _ order.ReturnRepository = (*GormReturnRepository)(nil)

// Create creates a return
func (r *GormReturnRepository) Create(ctx context.Context, ret *order.Return) error {
	return r.db.WithContext(ctx).Create(models.ReturnModelFromDomain(ret)).Error
}

// Update writes a return
func (r *GormReturnRepository) Update(ctx context.Context, ret *order.Return) error {
	return updateRow(ctx, r.db, models.ReturnModelFromDomain(ret), "Return", ret.ID)
}

// FindByID finds a return by ID
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Return, error) {
	var model models.ReturnModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Return", id)
	}
	return model.ToDomain(), nil
}

// FindByOrder returns the returns of an order, oldest first
func (r *GormReturnRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*order.Return, error) {
	var rows []models.ReturnModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*order.Return, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

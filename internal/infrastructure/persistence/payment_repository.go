package persistence

import (
	"context"

	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var paymentListSpec = ListSpec{
	SortFields: map[string]string{
		"created_at":  "created_at",
		"captured_at": "captured_at",
		"amount":      "amount",
	},
	DefaultOrder: "created_at DESC",
	FilterColumns: map[string]string{
		"id":            "id",
		"collection_id": "collection_id",
		"provider_id":   "provider_id",
		"status":        "status",
		"currency_code": "currency_code",
		"created_at":    "created_at",
	},
	Filters: map[string]FilterFunc{
		"order_id": func(db *gorm.DB, value any) *gorm.DB {
			return db.Where("collection_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.PaymentCollectionModel{}).Select("id").
				Where("order_id = ?", value))
		},
	},
}

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ payment.Repository = (*GormPaymentRepository)(nil)

// Create inserts a collection and any payments it already holds
func (r *GormPaymentRepository) Create(ctx context.Context, c *payment.Collection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.PaymentCollectionModelFromDomain(c)).Error; err != nil {
			return err
		}
		return savePayments(tx, c)
	})
}

// Save writes the collection under the version guard and upserts its payments.
// Payments are never removed from a collection.
func (r *GormPaymentRepository) Save(ctx context.Context, c *payment.Collection) error {
	expected := c.Version
	model := models.PaymentCollectionModelFromDomain(c)
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(ctx, tx, model, "PaymentCollection", c.ID, expected); err != nil {
			return err
		}
		return savePayments(tx, c)
	})
	if err != nil {
		return err
	}
	c.Version = expected + 1
	return nil
}

func savePayments(tx *gorm.DB, c *payment.Collection) error {
	for _, p := range c.Payments {
		p.CollectionID = c.ID
		row := models.PaymentModelFromDomain(p)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a collection with its payments
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Collection, error) {
	var model models.PaymentCollectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "PaymentCollection", id)
	}
	return r.hydrate(ctx, &model)
}

// FindByOrder returns the most recent collection of an order
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*payment.Collection, error) {
	var model models.PaymentCollectionModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err, "PaymentCollection", orderID)
	}
	return r.hydrate(ctx, &model)
}

// FindByPayment returns the collection holding a payment
func (r *GormPaymentRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*payment.Collection, error) {
	var p models.PaymentModel
	if err := r.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
		return nil, translateError(err, "Payment", paymentID)
	}
	return r.FindByID(ctx, p.CollectionID)
}

// ListPayments returns one page of payments across collections
func (r *GormPaymentRepository) ListPayments(ctx context.Context, q shared.ListQuery) ([]*payment.Payment, int64, error) {
	rows, total, err := listPage[models.PaymentModel](ctx, r.db, q, paymentListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*payment.Payment, len(rows))
	for i := range rows {
		p := rows[i].ToDomain()
		out[i] = &p
	}
	return out, total, nil
}

func (r *GormPaymentRepository) hydrate(ctx context.Context, model *models.PaymentCollectionModel) (*payment.Collection, error) {
	var payments []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("collection_id = ?", model.ID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(payments), nil
}

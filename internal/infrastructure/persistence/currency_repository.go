package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var currencyListSpec = ListSpec{
	SortFields: map[string]string{
		"code": "code",
		"name": "name",
	},
	DefaultOrder:  "code ASC",
	SearchColumns: []string{"code", "name"},
	FilterColumns: map[string]string{
		"code": "code",
	},
}

// GormCurrencyRepository implements currency.Repository using GORM
type GormCurrencyRepository struct {
	db *gorm.DB
}

// NewGormCurrencyRepository creates a new GormCurrencyRepository
func NewGormCurrencyRepository(db *gorm.DB) *GormCurrencyRepository {
	return &GormCurrencyRepository{db: db}
}

var _ currency.Repository = (*GormCurrencyRepository)(nil)

// Upsert inserts the currency or refreshes its descriptive fields
func (r *GormCurrencyRepository) Upsert(ctx context.Context, c *currency.Currency) error {
	model := models.CurrencyModelFromDomain(c)
	now := time.Now()
	model.CreatedAt = now
	model.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"symbol", "symbol_native", "name", "decimal_digits", "updated_at"}),
	}).Create(model).Error
}

// FindByCode finds a currency by its ISO code
func (r *GormCurrencyRepository) FindByCode(ctx context.Context, code string) (*currency.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var model models.CurrencyModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		return nil, translateError(err, "Currency", code)
	}
	return model.ToDomain(), nil
}

// List returns one page of currencies
func (r *GormCurrencyRepository) List(ctx context.Context, q shared.ListQuery) ([]*currency.Currency, int64, error) {
	rows, total, err := listPage[models.CurrencyModel](ctx, r.db, q, currencyListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*currency.Currency, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

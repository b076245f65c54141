package persistence

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/pricing"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var priceListListSpec = ListSpec{
	SortFields: map[string]string{
		"title":      "title",
		"starts_at":  "starts_at",
		"ends_at":    "ends_at",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"title", "description"},
	FilterColumns: map[string]string{
		"id":     "id",
		"status": "status",
		"type":   "type",
	},
}

// GormPricingRepository implements pricing.Repository using GORM
type GormPricingRepository struct {
	db *gorm.DB
}

// NewGormPricingRepository creates a new GormPricingRepository
func NewGormPricingRepository(db *gorm.DB) *GormPricingRepository {
	return &GormPricingRepository{db: db}
}

var _ pricing.Repository = (*GormPricingRepository)(nil)

// ReplaceVariantPrices swaps the base prices of a variant in one transaction
func (r *GormPricingRepository) ReplaceVariantPrices(ctx context.Context, variantID uuid.UUID, prices []pricing.Price) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variant_id = ? AND price_list_id IS NULL", variantID).
			Delete(&models.PriceModel{}).Error; err != nil {
			return err
		}
		if len(prices) == 0 {
			return nil
		}
		rows := make([]models.PriceModel, len(prices))
		for i, p := range prices {
			p.VariantID = variantID
			p.PriceListID = nil
			rows[i] = models.PriceModelFromDomain(p)
		}
		return tx.Create(&rows).Error
	})
}

// FindPrices returns base prices and the prices of live price lists for variants in currency.
// Whether a list applies right now is decided by the caller.
func (r *GormPricingRepository) FindPrices(ctx context.Context, variantIDs []uuid.UUID, currencyCode string) ([]pricing.Price, error) {
	if len(variantIDs) == 0 {
		return []pricing.Price{}, nil
	}
	liveLists := r.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.PriceListModel{}).Select("id")

	var rows []models.PriceModel
	if err := r.db.WithContext(ctx).
		Where("variant_id IN ? AND currency_code = ?", variantIDs, strings.ToUpper(currencyCode)).
		Where("price_list_id IS NULL OR price_list_id IN (?)", liveLists).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return pricesToDomain(rows), nil
}

// FindVariantPrices returns the base prices of a variant
func (r *GormPricingRepository) FindVariantPrices(ctx context.Context, variantID uuid.UUID) ([]pricing.Price, error) {
	var rows []models.PriceModel
	if err := r.db.WithContext(ctx).
		Where("variant_id = ? AND price_list_id IS NULL", variantID).
		Order("currency_code ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return pricesToDomain(rows), nil
}

func pricesToDomain(rows []models.PriceModel) []pricing.Price {
	out := make([]pricing.Price, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// CreatePriceList inserts a price list and its prices
func (r *GormPricingRepository) CreatePriceList(ctx context.Context, pl *pricing.PriceList) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.PriceListModelFromDomain(pl)).Error; err != nil {
			return err
		}
		return replaceListPrices(tx, pl)
	})
}

// UpdatePriceList writes the header and replaces the prices of a list
func (r *GormPricingRepository) UpdatePriceList(ctx context.Context, pl *pricing.PriceList) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(ctx, tx, models.PriceListModelFromDomain(pl), "PriceList", pl.ID); err != nil {
			return err
		}
		return replaceListPrices(tx, pl)
	})
}

func replaceListPrices(tx *gorm.DB, pl *pricing.PriceList) error {
	if err := tx.Where("price_list_id = ?", pl.ID).Delete(&models.PriceModel{}).Error; err != nil {
		return err
	}
	if len(pl.Prices) == 0 {
		return nil
	}
	rows := make([]models.PriceModel, len(pl.Prices))
	for i, p := range pl.Prices {
		listID := pl.ID
		p.PriceListID = &listID
		rows[i] = models.PriceModelFromDomain(p)
	}
	return tx.Create(&rows).Error
}

// DeletePriceList soft deletes a list; its prices stop resolving immediately
func (r *GormPricingRepository) DeletePriceList(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PriceListModel{}, "id = ?", id)
	return checkAffected(result, "PriceList", id)
}

// FindPriceList finds a price list by ID
func (r *GormPricingRepository) FindPriceList(ctx context.Context, id uuid.UUID) (*pricing.PriceList, error) {
	var model models.PriceListModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "PriceList", id)
	}
	lists, err := r.hydrate(ctx, []models.PriceListModel{model})
	if err != nil {
		return nil, err
	}
	return lists[0], nil
}

// FindPriceListsByIDs returns the live lists among ids
func (r *GormPricingRepository) FindPriceListsByIDs(ctx context.Context, ids []uuid.UUID) ([]*pricing.PriceList, error) {
	if len(ids) == 0 {
		return []*pricing.PriceList{}, nil
	}
	var rows []models.PriceListModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

// ListPriceLists returns one page of price lists
func (r *GormPricingRepository) ListPriceLists(ctx context.Context, q shared.ListQuery) ([]*pricing.PriceList, int64, error) {
	rows, total, err := listPage[models.PriceListModel](ctx, r.db, q, priceListListSpec)
	if err != nil {
		return nil, 0, err
	}
	lists, err := r.hydrate(ctx, rows)
	return lists, total, err
}

func (r *GormPricingRepository) hydrate(ctx context.Context, rows []models.PriceListModel) ([]*pricing.PriceList, error) {
	out := make([]*pricing.PriceList, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var prices []models.PriceModel
	if err := r.db.WithContext(ctx).
		Where("price_list_id IN ?", ids).
		Order("created_at ASC").
		Find(&prices).Error; err != nil {
		return nil, err
	}
	byList := make(map[uuid.UUID][]models.PriceModel, len(rows))
	for _, p := range prices {
		byList[*p.PriceListID] = append(byList[*p.PriceListID], p)
	}
	for i := range rows {
		out[i] = rows[i].ToDomain(byList[rows[i].ID])
	}
	return out, nil
}

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var taxRegionListSpec = ListSpec{
	SortFields: map[string]string{
		"country_code":  "country_code",
		"province_code": "province_code",
		"created_at":    "created_at",
	},
	DefaultOrder: "country_code ASC, province_code ASC",
	FilterColumns: map[string]string{
		"id":            "id",
		"country_code":  "country_code",
		"province_code": "province_code",
		"parent_id":     "parent_id",
	},
}

var taxRateListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"code":       "code",
		"rate":       "rate",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at ASC",
	SearchColumns: []string{"name", "code"},
	FilterColumns: map[string]string{
		"id":            "id",
		"tax_region_id": "tax_region_id",
		"is_default":    "is_default",
		"code":          "code",
	},
}

// GormTaxRepository implements tax.Repository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

var _ tax.Repository = (*GormTaxRepository)(nil)

// CreateRegion inserts a region together with any rates it already carries
func (r *GormTaxRepository) CreateRegion(ctx context.Context, region *tax.Region) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TaxRegionModel{}).
			Where("country_code = ? AND province_code = ?", region.CountryCode, region.ProvinceCode).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.NewNotUniqueError("TaxRegion", "country_code", region.CountryCode+region.ProvinceCode)
		}
		if err := tx.Create(models.TaxRegionModelFromDomain(region)).Error; err != nil {
			return err
		}
		for i := range region.Rates {
			rate := &region.Rates[i]
			rate.TaxRegionID = region.ID
			if err := tx.Create(models.TaxRateModelFromDomain(rate)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRegion soft deletes a region, its province children and all their rates
func (r *GormTaxRepository) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.TaxRegionModel{}, "id = ?", id), "TaxRegion", id); err != nil {
			return err
		}
		var children []uuid.UUID
		if err := tx.Model(&models.TaxRegionModel{}).Where("parent_id = ?", id).Pluck("id", &children).Error; err != nil {
			return err
		}
		regionIDs := append(children, id)
		if len(children) > 0 {
			if err := tx.Where("id IN ?", children).Delete(&models.TaxRegionModel{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("tax_region_id IN ?", regionIDs).Delete(&models.TaxRateModel{}).Error
	})
}

// FindRegion finds a region and its rates
func (r *GormTaxRepository) FindRegion(ctx context.Context, id uuid.UUID) (*tax.Region, error) {
	var model models.TaxRegionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "TaxRegion", id)
	}
	regions, err := r.hydrate(ctx, []models.TaxRegionModel{model})
	if err != nil {
		return nil, err
	}
	return regions[0], nil
}

// FindRegionsFor returns the country region first, followed by the matching
// province region under it when one exists. No country region means no result.
func (r *GormTaxRepository) FindRegionsFor(ctx context.Context, countryCode, provinceCode string) ([]*tax.Region, error) {
	countryCode = strings.ToLower(strings.TrimSpace(countryCode))
	provinceCode = strings.ToLower(strings.TrimSpace(provinceCode))

	var country models.TaxRegionModel
	err := r.db.WithContext(ctx).
		Where("country_code = ? AND parent_id IS NULL", countryCode).
		First(&country).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []*tax.Region{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows := []models.TaxRegionModel{country}

	if provinceCode != "" {
		var province models.TaxRegionModel
		err := r.db.WithContext(ctx).
			Where("parent_id = ? AND province_code = ?", country.ID, provinceCode).
			First(&province).Error
		switch {
		case err == nil:
			rows = append(rows, province)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return r.hydrate(ctx, rows)
}

// ListRegions returns one page of regions with their rates
func (r *GormTaxRepository) ListRegions(ctx context.Context, q shared.ListQuery) ([]*tax.Region, int64, error) {
	rows, total, err := listPage[models.TaxRegionModel](ctx, r.db, q, taxRegionListSpec)
	if err != nil {
		return nil, 0, err
	}
	regions, err := r.hydrate(ctx, rows)
	return regions, total, err
}

func (r *GormTaxRepository) hydrate(ctx context.Context, rows []models.TaxRegionModel) ([]*tax.Region, error) {
	out := make([]*tax.Region, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var rates []models.TaxRateModel
	if err := r.db.WithContext(ctx).
		Where("tax_region_id IN ?", ids).
		Order("created_at ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	byRegion := make(map[uuid.UUID][]models.TaxRateModel, len(rows))
	for _, rate := range rates {
		byRegion[rate.TaxRegionID] = append(byRegion[rate.TaxRegionID], rate)
	}
	for i := range rows {
		out[i] = rows[i].ToDomain(byRegion[rows[i].ID])
	}
	return out, nil
}

// CreateRate inserts a rate. A new default rate demotes the previous one.
func (r *GormTaxRepository) CreateRate(ctx context.Context, rate *tax.Rate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureRegion(tx, rate.TaxRegionID); err != nil {
			return err
		}
		if err := demoteDefault(tx, rate); err != nil {
			return err
		}
		return tx.Create(models.TaxRateModelFromDomain(rate)).Error
	})
}

// UpdateRate writes a rate
func (r *GormTaxRepository) UpdateRate(ctx context.Context, rate *tax.Rate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := demoteDefault(tx, rate); err != nil {
			return err
		}
		return updateRow(ctx, tx, models.TaxRateModelFromDomain(rate), "TaxRate", rate.ID)
	})
}

func (r *GormTaxRepository) ensureRegion(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.TaxRegionModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError("TaxRegion", id)
	}
	return nil
}

// demoteDefault keeps at most one default rate per region
func demoteDefault(tx *gorm.DB, rate *tax.Rate) error {
	if !rate.IsDefault {
		return nil
	}
	return tx.Model(&models.TaxRateModel{}).
		Where("tax_region_id = ? AND id <> ? AND is_default = ?", rate.TaxRegionID, rate.ID, true).
		Update("is_default", false).Error
}

// DeleteRate soft deletes a rate
func (r *GormTaxRepository) DeleteRate(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.TaxRateModel{}, "id = ?", id), "TaxRate", id)
}

// FindRate finds a rate by ID
func (r *GormTaxRepository) FindRate(ctx context.Context, id uuid.UUID) (*tax.Rate, error) {
	var model models.TaxRateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "TaxRate", id)
	}
	return model.ToDomain(), nil
}

// ListRates returns one page of rates
func (r *GormTaxRepository) ListRates(ctx context.Context, q shared.ListQuery) ([]*tax.Rate, int64, error) {
	rows, total, err := listPage[models.TaxRateModel](ctx, r.db, q, taxRateListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*tax.Rate, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

package persistence

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var regionListSpec = ListSpec{
	SortFields: map[string]string{
		"name":          "name",
		"currency_code": "currency_code",
		"created_at":    "created_at",
	},
	DefaultOrder:  "name ASC",
	SearchColumns: []string{"name"},
	FilterColumns: map[string]string{
		"currency_code":   "currency_code",
		"automatic_taxes": "automatic_taxes",
	},
	Filters: map[string]FilterFunc{
		"country_code": func(db *gorm.DB, value any) *gorm.DB {
			code := strings.ToLower(strings.TrimSpace(toString(value)))
			return db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.CountryModel{}).Select("region_id").Where("iso_2 = ?", code))
		},
	},
}

var countryListSpec = ListSpec{
	SortFields: map[string]string{
		"iso_2":        "iso_2",
		"name":         "name",
		"display_name": "display_name",
	},
	DefaultOrder:  "display_name ASC",
	SearchColumns: []string{"iso_2", "iso_3", "display_name"},
	FilterColumns: map[string]string{
		"iso_2":     "iso_2",
		"region_id": "region_id",
	},
}

// GormRegionRepository implements region.Repository using GORM
type GormRegionRepository struct {
	db *gorm.DB
}

// NewGormRegionRepository creates a new GormRegionRepository
func NewGormRegionRepository(db *gorm.DB) *GormRegionRepository {
	return &GormRegionRepository{db: db}
}

var _ region.Repository = (*GormRegionRepository)(nil)

// Create inserts the region. Country assignment goes through CountryRepository.SetRegion.
func (r *GormRegionRepository) Create(ctx context.Context, reg *region.Region) error {
	return r.db.WithContext(ctx).Create(models.RegionModelFromDomain(reg)).Error
}

// Update writes the region's own columns
func (r *GormRegionRepository) Update(ctx context.Context, reg *region.Region) error {
	return updateRow(ctx, r.db, models.RegionModelFromDomain(reg), "Region", reg.ID)
}

// Delete soft deletes the region and releases its countries
func (r *GormRegionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.RegionModel{}, "id = ?", id), "Region", id); err != nil {
			return err
		}
		return tx.Model(&models.CountryModel{}).
			Where("region_id = ?", id).
			Update("region_id", nil).Error
	})
}

// FindByID loads a region with its countries
func (r *GormRegionRepository) FindByID(ctx context.Context, id uuid.UUID) (*region.Region, error) {
	var model models.RegionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Region", id)
	}
	countries, err := r.countriesFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return model.ToDomain(countries[id]), nil
}

// List returns one page of regions with their countries
func (r *GormRegionRepository) List(ctx context.Context, q shared.ListQuery) ([]*region.Region, int64, error) {
	rows, total, err := listPage[models.RegionModel](ctx, r.db, q, regionListSpec)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	countries, err := r.countriesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*region.Region, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain(countries[rows[i].ID])
	}
	return out, total, nil
}

func (r *GormRegionRepository) countriesFor(ctx context.Context, regionIDs []uuid.UUID) (map[uuid.UUID][]models.CountryModel, error) {
	out := make(map[uuid.UUID][]models.CountryModel, len(regionIDs))
	if len(regionIDs) == 0 {
		return out, nil
	}
	var rows []models.CountryModel
	if err := r.db.WithContext(ctx).
		Where("region_id IN ?", regionIDs).
		Order("iso_2").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[*row.RegionID] = append(out[*row.RegionID], row)
	}
	return out, nil
}

// GormCountryRepository implements region.CountryRepository using GORM
type GormCountryRepository struct {
	db *gorm.DB
}

// NewGormCountryRepository creates a new GormCountryRepository
func NewGormCountryRepository(db *gorm.DB) *GormCountryRepository {
	return &GormCountryRepository{db: db}
}

var _ region.CountryRepository = (*GormCountryRepository)(nil)

// FindByISO2 returns the countries among codes that exist
func (r *GormCountryRepository) FindByISO2(ctx context.Context, codes []string) ([]region.Country, error) {
	if len(codes) == 0 {
		return []region.Country{}, nil
	}
	normalized := make([]string, len(codes))
	for i, c := range codes {
		normalized[i] = strings.ToLower(strings.TrimSpace(c))
	}
	var rows []models.CountryModel
	if err := r.db.WithContext(ctx).Where("iso_2 IN ?", normalized).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]region.Country, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// List returns one page of countries
func (r *GormCountryRepository) List(ctx context.Context, q shared.ListQuery) ([]region.Country, int64, error) {
	rows, total, err := listPage[models.CountryModel](ctx, r.db, q, countryListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]region.Country, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// SetRegion points codes at regionID, or releases them when regionID is nil
func (r *GormCountryRepository) SetRegion(ctx context.Context, codes []string, regionID *uuid.UUID) error {
	if len(codes) == 0 {
		return nil
	}
	normalized := make([]string, len(codes))
	for i, c := range codes {
		normalized[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return r.db.WithContext(ctx).
		Model(&models.CountryModel{}).
		Where("iso_2 IN ?", normalized).
		Update("region_id", regionID).Error
}

// ReleaseRegion clears every country pointing at regionID
func (r *GormCountryRepository) ReleaseRegion(ctx context.Context, regionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CountryModel{}).
		Where("region_id = ?", regionID).
		Update("region_id", nil).Error
}

// Upsert loads static country rows without touching existing region assignments
func (r *GormCountryRepository) Upsert(ctx context.Context, countries []region.Country) error {
	if len(countries) == 0 {
		return nil
	}
	rows := make([]*models.CountryModel, len(countries))
	for i, c := range countries {
		rows[i] = models.CountryModelFromDomain(c)
		rows[i].RegionID = nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "iso_2"}},
		DoUpdates: clause.AssignmentColumns([]string{"iso_3", "num_code", "name", "display_name"}),
	}).CreateInBatches(rows, 100).Error
}

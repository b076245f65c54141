package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var promotionListSpec = ListSpec{
	SortFields: map[string]string{
		"code":       "code",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"code"},
	FilterColumns: map[string]string{
		"id":           "id",
		"code":         "code",
		"status":       "status",
		"is_automatic": "is_automatic",
		"campaign_id":  "campaign_id",
	},
}

var campaignListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"identifier": "campaign_identifier",
		"starts_at":  "starts_at",
		"ends_at":    "ends_at",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"name", "campaign_identifier", "description"},
	FilterColumns: map[string]string{
		"id":         "id",
		"identifier": "campaign_identifier",
	},
}

// GormPromotionRepository implements promotion.Repository using GORM
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

var _ promotion.Repository = (*GormPromotionRepository)(nil)

// Create creates a promotion
func (r *GormPromotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	err := r.db.WithContext(ctx).Omit("Campaign").Create(models.PromotionModelFromDomain(p)).Error
	return translateWriteError(err, "Promotion", "code", p.Code)
}

// Update writes a promotion
func (r *GormPromotionRepository) Update(ctx context.Context, p *promotion.Promotion) error {
	err := updateRow(ctx, r.db, models.PromotionModelFromDomain(p), "Promotion", p.ID)
	return translateWriteError(err, "Promotion", "code", p.Code)
}

// Delete soft deletes a promotion
func (r *GormPromotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.PromotionModel{}, "id = ?", id), "Promotion", id)
}

// FindByID finds a promotion with its campaign
func (r *GormPromotionRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error) {
	var model models.PromotionModel
	if err := r.db.WithContext(ctx).Preload("Campaign").First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Promotion", id)
	}
	return model.ToDomain(), nil
}

// FindByCodes loads the promotions with the given codes, in any case
func (r *GormPromotionRepository) FindByCodes(ctx context.Context, codes []string) ([]*promotion.Promotion, error) {
	if len(codes) == 0 {
		return []*promotion.Promotion{}, nil
	}
	upper := make([]string, len(codes))
	for i, c := range codes {
		upper[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	var rows []models.PromotionModel
	if err := r.db.WithContext(ctx).
		Preload("Campaign").
		Where("code IN ?", upper).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return promotionsToDomain(rows), nil
}

// FindAutomatic returns the active automatic promotions
func (r *GormPromotionRepository) FindAutomatic(ctx context.Context) ([]*promotion.Promotion, error) {
	var rows []models.PromotionModel
	if err := r.db.WithContext(ctx).
		Preload("Campaign").
		Where("is_automatic = ? AND status = ?", true, promotion.StatusActive).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return promotionsToDomain(rows), nil
}

// ExistsByCode reports whether a live promotion other than excludeID uses code
func (r *GormPromotionRepository) ExistsByCode(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.PromotionModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// List returns one page of promotions
func (r *GormPromotionRepository) List(ctx context.Context, q shared.ListQuery) ([]*promotion.Promotion, int64, error) {
	rows, total, err := listPage[models.PromotionModel](ctx, r.db, q, promotionListSpec)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachCampaigns(ctx, rows); err != nil {
		return nil, 0, err
	}
	return promotionsToDomain(rows), total, nil
}

// attachCampaigns loads the campaigns of a page in one query
func (r *GormPromotionRepository) attachCampaigns(ctx context.Context, rows []models.PromotionModel) error {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.CampaignID != nil {
			ids = append(ids, *row.CampaignID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var campaigns []models.CampaignModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&campaigns).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.CampaignModel, len(campaigns))
	for i := range campaigns {
		byID[campaigns[i].ID] = &campaigns[i]
	}
	for i := range rows {
		if rows[i].CampaignID != nil {
			rows[i].Campaign = byID[*rows[i].CampaignID]
		}
	}
	return nil
}

func promotionsToDomain(rows []models.PromotionModel) []*promotion.Promotion {
	out := make([]*promotion.Promotion, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// GormCampaignRepository implements promotion.CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

var _ promotion.CampaignRepository = (*GormCampaignRepository)(nil)

// Create creates a campaign
func (r *GormCampaignRepository) Create(ctx context.Context, c *promotion.Campaign) error {
	err := r.db.WithContext(ctx).Create(models.CampaignModelFromDomain(c)).Error
	return translateWriteError(err, "Campaign", "identifier", c.Identifier)
}

// Update writes a campaign. budget_used is left alone; it only moves through AdjustBudgetUsage.
func (r *GormCampaignRepository) Update(ctx context.Context, c *promotion.Campaign) error {
	model := models.CampaignModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("created_at", "budget_used").
		Updates(model)
	return translateWriteError(checkAffected(result, "Campaign", c.ID), "Campaign", "identifier", c.Identifier)
}

// Delete soft deletes a campaign and detaches its promotions
func (r *GormCampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.CampaignModel{}, "id = ?", id), "Campaign", id); err != nil {
			return err
		}
		return tx.Model(&models.PromotionModel{}).
			Where("campaign_id = ?", id).
			Update("campaign_id", nil).Error
	})
}

// FindByID finds a campaign by ID
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Campaign, error) {
	var model models.CampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Campaign", id)
	}
	return model.ToDomain(), nil
}

// ExistsByIdentifier reports whether a live campaign other than excludeID uses identifier
func (r *GormCampaignRepository) ExistsByIdentifier(ctx context.Context, identifier string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.CampaignModel{}).
		Where("campaign_identifier = ?", strings.TrimSpace(identifier))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// List returns one page of campaigns
func (r *GormCampaignRepository) List(ctx context.Context, q shared.ListQuery) ([]*promotion.Campaign, int64, error) {
	rows, total, err := listPage[models.CampaignModel](ctx, r.db, q, campaignListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*promotion.Campaign, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// AdjustBudgetUsage adds delta to budget_used in a single guarded statement.
// A positive delta that would pass budget_limit changes nothing and returns
// ErrBudgetExceeded; a negative delta never takes usage below zero.
func (r *GormCampaignRepository) AdjustBudgetUsage(ctx context.Context, campaignID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	query := r.db.WithContext(ctx).Model(&models.CampaignModel{}).Where("id = ?", campaignID)
	var result *gorm.DB
	if delta.IsPositive() {
		result = query.
			Where("budget_limit IS NULL OR budget_used + ? <= budget_limit", delta).
			Updates(map[string]any{
				"budget_used": gorm.Expr("budget_used + ?", delta),
				"updated_at":  time.Now(),
			})
	} else {
		result = query.Updates(map[string]any{
			"budget_used": gorm.Expr("CASE WHEN budget_used + ? < 0 THEN 0 ELSE budget_used + ? END", delta, delta),
			"updated_at":  time.Now(),
		})
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.FindByID(ctx, campaignID); err != nil {
		return err
	}
	return promotion.ErrBudgetExceeded
}

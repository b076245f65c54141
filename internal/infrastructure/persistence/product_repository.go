package persistence

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var productListSpec = ListSpec{
	SortFields: map[string]string{
		"title":      "title",
		"handle":     "handle",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"title", "handle", "subtitle"},
	FilterColumns: map[string]string{
		"id":          "id",
		"status":      "status",
		"handle":      "handle",
		"type_id":     "type_id",
		"is_giftcard": "is_giftcard",
		"created_at":  "created_at",
	},
	Filters: map[string]FilterFunc{
		"sales_channel_id": func(db *gorm.DB, value any) *gorm.DB {
			sub := db.Session(&gorm.Session{NewDB: true}).
				Model(&models.ProductSalesChannelModel{}).Select("product_id")
			if isList(value) {
				sub = sub.Where("sales_channel_id IN ?", toSlice(value))
			} else {
				sub = sub.Where("sales_channel_id = ?", value)
			}
			return db.Where("id IN (?)", sub)
		},
		"sku": func(db *gorm.DB, value any) *gorm.DB {
			return db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.ProductVariantModel{}).Select("product_id").
				Where("LOWER(sku) = ?", strings.ToLower(toString(value))))
		},
	},
}

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// Create inserts the product with its options, variants and channel links
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ProductModelFromDomain(p)).Error; err != nil {
			return translateWriteError(err, "Product", "handle", p.Handle)
		}
		return r.syncChildren(tx, p)
	})
}

// Save updates the product row and synchronizes its children
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(ctx, tx, models.ProductModelFromDomain(p), "Product", p.ID); err != nil {
			return translateWriteError(err, "Product", "handle", p.Handle)
		}
		return r.syncChildren(tx, p)
	})
}

func (r *GormProductRepository) syncChildren(tx *gorm.DB, p *catalog.Product) error {
	if err := tx.Where("product_id = ?", p.ID).Delete(&models.ProductOptionModel{}).Error; err != nil {
		return err
	}
	if len(p.Options) > 0 {
		options := make([]models.ProductOptionModel, len(p.Options))
		for i, o := range p.Options {
			options[i] = models.ProductOptionModel{ID: o.ID, ProductID: p.ID, Title: o.Title, Values: o.Values, Rank: i}
		}
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
	}

	for i := range p.Variants {
		model := models.ProductVariantModelFromDomain(&p.Variants[i])
		if err := tx.Unscoped().Save(model).Error; err != nil {
			return translateWriteError(err, "ProductVariant", "sku", p.Variants[i].SKU)
		}
	}

	if err := tx.Where("product_id = ?", p.ID).Delete(&models.ProductSalesChannelModel{}).Error; err != nil {
		return err
	}
	if len(p.SalesChannelIDs) == 0 {
		return nil
	}
	links := make([]models.ProductSalesChannelModel, len(p.SalesChannelIDs))
	for i, id := range p.SalesChannelIDs {
		links[i] = models.ProductSalesChannelModel{ProductID: p.ID, SalesChannelID: id}
	}
	return tx.Create(&links).Error
}

// Delete soft deletes the product and its variants
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.ProductModel{}, "id = ?", id), "Product", id); err != nil {
			return err
		}
		return tx.Where("product_id = ?", id).Delete(&models.ProductVariantModel{}).Error
	})
}

// FindByID loads a product with its live variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Product", id)
	}
	products, err := r.hydrate(ctx, []models.ProductModel{model})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

// FindByHandle loads a product by its handle
func (r *GormProductRepository) FindByHandle(ctx context.Context, handle string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "handle = ?", strings.ToLower(handle)).Error; err != nil {
		return nil, translateError(err, "Product", handle)
	}
	products, err := r.hydrate(ctx, []models.ProductModel{model})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

// ExistsByHandle reports whether a live product other than excludeID uses handle
func (r *GormProductRepository) ExistsByHandle(ctx context.Context, handle string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("handle = ?", strings.ToLower(handle))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// List returns one page of products with their children
func (r *GormProductRepository) List(ctx context.Context, q shared.ListQuery) ([]*catalog.Product, int64, error) {
	rows, total, err := listPage[models.ProductModel](ctx, r.db, q, productListSpec)
	if err != nil {
		return nil, 0, err
	}
	products, err := r.hydrate(ctx, rows)
	return products, total, err
}

func (r *GormProductRepository) hydrate(ctx context.Context, rows []models.ProductModel) ([]*catalog.Product, error) {
	out := make([]*catalog.Product, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	db := r.db.WithContext(ctx)

	var options []models.ProductOptionModel
	if err := db.Where("product_id IN ?", ids).Order("product_id, rank").Find(&options).Error; err != nil {
		return nil, err
	}
	var variants []models.ProductVariantModel
	if err := db.Where("product_id IN ?", ids).Order("variant_rank, created_at").Find(&variants).Error; err != nil {
		return nil, err
	}
	var links []models.ProductSalesChannelModel
	if err := db.Where("product_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, err
	}

	optionsBy := make(map[uuid.UUID][]models.ProductOptionModel)
	for _, o := range options {
		optionsBy[o.ProductID] = append(optionsBy[o.ProductID], o)
	}
	variantsBy := make(map[uuid.UUID][]models.ProductVariantModel)
	for _, v := range variants {
		variantsBy[v.ProductID] = append(variantsBy[v.ProductID], v)
	}
	channelsBy := make(map[uuid.UUID][]uuid.UUID)
	for _, l := range links {
		channelsBy[l.ProductID] = append(channelsBy[l.ProductID], l.SalesChannelID)
	}
	for i := range rows {
		id := rows[i].ID
		out[i] = rows[i].ToDomain(optionsBy[id], variantsBy[id], channelsBy[id])
	}
	return out, nil
}

// GormVariantRepository implements catalog.VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

var _ catalog.VariantRepository = (*GormVariantRepository)(nil)

// FindByID finds a live variant by ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "ProductVariant", id)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the live variants among ids
func (r *GormVariantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.ProductVariant, error) {
	if len(ids) == 0 {
		return []*catalog.ProductVariant{}, nil
	}
	var rows []models.ProductVariantModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*catalog.ProductVariant, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ExistsBySKU reports whether a live variant other than excludeID uses sku
func (r *GormVariantRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	if strings.TrimSpace(sku) == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&models.ProductVariantModel{}).
		Where("LOWER(sku) = ?", strings.ToLower(strings.TrimSpace(sku)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// SetInventoryItem links a variant to its inventory item
func (r *GormVariantRepository) SetInventoryItem(ctx context.Context, variantID, inventoryItemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).
		Update("inventory_item_id", inventoryItemID)
	return checkAffected(result, "ProductVariant", variantID)
}

package catalog

import (
	"context"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository persists products together with their options and variants
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	// Save updates the product and synchronizes options, variants and sales channels
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByHandle(ctx context.Context, handle string) (*Product, error)
	ExistsByHandle(ctx context.Context, handle string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Product, int64, error)
}

// VariantRepository reads variants across products
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ProductVariant, error)
	ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error)
	SetInventoryItem(ctx context.Context, variantID, inventoryItemID uuid.UUID) error
}

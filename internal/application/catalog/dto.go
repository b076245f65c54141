package catalog

import (
	"time"

	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Title           string           `json:"title" binding:"required,min=1,max=255" example:"Classic Tee"`
	Subtitle        string           `json:"subtitle" binding:"max=255"`
	Handle          string           `json:"handle" binding:"max=255" example:"classic-tee"`
	Description     string           `json:"description"`
	Status          string           `json:"status" binding:"omitempty,oneof=draft proposed published rejected" example:"published"`
	Thumbnail       string           `json:"thumbnail" binding:"max=1000"`
	Images          []string         `json:"images"`
	IsGiftcard      bool             `json:"is_giftcard"`
	Discountable    *bool            `json:"discountable"`
	Options         []OptionRequest  `json:"options" binding:"dive"`
	Variants        []VariantRequest `json:"variants" binding:"dive"`
	SalesChannelIDs []uuid.UUID      `json:"sales_channel_ids"`
	Metadata        map[string]any   `json:"metadata"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Title           *string        `json:"title" binding:"omitempty,min=1,max=255"`
	Subtitle        *string        `json:"subtitle" binding:"omitempty,max=255"`
	Handle          *string        `json:"handle" binding:"omitempty,max=255"`
	Description     *string        `json:"description"`
	Status          *string        `json:"status" binding:"omitempty,oneof=draft proposed published rejected"`
	Thumbnail       *string        `json:"thumbnail" binding:"omitempty,max=1000"`
	Images          []string       `json:"images"`
	Discountable    *bool          `json:"discountable"`
	SalesChannelIDs []uuid.UUID    `json:"sales_channel_ids"`
	Metadata        map[string]any `json:"metadata"`
}

// OptionRequest represents a product option
type OptionRequest struct {
	Title  string   `json:"title" binding:"required,max=100" example:"Size"`
	Values []string `json:"values" binding:"required,min=1" example:"S,M,L"`
}

// VariantRequest represents a variant to create or update
type VariantRequest struct {
	Title           string            `json:"title" binding:"required,max=255" example:"Small"`
	SKU             string            `json:"sku" binding:"max=100" example:"TEE-S"`
	Barcode         string            `json:"barcode" binding:"max=100"`
	ManageInventory *bool             `json:"manage_inventory"`
	AllowBackorder  bool              `json:"allow_backorder"`
	Weight          int               `json:"weight" binding:"gte=0"`
	Options         map[string]string `json:"options"`
}

// LinkInventoryItemRequest links a variant to an existing inventory item
type LinkInventoryItemRequest struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id" binding:"required"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID              uuid.UUID         `json:"id"`
	Title           string            `json:"title"`
	Subtitle        string            `json:"subtitle,omitempty"`
	Handle          string            `json:"handle"`
	Description     string            `json:"description,omitempty"`
	Status          string            `json:"status"`
	Thumbnail       string            `json:"thumbnail,omitempty"`
	Images          []string          `json:"images"`
	IsGiftcard      bool              `json:"is_giftcard"`
	Discountable    bool              `json:"discountable"`
	Options         []OptionResponse  `json:"options"`
	Variants        []VariantResponse `json:"variants"`
	SalesChannelIDs []uuid.UUID       `json:"sales_channel_ids"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OptionResponse represents a product option
type OptionResponse struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Values []string  `json:"values"`
}

// VariantResponse represents a product variant
type VariantResponse struct {
	ID              uuid.UUID         `json:"id"`
	ProductID       uuid.UUID         `json:"product_id"`
	Title           string            `json:"title"`
	SKU             string            `json:"sku,omitempty"`
	Barcode         string            `json:"barcode,omitempty"`
	ManageInventory bool              `json:"manage_inventory"`
	AllowBackorder  bool              `json:"allow_backorder"`
	Weight          int               `json:"weight"`
	Options         map[string]string `json:"options"`
	InventoryItemID *uuid.UUID        `json:"inventory_item_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ToProductResponse converts a domain product
func ToProductResponse(p *catalog.Product) ProductResponse {
	options := make([]OptionResponse, len(p.Options))
	for i, o := range p.Options {
		options[i] = OptionResponse{ID: o.ID, Title: o.Title, Values: o.Values}
	}
	active := p.ActiveVariants()
	variants := make([]VariantResponse, len(active))
	for i := range active {
		variants[i] = ToVariantResponse(&active[i])
	}
	return ProductResponse{
		ID:              p.ID,
		Title:           p.Title,
		Subtitle:        p.Subtitle,
		Handle:          p.Handle,
		Description:     p.Description,
		Status:          string(p.Status),
		Thumbnail:       p.Thumbnail,
		Images:          p.Images,
		IsGiftcard:      p.IsGiftcard,
		Discountable:    p.Discountable,
		Options:         options,
		Variants:        variants,
		SalesChannelIDs: p.SalesChannelIDs,
		Metadata:        p.Metadata,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToVariantResponse converts a domain variant
func ToVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:              v.ID,
		ProductID:       v.ProductID,
		Title:           v.Title,
		SKU:             v.SKU,
		Barcode:         v.Barcode,
		ManageInventory: v.ManageInventory,
		AllowBackorder:  v.AllowBackorder,
		Weight:          v.Weight,
		Options:         v.Options,
		InventoryItemID: v.InventoryItemID,
		CreatedAt:       v.CreatedAt,
	}
}

func (r VariantRequest) toInput() catalog.VariantInput {
	manage := true
	if r.ManageInventory != nil {
		manage = *r.ManageInventory
	}
	return catalog.VariantInput{
		Title:           r.Title,
		SKU:             r.SKU,
		Barcode:         r.Barcode,
		ManageInventory: manage,
		AllowBackorder:  r.AllowBackorder,
		Weight:          r.Weight,
		Options:         r.Options,
	}
}

package models

import (
	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// ProductModel is the persistence model for products.
type ProductModel struct {
	AggregateModel
	Title        string                `gorm:"type:varchar(255);not null"`
	Subtitle     string                `gorm:"type:varchar(255)"`
	Handle       string                `gorm:"type:varchar(255);not null;index"`
	Description  string                `gorm:"type:text"`
	Status       catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Thumbnail    string                `gorm:"type:varchar(500)"`
	Images       []string              `gorm:"type:jsonb;serializer:json"`
	IsGiftcard   bool                  `gorm:"not null;default:false"`
	Discountable bool                  `gorm:"not null;default:true"`
	TypeID       *uuid.UUID            `gorm:"type:uuid"`
	Metadata     JSONMap               `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model and its loaded children to a domain Product.
func (m *ProductModel) ToDomain(options []ProductOptionModel, variants []ProductVariantModel, channelIDs []uuid.UUID) *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Title:             m.Title,
		Subtitle:          m.Subtitle,
		Handle:            m.Handle,
		Description:       m.Description,
		Status:            m.Status,
		Thumbnail:         m.Thumbnail,
		Images:            m.Images,
		IsGiftcard:        m.IsGiftcard,
		Discountable:      m.Discountable,
		TypeID:            m.TypeID,
		Metadata:          m.Metadata,
		Options:           make([]catalog.ProductOption, len(options)),
		Variants:          make([]catalog.ProductVariant, len(variants)),
		SalesChannelIDs:   channelIDs,
	}
	if p.Images == nil {
		p.Images = make([]string, 0)
	}
	if p.SalesChannelIDs == nil {
		p.SalesChannelIDs = make([]uuid.UUID, 0)
	}
	for i := range options {
		p.Options[i] = options[i].ToDomain()
	}
	for i := range variants {
		p.Variants[i] = *variants[i].ToDomain()
	}
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Title:        p.Title,
		Subtitle:     p.Subtitle,
		Handle:       p.Handle,
		Description:  p.Description,
		Status:       p.Status,
		Thumbnail:    p.Thumbnail,
		Images:       p.Images,
		IsGiftcard:   p.IsGiftcard,
		Discountable: p.Discountable,
		TypeID:       p.TypeID,
		Metadata:     p.Metadata,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// ProductOptionModel is an option of a product with its allowed values.
type ProductOptionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(100);not null"`
	Values    []string  `gorm:"type:jsonb;serializer:json"`
	Rank      int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductOptionModel) TableName() string {
	return "product_options"
}

// ToDomain converts the persistence model to a domain ProductOption.
func (m *ProductOptionModel) ToDomain() catalog.ProductOption {
	return catalog.ProductOption{ID: m.ID, Title: m.Title, Values: m.Values}
}

// ProductVariantModel is the persistence model for product variants.
type ProductVariantModel struct {
	BaseModel
	ProductID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Title           string            `gorm:"type:varchar(255);not null"`
	SKU             *string           `gorm:"column:sku;type:varchar(100)"`
	Barcode         string            `gorm:"type:varchar(100)"`
	ManageInventory bool              `gorm:"not null;default:true"`
	AllowBackorder  bool              `gorm:"not null;default:false"`
	Weight          int               `gorm:"not null;default:0"`
	Options         map[string]string `gorm:"type:jsonb;serializer:json"`
	InventoryItemID *uuid.UUID        `gorm:"type:uuid;index"`
	Rank            int               `gorm:"column:variant_rank;not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	v := &catalog.ProductVariant{
		BaseEntity:      m.BaseModel.ToDomain(),
		ProductID:       m.ProductID,
		Title:           m.Title,
		Barcode:         m.Barcode,
		ManageInventory: m.ManageInventory,
		AllowBackorder:  m.AllowBackorder,
		Weight:          m.Weight,
		Options:         m.Options,
		InventoryItemID: m.InventoryItemID,
		Rank:            m.Rank,
	}
	if m.SKU != nil {
		v.SKU = *m.SKU
	}
	if v.Options == nil {
		v.Options = make(map[string]string)
	}
	return v
}

// ProductVariantModelFromDomain creates a persistence model from a domain ProductVariant.
// An empty SKU is stored as NULL so the unique index ignores it.
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	m := &ProductVariantModel{
		ProductID:       v.ProductID,
		Title:           v.Title,
		Barcode:         v.Barcode,
		ManageInventory: v.ManageInventory,
		AllowBackorder:  v.AllowBackorder,
		Weight:          v.Weight,
		Options:         v.Options,
		InventoryItemID: v.InventoryItemID,
		Rank:            v.Rank,
	}
	if v.SKU != "" {
		sku := v.SKU
		m.SKU = &sku
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}

// ProductSalesChannelModel links products to sales channels.
type ProductSalesChannelModel struct {
	ProductID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	SalesChannelID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (ProductSalesChannelModel) TableName() string {
	return "product_sales_channels"
}

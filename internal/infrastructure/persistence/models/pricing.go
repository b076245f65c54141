package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceModel is a variant price, either a base price or part of a price list.
type PriceModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VariantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	PriceListID  *uuid.UUID      `gorm:"type:uuid;index"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	CurrencyCode string          `gorm:"type:varchar(3);not null"`
	RegionID     *uuid.UUID      `gorm:"type:uuid"`
	MinQuantity  *int
	MaxQuantity  *int
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceModel) TableName() string {
	return "prices"
}

// ToDomain converts the persistence model to a domain Price.
func (m *PriceModel) ToDomain() pricing.Price {
	return pricing.Price{
		ID:           m.ID,
		VariantID:    m.VariantID,
		PriceListID:  m.PriceListID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		RegionID:     m.RegionID,
		MinQuantity:  m.MinQuantity,
		MaxQuantity:  m.MaxQuantity,
	}
}

// PriceModelFromDomain creates a persistence model from a domain Price.
func PriceModelFromDomain(p pricing.Price) PriceModel {
	return PriceModel{
		ID:           p.ID,
		VariantID:    p.VariantID,
		PriceListID:  p.PriceListID,
		Amount:       p.Amount,
		CurrencyCode: p.CurrencyCode,
		RegionID:     p.RegionID,
		MinQuantity:  p.MinQuantity,
		MaxQuantity:  p.MaxQuantity,
		CreatedAt:    time.Now(),
	}
}

// PriceListModel is the persistence model for price lists.
type PriceListModel struct {
	BaseModel
	Title            string                  `gorm:"type:varchar(255);not null"`
	Description      string                  `gorm:"type:text"`
	Type             pricing.PriceListType   `gorm:"type:varchar(20);not null"`
	Status           pricing.PriceListStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	StartsAt         *time.Time
	EndsAt           *time.Time
	CustomerGroupIDs []uuid.UUID `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (PriceListModel) TableName() string {
	return "price_lists"
}

// ToDomain converts the model; prices are attached by the repository.
func (m *PriceListModel) ToDomain(prices []PriceModel) *pricing.PriceList {
	pl := &pricing.PriceList{
		BaseEntity:       m.BaseModel.ToDomain(),
		Title:            m.Title,
		Description:      m.Description,
		Type:             m.Type,
		Status:           m.Status,
		StartsAt:         m.StartsAt,
		EndsAt:           m.EndsAt,
		CustomerGroupIDs: m.CustomerGroupIDs,
		Prices:           make([]pricing.Price, len(prices)),
	}
	for i := range prices {
		pl.Prices[i] = prices[i].ToDomain()
	}
	return pl
}

// PriceListModelFromDomain creates a persistence model from a domain PriceList.
func PriceListModelFromDomain(pl *pricing.PriceList) *PriceListModel {
	m := &PriceListModel{
		Title:            pl.Title,
		Description:      pl.Description,
		Type:             pl.Type,
		Status:           pl.Status,
		StartsAt:         pl.StartsAt,
		EndsAt:           pl.EndsAt,
		CustomerGroupIDs: pl.CustomerGroupIDs,
	}
	m.FromDomainBaseEntity(pl.BaseEntity)
	return m
}

package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/store"
	"github.com/google/uuid"
)

// CurrencyModel is the persistence model for currencies; the code is the key.
type CurrencyModel struct {
	Code          string    `gorm:"type:varchar(3);primaryKey"`
	Symbol        string    `gorm:"type:varchar(10);not null"`
	SymbolNative  string    `gorm:"type:varchar(10);not null"`
	Name          string    `gorm:"type:varchar(100);not null"`
	DecimalDigits int32     `gorm:"not null;default:2"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CurrencyModel) TableName() string {
	return "currencies"
}

// ToDomain converts the persistence model to a domain Currency.
func (m *CurrencyModel) ToDomain() *currency.Currency {
	return &currency.Currency{
		Code:          m.Code,
		Symbol:        m.Symbol,
		SymbolNative:  m.SymbolNative,
		Name:          m.Name,
		DecimalDigits: m.DecimalDigits,
	}
}

// CurrencyModelFromDomain creates a persistence model from a domain Currency.
func CurrencyModelFromDomain(c *currency.Currency) *CurrencyModel {
	return &CurrencyModel{
		Code:          c.Code,
		Symbol:        c.Symbol,
		SymbolNative:  c.SymbolNative,
		Name:          c.Name,
		DecimalDigits: c.DecimalDigits,
	}
}

// RegionModel is the persistence model for regions.
type RegionModel struct {
	AggregateModel
	Name           string  `gorm:"type:varchar(200);not null"`
	CurrencyCode   string  `gorm:"type:varchar(3);not null;index"`
	AutomaticTaxes bool    `gorm:"not null;default:true"`
	Metadata       JSONMap `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (RegionModel) TableName() string {
	return "regions"
}

// ToDomain converts the model; countries are attached by the repository.
func (m *RegionModel) ToDomain(countries []CountryModel) *region.Region {
	r := &region.Region{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		CurrencyCode:      m.CurrencyCode,
		AutomaticTaxes:    m.AutomaticTaxes,
		Metadata:          m.Metadata,
		Countries:         make([]region.Country, len(countries)),
	}
	for i := range countries {
		r.Countries[i] = countries[i].ToDomain()
	}
	return r
}

// RegionModelFromDomain creates a persistence model from a domain Region.
func RegionModelFromDomain(r *region.Region) *RegionModel {
	m := &RegionModel{
		Name:           r.Name,
		CurrencyCode:   r.CurrencyCode,
		AutomaticTaxes: r.AutomaticTaxes,
		Metadata:       r.Metadata,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// CountryModel is a row of the static ISO 3166 country table.
type CountryModel struct {
	ISO2        string     `gorm:"column:iso_2;type:varchar(2);primaryKey"`
	ISO3        string     `gorm:"column:iso_3;type:varchar(3);not null"`
	NumCode     int        `gorm:"not null"`
	Name        string     `gorm:"type:varchar(100);not null"`
	DisplayName string     `gorm:"type:varchar(100);not null"`
	RegionID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CountryModel) TableName() string {
	return "countries"
}

// ToDomain converts the persistence model to a domain Country.
func (m *CountryModel) ToDomain() region.Country {
	return region.Country{
		ISO2:        m.ISO2,
		ISO3:        m.ISO3,
		NumCode:     m.NumCode,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		RegionID:    m.RegionID,
	}
}

// CountryModelFromDomain creates a persistence model from a domain Country.
func CountryModelFromDomain(c region.Country) *CountryModel {
	return &CountryModel{
		ISO2:        c.ISO2,
		ISO3:        c.ISO3,
		NumCode:     c.NumCode,
		Name:        c.Name,
		DisplayName: c.DisplayName,
		RegionID:    c.RegionID,
	}
}

// StoreModel is the persistence model for the single store row.
type StoreModel struct {
	BaseModel
	Name                  string     `gorm:"type:varchar(200);not null"`
	DefaultCurrencyCode   string     `gorm:"type:varchar(3);not null"`
	SupportedCurrencies   []string   `gorm:"type:jsonb;serializer:json"`
	DefaultRegionID       *uuid.UUID `gorm:"type:uuid"`
	DefaultSalesChannelID *uuid.UUID `gorm:"type:uuid"`
	DefaultLocationID     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store.
func (m *StoreModel) ToDomain() *store.Store {
	return &store.Store{
		BaseEntity:            m.BaseModel.ToDomain(),
		Name:                  m.Name,
		DefaultCurrencyCode:   m.DefaultCurrencyCode,
		SupportedCurrencies:   m.SupportedCurrencies,
		DefaultRegionID:       m.DefaultRegionID,
		DefaultSalesChannelID: m.DefaultSalesChannelID,
		DefaultLocationID:     m.DefaultLocationID,
	}
}

// StoreModelFromDomain creates a persistence model from a domain Store.
func StoreModelFromDomain(s *store.Store) *StoreModel {
	m := &StoreModel{
		Name:                  s.Name,
		DefaultCurrencyCode:   s.DefaultCurrencyCode,
		SupportedCurrencies:   s.SupportedCurrencies,
		DefaultRegionID:       s.DefaultRegionID,
		DefaultSalesChannelID: s.DefaultSalesChannelID,
		DefaultLocationID:     s.DefaultLocationID,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// SalesChannelModel is the persistence model for sales channels.
type SalesChannelModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	IsDisabled  bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SalesChannelModel) TableName() string {
	return "sales_channels"
}

// ToDomain converts the persistence model to a domain SalesChannel.
func (m *SalesChannelModel) ToDomain() *store.SalesChannel {
	return &store.SalesChannel{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Description: m.Description,
		IsDisabled:  m.IsDisabled,
	}
}

// SalesChannelModelFromDomain creates a persistence model from a domain SalesChannel.
func SalesChannelModelFromDomain(sc *store.SalesChannel) *SalesChannelModel {
	m := &SalesChannelModel{Name: sc.Name, Description: sc.Description, IsDisabled: sc.IsDisabled}
	m.FromDomainBaseEntity(sc.BaseEntity)
	return m
}

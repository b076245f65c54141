package models

import (
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRegionModel is the persistence model for tax regions.
type TaxRegionModel struct {
	BaseModel
	CountryCode  string     `gorm:"type:varchar(2);not null;index"`
	ProvinceCode string     `gorm:"type:varchar(10)"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID   string     `gorm:"type:varchar(50);not null;default:'system'"`
}

// TableName returns the table name for GORM
func (TaxRegionModel) TableName() string {
	return "tax_regions"
}

// ToDomain converts the model; rates are attached by the repository.
func (m *TaxRegionModel) ToDomain(rates []TaxRateModel) *tax.Region {
	r := &tax.Region{
		BaseEntity:   m.BaseModel.ToDomain(),
		CountryCode:  m.CountryCode,
		ProvinceCode: m.ProvinceCode,
		ParentID:     m.ParentID,
		ProviderID:   m.ProviderID,
		Rates:        make([]tax.Rate, len(rates)),
	}
	for i := range rates {
		r.Rates[i] = *rates[i].ToDomain()
	}
	return r
}

// TaxRegionModelFromDomain creates a persistence model from a domain Region.
func TaxRegionModelFromDomain(r *tax.Region) *TaxRegionModel {
	m := &TaxRegionModel{
		CountryCode:  r.CountryCode,
		ProvinceCode: r.ProvinceCode,
		ParentID:     r.ParentID,
		ProviderID:   r.ProviderID,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// TaxRateRule is the JSON form of a tax rate rule
type TaxRateRule struct {
	Reference   tax.RuleReference `json:"reference"`
	ReferenceID uuid.UUID         `json:"reference_id"`
}

// TaxRateModel is the persistence model for tax rates.
type TaxRateModel struct {
	BaseModel
	TaxRegionID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Code         string          `gorm:"type:varchar(50);not null"`
	Rate         decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	IsDefault    bool            `gorm:"not null;default:false"`
	IsCombinable bool            `gorm:"not null;default:false"`
	Rules        []TaxRateRule   `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (TaxRateModel) TableName() string {
	return "tax_rates"
}

// ToDomain converts the persistence model to a domain Rate.
func (m *TaxRateModel) ToDomain() *tax.Rate {
	r := &tax.Rate{
		BaseEntity:   m.BaseModel.ToDomain(),
		TaxRegionID:  m.TaxRegionID,
		Name:         m.Name,
		Code:         m.Code,
		Rate:         m.Rate,
		IsDefault:    m.IsDefault,
		IsCombinable: m.IsCombinable,
		Rules:        make([]tax.Rule, len(m.Rules)),
	}
	for i, rule := range m.Rules {
		r.Rules[i] = tax.Rule{Reference: rule.Reference, ReferenceID: rule.ReferenceID}
	}
	return r
}

// TaxRateModelFromDomain creates a persistence model from a domain Rate.
func TaxRateModelFromDomain(r *tax.Rate) *TaxRateModel {
	m := &TaxRateModel{
		TaxRegionID:  r.TaxRegionID,
		Name:         r.Name,
		Code:         r.Code,
		Rate:         r.Rate,
		IsDefault:    r.IsDefault,
		IsCombinable: r.IsCombinable,
		Rules:        make([]TaxRateRule, len(r.Rules)),
	}
	for i, rule := range r.Rules {
		m.Rules[i] = TaxRateRule{Reference: rule.Reference, ReferenceID: rule.ReferenceID}
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

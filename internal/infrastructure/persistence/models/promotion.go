package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionRule is the JSON form of a promotion rule
type PromotionRule struct {
	Attribute string             `json:"attribute"`
	Operator  promotion.Operator `json:"operator"`
	Values    []string           `json:"values"`
}

func rulesToJSON(rules []promotion.Rule) []PromotionRule {
	out := make([]PromotionRule, len(rules))
	for i, r := range rules {
		out[i] = PromotionRule{Attribute: r.Attribute, Operator: r.Operator, Values: r.Values}
	}
	return out
}

func rulesFromJSON(rules []PromotionRule) []promotion.Rule {
	out := make([]promotion.Rule, len(rules))
	for i, r := range rules {
		out[i] = promotion.Rule{Attribute: r.Attribute, Operator: r.Operator, Values: r.Values}
	}
	return out
}

// PromotionModel is the persistence model for promotions. The application
// method is flattened into columns.
type PromotionModel struct {
	AggregateModel
	Code           string               `gorm:"type:varchar(100);not null;index"`
	IsAutomatic    bool                 `gorm:"not null;default:false"`
	Status         promotion.Status     `gorm:"type:varchar(20);not null;default:'draft'"`
	CampaignID     *uuid.UUID           `gorm:"type:uuid;index"`
	MethodType     promotion.MethodType `gorm:"type:varchar(20);not null"`
	TargetType     promotion.TargetType `gorm:"type:varchar(30);not null"`
	Allocation     promotion.Allocation `gorm:"type:varchar(20)"`
	Value          decimal.Decimal      `gorm:"type:numeric(20,4);not null"`
	MaxQuantity    *int
	MethodCurrency string          `gorm:"type:varchar(3)"`
	TargetRules    []PromotionRule `gorm:"type:jsonb;serializer:json"`
	Rules          []PromotionRule `gorm:"type:jsonb;serializer:json"`
	Campaign       *CampaignModel  `gorm:"foreignKey:CampaignID"`
}

// TableName returns the table name for GORM
func (PromotionModel) TableName() string {
	return "promotions"
}

// ToDomain converts the persistence model to a domain Promotion.
func (m *PromotionModel) ToDomain() *promotion.Promotion {
	p := &promotion.Promotion{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		IsAutomatic:       m.IsAutomatic,
		Status:            m.Status,
		CampaignID:        m.CampaignID,
		Method: promotion.ApplicationMethod{
			Type:         m.MethodType,
			TargetType:   m.TargetType,
			Allocation:   m.Allocation,
			Value:        m.Value,
			MaxQuantity:  m.MaxQuantity,
			CurrencyCode: m.MethodCurrency,
			TargetRules:  rulesFromJSON(m.TargetRules),
		},
		Rules: rulesFromJSON(m.Rules),
	}
	if m.Campaign != nil {
		p.Campaign = m.Campaign.ToDomain()
	}
	return p
}

// PromotionModelFromDomain creates a persistence model from a domain Promotion.
func PromotionModelFromDomain(p *promotion.Promotion) *PromotionModel {
	m := &PromotionModel{
		Code:           p.Code,
		IsAutomatic:    p.IsAutomatic,
		Status:         p.Status,
		CampaignID:     p.CampaignID,
		MethodType:     p.Method.Type,
		TargetType:     p.Method.TargetType,
		Allocation:     p.Method.Allocation,
		Value:          p.Method.Value,
		MaxQuantity:    p.Method.MaxQuantity,
		MethodCurrency: p.Method.CurrencyCode,
		TargetRules:    rulesToJSON(p.Method.TargetRules),
		Rules:          rulesToJSON(p.Rules),
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// CampaignModel is the persistence model for campaigns and their budget.
type CampaignModel struct {
	BaseModel
	Name           string `gorm:"type:varchar(200);not null"`
	Identifier     string `gorm:"column:campaign_identifier;type:varchar(100);not null;index"`
	Description    string `gorm:"type:text"`
	StartsAt       *time.Time
	EndsAt         *time.Time
	BudgetType     *promotion.BudgetType `gorm:"type:varchar(20)"`
	BudgetLimit    *decimal.Decimal      `gorm:"type:numeric(20,4)"`
	BudgetUsed     decimal.Decimal       `gorm:"type:numeric(20,4);not null;default:0"`
	BudgetCurrency string                `gorm:"type:varchar(3)"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign.
func (m *CampaignModel) ToDomain() *promotion.Campaign {
	c := &promotion.Campaign{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Identifier:  m.Identifier,
		Description: m.Description,
		StartsAt:    m.StartsAt,
		EndsAt:      m.EndsAt,
	}
	if m.BudgetType != nil {
		c.Budget = &promotion.Budget{
			Type:         *m.BudgetType,
			Limit:        m.BudgetLimit,
			Used:         m.BudgetUsed,
			CurrencyCode: m.BudgetCurrency,
		}
	}
	return c
}

// CampaignModelFromDomain creates a persistence model from a domain Campaign.
func CampaignModelFromDomain(c *promotion.Campaign) *CampaignModel {
	m := &CampaignModel{
		Name:        c.Name,
		Identifier:  c.Identifier,
		Description: c.Description,
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
	}
	if c.Budget != nil {
		bt := c.Budget.Type
		m.BudgetType = &bt
		m.BudgetLimit = c.Budget.Limit
		m.BudgetUsed = c.Budget.Used
		m.BudgetCurrency = c.Budget.CurrencyCode
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

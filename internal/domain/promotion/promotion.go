// Package promotion models discount promotions, their campaigns and budgets,
// and computes cart adjustments.
package promotion

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a promotion
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// MethodType decides how the value is interpreted
type MethodType string

const (
	MethodFixed      MethodType = "fixed"
	MethodPercentage MethodType = "percentage"
)

// TargetType decides what gets discounted
type TargetType string

const (
	TargetItems           TargetType = "items"
	TargetShippingMethods TargetType = "shipping_methods"
	TargetOrder           TargetType = "order"
)

// Allocation decides whether the value applies per target or is spread over all targets
type Allocation string

const (
	AllocationEach   Allocation = "each"
	AllocationAcross Allocation = "across"
)

// Operator compares a context attribute with rule values
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpIn  Operator = "in"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// Rule is a condition on a cart attribute, e.g. customer_group_id in [...]
type Rule struct {
	Attribute string
	Operator  Operator
	Values    []string
}

// ApplicationMethod describes the discount a promotion grants
type ApplicationMethod struct {
	Type         MethodType
	TargetType   TargetType
	Allocation   Allocation
	Value        decimal.Decimal
	MaxQuantity  *int
	CurrencyCode string
	// TargetRules select which items or shipping methods are discounted
	TargetRules []Rule
}

// Promotion is a discount identified by a code, optionally part of a campaign
type Promotion struct {
	shared.BaseAggregateRoot
	Code        string
	IsAutomatic bool
	Status      Status
	CampaignID  *uuid.UUID
	Campaign    *Campaign
	Method      ApplicationMethod
	Rules       []Rule
}

// NewPromotion validates and creates a draft promotion
func NewPromotion(code string, automatic bool, method ApplicationMethod, rules []Rule) (*Promotion, error) {
	p := &Promotion{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            StatusDraft,
	}
	if err := p.Update(code, automatic, method, rules); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the promotion definition
func (p *Promotion) Update(code string, automatic bool, method ApplicationMethod, rules []Rule) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	var v shared.Validator
	v.Check(code != "", "code", "code is required")
	v.Check(!strings.ContainsAny(code, " \t"), "code", "code cannot contain whitespace")
	v.Merge(method.validate())
	for i, r := range rules {
		v.Merge(r.validate("rules." + strconv.Itoa(i)))
	}
	if err := v.Err(); err != nil {
		return err
	}
	method.CurrencyCode = strings.ToUpper(method.CurrencyCode)
	if method.TargetType == TargetOrder {
		method.Allocation = AllocationAcross
	}
	p.Code = code
	p.IsAutomatic = automatic
	p.Method = method
	p.Rules = rules
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetStatus changes the promotion status
func (p *Promotion) SetStatus(s Status) error {
	switch s {
	case StatusDraft, StatusActive, StatusInactive:
	default:
		return shared.NewInvalidDataError("status", "status must be draft, active or inactive")
	}
	p.Status = s
	p.Touch()
	return nil
}

// IsActiveAt reports whether the promotion can be applied at t
func (p *Promotion) IsActiveAt(t time.Time) bool {
	if p.Status != StatusActive || p.IsDeleted() {
		return false
	}
	if p.Campaign != nil && !p.Campaign.IsRunningAt(t) {
		return false
	}
	return true
}

func (m ApplicationMethod) validate() error {
	var v shared.Validator
	v.Check(m.Type == MethodFixed || m.Type == MethodPercentage, "application_method.type", "type must be fixed or percentage")
	v.Check(m.TargetType == TargetItems || m.TargetType == TargetShippingMethods || m.TargetType == TargetOrder,
		"application_method.target_type", "target_type must be items, shipping_methods or order")
	if m.TargetType != TargetOrder {
		v.Check(m.Allocation == AllocationEach || m.Allocation == AllocationAcross, "application_method.allocation", "allocation must be each or across")
	}
	v.Check(m.Value.IsPositive(), "application_method.value", "value must be positive")
	if m.Type == MethodPercentage {
		v.Check(m.Value.LessThanOrEqual(decimal.NewFromInt(100)), "application_method.value", "percentage cannot exceed 100")
	}
	if m.Type == MethodFixed {
		v.Check(len(m.CurrencyCode) == 3, "application_method.currency_code", "fixed promotions require a currency_code")
	}
	if m.MaxQuantity != nil {
		v.Check(*m.MaxQuantity > 0, "application_method.max_quantity", "max_quantity must be positive")
	}
	for i, r := range m.TargetRules {
		v.Merge(r.validate("application_method.target_rules." + strconv.Itoa(i)))
	}
	return v.Err()
}

func (r Rule) validate(path string) error {
	var v shared.Validator
	v.Check(strings.TrimSpace(r.Attribute) != "", path+".attribute", "attribute is required")
	switch r.Operator {
	case OpEq, OpNe, OpIn, OpGt, OpGte, OpLt, OpLte:
	default:
		v.Check(false, path+".operator", "operator must be one of eq, ne, in, gt, gte, lt, lte")
	}
	v.Check(len(r.Values) > 0, path+".values", "at least one value is required")
	return v.Err()
}

// Repository persists promotions and campaigns
type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Promotion, error)
	// FindByCodes loads promotions with their campaigns
	FindByCodes(ctx context.Context, codes []string) ([]*Promotion, error)
	FindAutomatic(ctx context.Context) ([]*Promotion, error)
	ExistsByCode(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Promotion, int64, error)
}

// CampaignRepository persists campaigns and their budgets
type CampaignRepository interface {
	Create(ctx context.Context, c *Campaign) error
	Update(ctx context.Context, c *Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	ExistsByIdentifier(ctx context.Context, identifier string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Campaign, int64, error)
	// AdjustBudgetUsage atomically adds delta to budget_used, failing when the limit would be exceeded
	AdjustBudgetUsage(ctx context.Context, campaignID uuid.UUID, delta decimal.Decimal) error
}

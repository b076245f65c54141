package promotion

import (
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BudgetType decides what a campaign budget counts
type BudgetType string

const (
	BudgetSpend BudgetType = "spend" // Sum of discount amounts
	BudgetUsage BudgetType = "usage" // Number of uses
)

// ErrBudgetExceeded is returned when usage would exceed the campaign budget
var ErrBudgetExceeded = shared.NewDomainError("CAMPAIGN_BUDGET_EXCEEDED", "Promotion campaign budget exceeded")

// Budget limits a campaign
type Budget struct {
	Type         BudgetType
	Limit        *decimal.Decimal
	Used         decimal.Decimal
	CurrencyCode string
}

// Remaining returns the budget left, or nil when unlimited
func (b *Budget) Remaining() *decimal.Decimal {
	if b == nil || b.Limit == nil {
		return nil
	}
	r := b.Limit.Sub(b.Used)
	if r.IsNegative() {
		r = decimal.Zero
	}
	return &r
}

// CanUse reports whether delta fits into the budget
func (b *Budget) CanUse(delta decimal.Decimal) bool {
	rem := b.Remaining()
	return rem == nil || delta.LessThanOrEqual(*rem)
}

// Use consumes delta of the budget. A negative delta reverts usage.
func (b *Budget) Use(delta decimal.Decimal) error {
	if delta.IsPositive() && !b.CanUse(delta) {
		return ErrBudgetExceeded
	}
	b.Used = b.Used.Add(delta)
	if b.Used.IsNegative() {
		b.Used = decimal.Zero
	}
	return nil
}

// Campaign groups promotions under a schedule and a budget
type Campaign struct {
	shared.BaseEntity
	Name        string
	Identifier  string
	Description string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Budget      *Budget
}

// NewCampaign validates and creates a campaign
func NewCampaign(name, identifier, description string, startsAt, endsAt *time.Time, budget *Budget) (*Campaign, error) {
	c := &Campaign{BaseEntity: shared.NewBaseEntity()}
	if err := c.Update(name, identifier, description, startsAt, endsAt); err != nil {
		return nil, err
	}
	if err := c.SetBudget(budget); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the campaign's schedule and descriptive fields
func (c *Campaign) Update(name, identifier, description string, startsAt, endsAt *time.Time) error {
	var v shared.Validator
	v.Check(strings.TrimSpace(name) != "", "name", "name is required")
	v.Check(strings.TrimSpace(identifier) != "", "campaign_identifier", "campaign_identifier is required")
	if startsAt != nil && endsAt != nil {
		v.Check(startsAt.Before(*endsAt), "ends_at", "ends_at must be after starts_at")
	}
	if err := v.Err(); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.Identifier = strings.TrimSpace(identifier)
	c.Description = description
	c.StartsAt = startsAt
	c.EndsAt = endsAt
	c.Touch()
	return nil
}

// SetBudget validates and sets the budget. Existing usage is kept.
func (c *Campaign) SetBudget(b *Budget) error {
	if b == nil {
		c.Budget = nil
		return nil
	}
	var v shared.Validator
	v.Check(b.Type == BudgetSpend || b.Type == BudgetUsage, "budget.type", "type must be spend or usage")
	if b.Limit != nil {
		v.Check(!b.Limit.IsNegative(), "budget.limit", "limit cannot be negative")
	}
	if b.Type == BudgetSpend {
		v.Check(len(b.CurrencyCode) == 3, "budget.currency_code", "spend budgets require a currency_code")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if c.Budget != nil {
		b.Used = c.Budget.Used
	}
	b.CurrencyCode = strings.ToUpper(b.CurrencyCode)
	c.Budget = b
	c.Touch()
	return nil
}

// IsRunningAt reports whether t falls in the campaign window
func (c *Campaign) IsRunningAt(t time.Time) bool {
	if c.IsDeleted() {
		return false
	}
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && !t.Before(*c.EndsAt) {
		return false
	}
	return true
}

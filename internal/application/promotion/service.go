// Package promotion manages promotions and campaigns and evaluates them
// against carts.
package promotion

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RuleRequest is a promotion or target rule
type RuleRequest struct {
	Attribute string   `json:"attribute" binding:"required"`
	Operator  string   `json:"operator" binding:"required,oneof=eq ne in gt gte lt lte"`
	Values    []string `json:"values" binding:"required,min=1"`
}

// ApplicationMethodRequest describes how a promotion discounts
type ApplicationMethodRequest struct {
	Type         string          `json:"type" binding:"required,oneof=fixed percentage"`
	TargetType   string          `json:"target_type" binding:"required,oneof=items shipping_methods order"`
	Allocation   string          `json:"allocation" binding:"omitempty,oneof=each across"`
	Value        decimal.Decimal `json:"value"`
	MaxQuantity  *int            `json:"max_quantity"`
	CurrencyCode string          `json:"currency_code" binding:"omitempty,len=3"`
	TargetRules  []RuleRequest   `json:"target_rules" binding:"dive"`
}

// PromotionRequest creates or replaces a promotion
type PromotionRequest struct {
	Code              string                   `json:"code" binding:"required,max=100"`
	IsAutomatic       bool                     `json:"is_automatic"`
	Status            string                   `json:"status" binding:"omitempty,oneof=draft active inactive"`
	CampaignID        *uuid.UUID               `json:"campaign_id"`
	ApplicationMethod ApplicationMethodRequest `json:"application_method" binding:"required"`
	Rules             []RuleRequest            `json:"rules" binding:"dive"`
}

// BudgetRequest is a campaign budget
type BudgetRequest struct {
	Type         string           `json:"type" binding:"required,oneof=spend usage"`
	Limit        *decimal.Decimal `json:"limit"`
	CurrencyCode string           `json:"currency_code" binding:"omitempty,len=3"`
}

// CampaignRequest creates or replaces a campaign
type CampaignRequest struct {
	Name        string         `json:"name" binding:"required,max=200"`
	Identifier  string         `json:"campaign_identifier" binding:"required,max=100"`
	Description string         `json:"description"`
	StartsAt    *time.Time     `json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at"`
	Budget      *BudgetRequest `json:"budget"`
}

// BudgetResponse represents a campaign budget
type BudgetResponse struct {
	Type         string           `json:"type"`
	Limit        *decimal.Decimal `json:"limit"`
	Used         decimal.Decimal  `json:"used"`
	CurrencyCode string           `json:"currency_code,omitempty"`
}

// CampaignResponse represents a campaign
type CampaignResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Identifier  string          `json:"campaign_identifier"`
	Description string          `json:"description"`
	StartsAt    *time.Time      `json:"starts_at"`
	EndsAt      *time.Time      `json:"ends_at"`
	Budget      *BudgetResponse `json:"budget"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PromotionResponse represents a promotion
type PromotionResponse struct {
	ID                uuid.UUID                `json:"id"`
	Code              string                   `json:"code"`
	Type              string                   `json:"type"`
	IsAutomatic       bool                     `json:"is_automatic"`
	Status            string                   `json:"status"`
	CampaignID        *uuid.UUID               `json:"campaign_id"`
	Campaign          *CampaignResponse        `json:"campaign,omitempty"`
	ApplicationMethod ApplicationMethodRequest `json:"application_method"`
	Rules             []RuleRequest            `json:"rules"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

func toRules(in []RuleRequest) []promotion.Rule {
	out := make([]promotion.Rule, len(in))
	for i, r := range in {
		out[i] = promotion.Rule{Attribute: r.Attribute, Operator: promotion.Operator(r.Operator), Values: r.Values}
	}
	return out
}

func fromRules(in []promotion.Rule) []RuleRequest {
	out := make([]RuleRequest, len(in))
	for i, r := range in {
		out[i] = RuleRequest{Attribute: r.Attribute, Operator: string(r.Operator), Values: r.Values}
	}
	return out
}

func (m ApplicationMethodRequest) toDomain() promotion.ApplicationMethod {
	return promotion.ApplicationMethod{
		Type:         promotion.MethodType(m.Type),
		TargetType:   promotion.TargetType(m.TargetType),
		Allocation:   promotion.Allocation(m.Allocation),
		Value:        m.Value,
		MaxQuantity:  m.MaxQuantity,
		CurrencyCode: m.CurrencyCode,
		TargetRules:  toRules(m.TargetRules),
	}
}

func (b *BudgetRequest) toDomain() *promotion.Budget {
	if b == nil {
		return nil
	}
	return &promotion.Budget{Type: promotion.BudgetType(b.Type), Limit: b.Limit, CurrencyCode: b.CurrencyCode}
}

func toCampaignResponse(c *promotion.Campaign) CampaignResponse {
	resp := CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Identifier:  c.Identifier,
		Description: c.Description,
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if b := c.Budget; b != nil {
		resp.Budget = &BudgetResponse{Type: string(b.Type), Limit: b.Limit, Used: b.Used, CurrencyCode: b.CurrencyCode}
	}
	return resp
}

func toPromotionResponse(p *promotion.Promotion) PromotionResponse {
	m := p.Method
	resp := PromotionResponse{
		ID:          p.ID,
		Code:        p.Code,
		Type:        "standard",
		IsAutomatic: p.IsAutomatic,
		Status:      string(p.Status),
		CampaignID:  p.CampaignID,
		ApplicationMethod: ApplicationMethodRequest{
			Type:         string(m.Type),
			TargetType:   string(m.TargetType),
			Allocation:   string(m.Allocation),
			Value:        m.Value,
			MaxQuantity:  m.MaxQuantity,
			CurrencyCode: m.CurrencyCode,
			TargetRules:  fromRules(m.TargetRules),
		},
		Rules:     fromRules(p.Rules),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Campaign != nil {
		c := toCampaignResponse(p.Campaign)
		resp.Campaign = &c
	}
	return resp
}

// Service handles promotions, campaigns and promotion evaluation
type Service struct {
	repo         promotion.Repository
	campaignRepo promotion.CampaignRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new promotion Service
func NewService(repo promotion.Repository, campaignRepo promotion.CampaignRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, campaignRepo: campaignRepo, logger: logger, now: time.Now}
}

// Create creates a promotion
func (s *Service) Create(ctx context.Context, req PromotionRequest) (*PromotionResponse, error) {
	p, err := promotion.NewPromotion(req.Code, req.IsAutomatic, req.ApplicationMethod.toDomain(), toRules(req.Rules))
	if err != nil {
		return nil, err
	}
	if err := s.applyCommon(ctx, p, req, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := toPromotionResponse(p)
	return &resp, nil
}

// Update replaces a promotion definition
func (s *Service) Update(ctx context.Context, id uuid.UUID, req PromotionRequest) (*PromotionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Code, req.IsAutomatic, req.ApplicationMethod.toDomain(), toRules(req.Rules)); err != nil {
		return nil, err
	}
	if err := s.applyCommon(ctx, p, req, &id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := toPromotionResponse(p)
	return &resp, nil
}

func (s *Service) applyCommon(ctx context.Context, p *promotion.Promotion, req PromotionRequest, excludeID *uuid.UUID) error {
	exists, err := s.repo.ExistsByCode(ctx, p.Code, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewNotUniqueError("Promotion", "code", p.Code)
	}
	if req.Status != "" {
		if err := p.SetStatus(promotion.Status(req.Status)); err != nil {
			return err
		}
	}
	p.CampaignID = req.CampaignID
	p.Campaign = nil
	if req.CampaignID != nil {
		c, err := s.campaignRepo.FindByID(ctx, *req.CampaignID)
		if err != nil {
			if shared.IsNotFound(err) {
				return shared.NewInvalidDataError("campaign_id", "campaign "+req.CampaignID.String()+" does not exist")
			}
			return err
		}
		p.Campaign = c
	}
	return nil
}

// Get returns a promotion
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PromotionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPromotionResponse(p)
	return &resp, nil
}

// Delete soft deletes a promotion
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List lists promotions
func (s *Service) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[PromotionResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return shared.ListResult[PromotionResponse]{}, err
	}
	items := make([]PromotionResponse, len(rows))
	for i, p := range rows {
		items[i] = toPromotionResponse(p)
	}
	return shared.NewListResult(items, total, q), nil
}

// CreateCampaign creates a campaign
func (s *Service) CreateCampaign(ctx context.Context, req CampaignRequest) (*CampaignResponse, error) {
	c, err := promotion.NewCampaign(req.Name, req.Identifier, req.Description, req.StartsAt, req.EndsAt, req.Budget.toDomain())
	if err != nil {
		return nil, err
	}
	if err := s.ensureIdentifierFree(ctx, c.Identifier, nil); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := toCampaignResponse(c)
	return &resp, nil
}

// UpdateCampaign replaces a campaign. Budget usage is preserved.
func (s *Service) UpdateCampaign(ctx context.Context, id uuid.UUID, req CampaignRequest) (*CampaignResponse, error) {
	c, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Name, req.Identifier, req.Description, req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}
	if err := c.SetBudget(req.Budget.toDomain()); err != nil {
		return nil, err
	}
	if err := s.ensureIdentifierFree(ctx, c.Identifier, &id); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := toCampaignResponse(c)
	return &resp, nil
}

func (s *Service) ensureIdentifierFree(ctx context.Context, identifier string, excludeID *uuid.UUID) error {
	exists, err := s.campaignRepo.ExistsByIdentifier(ctx, identifier, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewNotUniqueError("Campaign", "campaign_identifier", identifier)
	}
	return nil
}

// GetCampaign returns a campaign
func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	c, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCampaignResponse(c)
	return &resp, nil
}

// DeleteCampaign soft deletes a campaign
func (s *Service) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	return s.campaignRepo.Delete(ctx, id)
}

// ListCampaigns lists campaigns
func (s *Service) ListCampaigns(ctx context.Context, q shared.ListQuery) (shared.ListResult[CampaignResponse], error) {
	q = q.Normalize()
	rows, total, err := s.campaignRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[CampaignResponse]{}, err
	}
	items := make([]CampaignResponse, len(rows))
	for i, c := range rows {
		items[i] = toCampaignResponse(c)
	}
	return shared.NewListResult(items, total, q), nil
}

// ValidateCodes checks that every code names a promotion that can currently
// be applied. Codes are returned upper-cased and de-duplicated.
func (s *Service) ValidateCodes(ctx context.Context, codes []string) ([]string, error) {
	normalized := normalizeCodes(codes)
	found, err := s.repo.FindByCodes(ctx, normalized)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*promotion.Promotion, len(found))
	for _, p := range found {
		byCode[p.Code] = p
	}
	now := s.now()
	var v shared.Validator
	for i, code := range normalized {
		p, ok := byCode[code]
		v.Check(ok && p.IsActiveAt(now), "promo_codes."+strconv.Itoa(i), "promotion code "+code+" is invalid or inactive")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return normalized, nil
}

// ComputeActions evaluates the cart's codes followed by the automatic
// promotions and returns the resulting adjustments. Codes that no longer
// resolve to a promotion are ignored.
func (s *Service) ComputeActions(ctx context.Context, codes []string, cart promotion.CartContext) ([]promotion.Adjustment, error) {
	explicit, err := s.repo.FindByCodes(ctx, normalizeCodes(codes))
	if err != nil {
		return nil, err
	}
	automatic, err := s.repo.FindAutomatic(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(explicit)+len(automatic))
	promotions := make([]*promotion.Promotion, 0, len(explicit)+len(automatic))
	for _, p := range append(explicit, automatic...) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		promotions = append(promotions, p)
	}
	if cart.At.IsZero() {
		cart.At = s.now()
	}
	return promotion.ComputeActions(promotions, cart), nil
}

// RegisterUsage consumes campaign budgets for the applied adjustments. Either
// every budget is charged or none is.
func (s *Service) RegisterUsage(ctx context.Context, adjustments []promotion.Adjustment) error {
	deltas, err := s.usageDeltas(ctx, adjustments)
	if err != nil {
		return err
	}
	applied := make([]usageDelta, 0, len(deltas))
	for _, d := range deltas {
		if err := s.campaignRepo.AdjustBudgetUsage(ctx, d.campaignID, d.amount); err != nil {
			s.rollback(ctx, applied)
			if errors.Is(err, promotion.ErrBudgetExceeded) {
				s.logger.Info("campaign budget exceeded", zap.String("campaign_id", d.campaignID.String()))
			}
			return err
		}
		applied = append(applied, d)
	}
	return nil
}

// RevertUsage gives back budget consumed by RegisterUsage
func (s *Service) RevertUsage(ctx context.Context, adjustments []promotion.Adjustment) error {
	deltas, err := s.usageDeltas(ctx, adjustments)
	if err != nil {
		return err
	}
	var errs []error
	for _, d := range deltas {
		if err := s.campaignRepo.AdjustBudgetUsage(ctx, d.campaignID, d.amount.Neg()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) rollback(ctx context.Context, applied []usageDelta) {
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		if err := s.campaignRepo.AdjustBudgetUsage(ctx, d.campaignID, d.amount.Neg()); err != nil {
			s.logger.Error("failed to revert campaign usage",
				zap.String("campaign_id", d.campaignID.String()),
				zap.Error(err),
			)
		}
	}
}

type usageDelta struct {
	campaignID uuid.UUID
	amount     decimal.Decimal
}

// usageDeltas sums adjustment amounts per campaign for spend budgets and
// counts distinct promotions for usage budgets.
func (s *Service) usageDeltas(ctx context.Context, adjustments []promotion.Adjustment) ([]usageDelta, error) {
	var order []uuid.UUID
	spend := map[uuid.UUID]decimal.Decimal{}
	promos := map[uuid.UUID]map[uuid.UUID]bool{}
	for _, a := range adjustments {
		if a.CampaignID == nil {
			continue
		}
		id := *a.CampaignID
		if _, ok := promos[id]; !ok {
			order = append(order, id)
			promos[id] = map[uuid.UUID]bool{}
		}
		spend[id] = spend[id].Add(a.Amount)
		promos[id][a.PromotionID] = true
	}

	out := make([]usageDelta, 0, len(order))
	for _, id := range order {
		c, err := s.campaignRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if c.Budget == nil {
			continue
		}
		amount := spend[id]
		if c.Budget.Type == promotion.BudgetUsage {
			amount = decimal.NewFromInt(int64(len(promos[id])))
		}
		out = append(out, usageDelta{campaignID: id, amount: amount})
	}
	return out, nil
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Package pricing manages variant prices and price lists and resolves the
// price of a variant in a pricing context.
package pricing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/pricing"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRequest is one price of a variant
type PriceRequest struct {
	VariantID    uuid.UUID       `json:"variant_id"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code" binding:"required,len=3"`
	RegionID     *uuid.UUID      `json:"region_id"`
	MinQuantity  *int            `json:"min_quantity" binding:"omitempty,gte=1"`
	MaxQuantity  *int            `json:"max_quantity" binding:"omitempty,gte=1"`
}

// SetPricesRequest replaces the base prices of a variant
type SetPricesRequest struct {
	Prices []PriceRequest `json:"prices" binding:"dive"`
}

// PriceListRequest creates or updates a price list
type PriceListRequest struct {
	Title            string         `json:"title" binding:"required,max=255"`
	Description      string         `json:"description"`
	Type             string         `json:"type" binding:"required,oneof=sale override"`
	Status           string         `json:"status" binding:"omitempty,oneof=draft active"`
	StartsAt         *time.Time     `json:"starts_at"`
	EndsAt           *time.Time     `json:"ends_at"`
	CustomerGroupIDs []uuid.UUID    `json:"customer_group_ids"`
	Prices           []PriceRequest `json:"prices" binding:"dive"`
}

// CalculateRequest asks for the prices of variants in a context
type CalculateRequest struct {
	VariantIDs       []uuid.UUID `json:"variant_ids" binding:"required,min=1"`
	CurrencyCode     string      `json:"currency_code" binding:"required,len=3"`
	RegionID         *uuid.UUID  `json:"region_id"`
	Quantity         int         `json:"quantity"`
	CustomerGroupIDs []uuid.UUID `json:"customer_group_ids"`
}

// PriceResponse represents a stored price
type PriceResponse struct {
	ID           uuid.UUID       `json:"id"`
	VariantID    uuid.UUID       `json:"variant_id"`
	PriceListID  *uuid.UUID      `json:"price_list_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	RegionID     *uuid.UUID      `json:"region_id,omitempty"`
	MinQuantity  *int            `json:"min_quantity,omitempty"`
	MaxQuantity  *int            `json:"max_quantity,omitempty"`
}

// PriceListResponse represents a price list
type PriceListResponse struct {
	ID               uuid.UUID       `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	StartsAt         *time.Time      `json:"starts_at,omitempty"`
	EndsAt           *time.Time      `json:"ends_at,omitempty"`
	CustomerGroupIDs []uuid.UUID     `json:"customer_group_ids"`
	Prices           []PriceResponse `json:"prices"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toPriceResponse(p pricing.Price) PriceResponse {
	return PriceResponse{
		ID:           p.ID,
		VariantID:    p.VariantID,
		PriceListID:  p.PriceListID,
		Amount:       p.Amount,
		CurrencyCode: p.CurrencyCode,
		RegionID:     p.RegionID,
		MinQuantity:  p.MinQuantity,
		MaxQuantity:  p.MaxQuantity,
	}
}

func toPriceResponses(prices []pricing.Price) []PriceResponse {
	out := make([]PriceResponse, len(prices))
	for i, p := range prices {
		out[i] = toPriceResponse(p)
	}
	return out
}

func toPriceListResponse(pl *pricing.PriceList) PriceListResponse {
	groups := pl.CustomerGroupIDs
	if groups == nil {
		groups = make([]uuid.UUID, 0)
	}
	return PriceListResponse{
		ID:               pl.ID,
		Title:            pl.Title,
		Description:      pl.Description,
		Type:             string(pl.Type),
		Status:           string(pl.Status),
		StartsAt:         pl.StartsAt,
		EndsAt:           pl.EndsAt,
		CustomerGroupIDs: groups,
		Prices:           toPriceResponses(pl.Prices),
		CreatedAt:        pl.CreatedAt,
		UpdatedAt:        pl.UpdatedAt,
	}
}

func (r PriceRequest) toPrice() pricing.Price {
	return pricing.Price{
		VariantID:    r.VariantID,
		Amount:       r.Amount,
		CurrencyCode: strings.ToUpper(strings.TrimSpace(r.CurrencyCode)),
		RegionID:     r.RegionID,
		MinQuantity:  r.MinQuantity,
		MaxQuantity:  r.MaxQuantity,
	}
}

// Service handles pricing operations
type Service struct {
	repo        pricing.Repository
	variantRepo catalog.VariantRepository
	now         func() time.Time
}

// NewService creates a new pricing Service
func NewService(repo pricing.Repository, variantRepo catalog.VariantRepository) *Service {
	return &Service{repo: repo, variantRepo: variantRepo, now: time.Now}
}

// SetVariantPrices replaces the base prices of a variant
func (s *Service) SetVariantPrices(ctx context.Context, variantID uuid.UUID, req SetPricesRequest) ([]PriceResponse, error) {
	if _, err := s.variantRepo.FindByID(ctx, variantID); err != nil {
		return nil, err
	}
	in := make([]pricing.Price, len(req.Prices))
	for i, p := range req.Prices {
		in[i] = p.toPrice()
	}
	prices, err := pricing.NormalizePrices(variantID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceVariantPrices(ctx, variantID, prices); err != nil {
		return nil, err
	}
	return toPriceResponses(prices), nil
}

// GetVariantPrices returns the base prices of a variant
func (s *Service) GetVariantPrices(ctx context.Context, variantID uuid.UUID) ([]PriceResponse, error) {
	prices, err := s.repo.FindVariantPrices(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return toPriceResponses(prices), nil
}

// CalculatePrices resolves a price for each variant. A variant without an
// applicable price fails the whole call with not_found.
func (s *Service) CalculatePrices(ctx context.Context, variantIDs []uuid.UUID, pc pricing.Context) (map[uuid.UUID]pricing.CalculatedPrice, error) {
	pc.CurrencyCode = strings.ToUpper(pc.CurrencyCode)
	if pc.At.IsZero() {
		pc.At = s.now()
	}
	candidates, err := s.repo.FindPrices(ctx, variantIDs, pc.CurrencyCode)
	if err != nil {
		return nil, err
	}
	lists, err := s.activeLists(ctx, candidates)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]pricing.CalculatedPrice, len(variantIDs))
	for _, id := range variantIDs {
		price, err := pricing.Calculate(id, candidates, lists, pc)
		if err != nil {
			return nil, err
		}
		out[id] = price
	}
	return out, nil
}

// Calculate is the request form of CalculatePrices
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) ([]pricing.CalculatedPrice, error) {
	prices, err := s.CalculatePrices(ctx, req.VariantIDs, pricing.Context{
		CurrencyCode:     req.CurrencyCode,
		RegionID:         req.RegionID,
		Quantity:         req.Quantity,
		CustomerGroupIDs: req.CustomerGroupIDs,
	})
	if err != nil {
		return nil, err
	}
	out := make([]pricing.CalculatedPrice, len(req.VariantIDs))
	for i, id := range req.VariantIDs {
		out[i] = prices[id]
	}
	return out, nil
}

func (s *Service) activeLists(ctx context.Context, prices []pricing.Price) (map[uuid.UUID]*pricing.PriceList, error) {
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0)
	for _, p := range prices {
		if p.PriceListID != nil && !seen[*p.PriceListID] {
			seen[*p.PriceListID] = true
			ids = append(ids, *p.PriceListID)
		}
	}
	lists := make(map[uuid.UUID]*pricing.PriceList, len(ids))
	if len(ids) == 0 {
		return lists, nil
	}
	rows, err := s.repo.FindPriceListsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, pl := range rows {
		lists[pl.ID] = pl
	}
	return lists, nil
}

// CreatePriceList creates a price list with its prices
func (s *Service) CreatePriceList(ctx context.Context, req PriceListRequest) (*PriceListResponse, error) {
	pl, err := pricing.NewPriceList(req.Title, req.Description, pricing.PriceListType(req.Type))
	if err != nil {
		return nil, err
	}
	if err := s.applyPriceList(ctx, pl, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePriceList(ctx, pl); err != nil {
		return nil, err
	}
	resp := toPriceListResponse(pl)
	return &resp, nil
}

// GetPriceList returns a price list with its prices
func (s *Service) GetPriceList(ctx context.Context, id uuid.UUID) (*PriceListResponse, error) {
	pl, err := s.repo.FindPriceList(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPriceListResponse(pl)
	return &resp, nil
}

// UpdatePriceList replaces a price list's fields and prices
func (s *Service) UpdatePriceList(ctx context.Context, id uuid.UUID, req PriceListRequest) (*PriceListResponse, error) {
	pl, err := s.repo.FindPriceList(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyPriceList(ctx, pl, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePriceList(ctx, pl); err != nil {
		return nil, err
	}
	resp := toPriceListResponse(pl)
	return &resp, nil
}

// DeletePriceList soft deletes a price list
func (s *Service) DeletePriceList(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePriceList(ctx, id)
}

// ListPriceLists lists price lists
func (s *Service) ListPriceLists(ctx context.Context, q shared.ListQuery) (shared.ListResult[PriceListResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.ListPriceLists(ctx, q)
	if err != nil {
		return shared.ListResult[PriceListResponse]{}, err
	}
	items := make([]PriceListResponse, len(rows))
	for i, pl := range rows {
		items[i] = toPriceListResponse(pl)
	}
	return shared.NewListResult(items, total, q), nil
}

func (s *Service) applyPriceList(ctx context.Context, pl *pricing.PriceList, req PriceListRequest) error {
	if err := pl.Update(req.Title, req.Description, pricing.PriceListType(req.Type), req.StartsAt, req.EndsAt); err != nil {
		return err
	}
	switch pricing.PriceListStatus(req.Status) {
	case pricing.PriceListStatusActive:
		pl.Activate()
	case pricing.PriceListStatusDraft:
		pl.Status = pricing.PriceListStatusDraft
	}
	pl.CustomerGroupIDs = req.CustomerGroupIDs

	var v shared.Validator
	prices := make([]pricing.Price, len(req.Prices))
	variantIDs := make([]uuid.UUID, 0, len(req.Prices))
	for i, r := range req.Prices {
		path := "prices." + strconv.Itoa(i)
		p := r.toPrice()
		p.ID = uuid.New()
		v.Check(p.VariantID != uuid.Nil, path+".variant_id", "variant_id is required")
		v.Merge(p.Validate(path))
		prices[i] = p
		variantIDs = append(variantIDs, p.VariantID)
	}
	if err := v.Err(); err != nil {
		return err
	}
	if len(variantIDs) > 0 {
		found, err := s.variantRepo.FindByIDs(ctx, variantIDs)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]bool, len(found))
		for _, variant := range found {
			known[variant.ID] = true
		}
		for i, id := range variantIDs {
			if !known[id] {
				v.Add(shared.ValidationIssue{Type: shared.IssueNotFound, Message: "variant " + id.String() + " was not found", Path: "prices." + strconv.Itoa(i) + ".variant_id"})
			}
		}
		if err := v.Err(); err != nil {
			return err
		}
	}
	pl.Prices = prices
	return nil
}

// Package currency exposes the currencies the store can sell in.
package currency

import (
	"context"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/shared"
)

// CreateCurrencyRequest represents a request to register a currency
type CreateCurrencyRequest struct {
	Code         string `json:"code" binding:"required,len=3"`
	Name         string `json:"name" binding:"max=100"`
	Symbol       string `json:"symbol" binding:"max=10"`
	SymbolNative string `json:"symbol_native" binding:"max=10"`
}

// CurrencyResponse represents a currency in API responses
type CurrencyResponse struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	SymbolNative  string `json:"symbol_native"`
	DecimalDigits int32  `json:"decimal_digits"`
}

// ToCurrencyResponse converts a domain currency
func ToCurrencyResponse(c *currency.Currency) CurrencyResponse {
	return CurrencyResponse{
		Code:          c.Code,
		Name:          c.Name,
		Symbol:        c.Symbol,
		SymbolNative:  c.SymbolNative,
		DecimalDigits: c.DecimalDigits,
	}
}

// Service handles currency operations
type Service struct {
	repo currency.Repository
}

// NewService creates a new currency Service
func NewService(repo currency.Repository) *Service {
	return &Service{repo: repo}
}

// Create registers an ISO 4217 currency. Registering a known code is rejected.
func (s *Service) Create(ctx context.Context, req CreateCurrencyRequest) (*CurrencyResponse, error) {
	c, err := currency.New(req.Code, req.Name, req.Symbol, req.SymbolNative)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByCode(ctx, c.Code); err == nil {
		return nil, shared.NewNotUniqueError("Currency", "code", c.Code)
	} else if !shared.IsNotFound(err) {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCurrencyResponse(c)
	return &resp, nil
}

// Retrieve returns a currency by code
func (s *Service) Retrieve(ctx context.Context, code string) (*CurrencyResponse, error) {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := ToCurrencyResponse(c)
	return &resp, nil
}

// Exists reports whether code is a registered currency
func (s *Service) Exists(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.FindByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if shared.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// List lists currencies
func (s *Service) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[CurrencyResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return shared.ListResult[CurrencyResponse]{}, err
	}
	items := make([]CurrencyResponse, len(rows))
	for i, c := range rows {
		items[i] = ToCurrencyResponse(c)
	}
	return shared.NewListResult(items, total, q), nil
}

package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemProviderID identifies the built-in provider
const SystemProviderID = "system"

// AuthorizeInput is what a provider needs to authorize a payment
type AuthorizeInput struct {
	CollectionID uuid.UUID
	Amount       decimal.Decimal
	CurrencyCode string
	Email        string
	Data         map[string]any
}

// Provider talks to a payment processor
type Provider interface {
	ID() string
	Authorize(ctx context.Context, in AuthorizeInput) (map[string]any, error)
	Capture(ctx context.Context, p *Payment, amount decimal.Decimal) error
	Refund(ctx context.Context, p *Payment, amount decimal.Decimal) error
	Cancel(ctx context.Context, p *Payment) error
}

// SystemProvider accepts every operation. It backs manual payments.
type SystemProvider struct{}

// ID returns "system"
func (SystemProvider) ID() string { return SystemProviderID }

// Authorize always succeeds
func (SystemProvider) Authorize(_ context.Context, in AuthorizeInput) (map[string]any, error) {
	return map[string]any{"reference": in.CollectionID.String()}, nil
}

// Capture always succeeds
func (SystemProvider) Capture(context.Context, *Payment, decimal.Decimal) error { return nil }

// Refund always succeeds
func (SystemProvider) Refund(context.Context, *Payment, decimal.Decimal) error { return nil }

// Cancel always succeeds
func (SystemProvider) Cancel(context.Context, *Payment) error { return nil }

// ProviderRegistry resolves providers by id
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewProviderRegistry creates a registry holding providers
func NewProviderRegistry(providers ...Provider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider
func (r *ProviderRegistry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns the provider with id
func (r *ProviderRegistry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("payment provider %q is not registered", id)
	}
	return p, nil
}

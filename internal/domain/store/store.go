// Package store holds the store settings and the sales channels products are sold through.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Store is the singleton store configuration
type Store struct {
	shared.BaseEntity
	Name                  string
	DefaultCurrencyCode   string
	SupportedCurrencies   []string
	DefaultRegionID       *uuid.UUID
	DefaultSalesChannelID *uuid.UUID
	DefaultLocationID     *uuid.UUID
}

// NewStore creates a store with a default currency
func NewStore(name, defaultCurrency string) *Store {
	code := strings.ToUpper(defaultCurrency)
	return &Store{
		BaseEntity:          shared.NewBaseEntity(),
		Name:                name,
		DefaultCurrencyCode: code,
		SupportedCurrencies: []string{code},
	}
}

// SetCurrencies replaces the supported currencies. The default must be one of them.
func (s *Store) SetCurrencies(defaultCode string, supported []string) error {
	defaultCode = strings.ToUpper(strings.TrimSpace(defaultCode))
	codes := make([]string, 0, len(supported))
	seen := map[string]bool{}
	var v shared.Validator
	for i, c := range supported {
		c = strings.ToUpper(strings.TrimSpace(c))
		v.Check(len(c) == 3, "supported_currencies."+strconv.Itoa(i), "currency code must have 3 letters")
		if !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	v.Check(seen[defaultCode], "default_currency_code", "default currency must be one of the supported currencies")
	if err := v.Err(); err != nil {
		return err
	}
	s.DefaultCurrencyCode = defaultCode
	s.SupportedCurrencies = codes
	s.Touch()
	return nil
}

// SupportsCurrency reports whether code is enabled for the store
func (s *Store) SupportsCurrency(code string) bool {
	code = strings.ToUpper(code)
	for _, c := range s.SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// SalesChannel is a storefront or marketplace products can be published to
type SalesChannel struct {
	shared.BaseEntity
	Name        string
	Description string
	IsDisabled  bool
}

// NewSalesChannel creates an enabled sales channel
func NewSalesChannel(name, description string) (*SalesChannel, error) {
	sc := &SalesChannel{BaseEntity: shared.NewBaseEntity()}
	if err := sc.Update(name, description, false); err != nil {
		return nil, err
	}
	return sc, nil
}

// Update changes the channel's fields
func (sc *SalesChannel) Update(name, description string, disabled bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewInvalidDataError("name", "name is required")
	}
	sc.Name = name
	sc.Description = strings.TrimSpace(description)
	sc.IsDisabled = disabled
	sc.Touch()
	return nil
}

// ErrSalesChannelDisabled is returned when a cart targets a disabled channel
var ErrSalesChannelDisabled = shared.NewDomainError("SALES_CHANNEL_DISABLED", "Sales channel is disabled")

// Repository defines store persistence
type Repository interface {
	// Get returns the single store row
	Get(ctx context.Context) (*Store, error)
	Save(ctx context.Context, s *Store) error
}

// SalesChannelRepository defines sales channel persistence
type SalesChannelRepository interface {
	Create(ctx context.Context, sc *SalesChannel) error
	Update(ctx context.Context, sc *SalesChannel) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*SalesChannel, error)
	List(ctx context.Context, q shared.ListQuery) ([]*SalesChannel, int64, error)
}

// Package stocklocation models the warehouses and stores inventory is held at.
package stocklocation

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// StockLocation is a place inventory is stocked and shipped from
type StockLocation struct {
	shared.BaseEntity
	Name            string
	Address         valueobject.Address
	SalesChannelIDs []uuid.UUID
}

// New creates a stock location
func New(name string, address valueobject.Address) (*StockLocation, error) {
	loc := &StockLocation{BaseEntity: shared.NewBaseEntity()}
	if err := loc.Update(name, address); err != nil {
		return nil, err
	}
	return loc, nil
}

// Update changes name and address. An empty address is allowed.
func (l *StockLocation) Update(name string, address valueobject.Address) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewInvalidDataError("name", "name is required")
	}
	address = address.Normalize()
	if !address.IsEmpty() {
		if err := address.Validate(); err != nil {
			return shared.NewInvalidDataError("address", err.Error())
		}
	}
	l.Name = name
	l.Address = address
	l.Touch()
	return nil
}

// Repository persists stock locations
type Repository interface {
	Create(ctx context.Context, l *StockLocation) error
	Update(ctx context.Context, l *StockLocation) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockLocation, error)
	// FindBySalesChannel returns the locations that serve a sales channel
	FindBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) ([]*StockLocation, error)
	List(ctx context.Context, q shared.ListQuery) ([]*StockLocation, int64, error)
}

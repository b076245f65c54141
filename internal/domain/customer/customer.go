// Package customer models shoppers, their addresses and customer groups.
package customer

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Address is a saved customer address
type Address struct {
	ID                uuid.UUID
	Name              string
	IsDefaultShipping bool
	IsDefaultBilling  bool
	valueobject.Address
}

// Customer is a shopper. Guests have HasAccount false.
type Customer struct {
	shared.BaseAggregateRoot
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	HasAccount bool
	GroupIDs   []uuid.UUID
	Addresses  []Address
}

// NewCustomer creates a customer
func NewCustomer(email, firstName, lastName, phone string, hasAccount bool) (*Customer, error) {
	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		HasAccount:        hasAccount,
		GroupIDs:          make([]uuid.UUID, 0),
		Addresses:         make([]Address, 0),
	}
	if err := c.Update(email, firstName, lastName, phone); err != nil {
		return nil, err
	}
	return c, nil
}

// Update changes contact fields
func (c *Customer) Update(email, firstName, lastName, phone string) error {
	email = shared.NormalizeEmail(email)
	var v shared.Validator
	v.Check(shared.IsValidEmail(email), "email", "email must be a valid email address")
	v.Check(len(phone) <= 50, "phone", "phone cannot exceed 50 characters")
	if err := v.Err(); err != nil {
		return err
	}
	c.Email = email
	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	c.Phone = strings.TrimSpace(phone)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// AddAddress validates and stores an address. Default flags move to the new address.
func (c *Customer) AddAddress(addr Address) (*Address, error) {
	addr.Address = addr.Address.Normalize()
	if err := addr.Address.Validate(); err != nil {
		return nil, shared.NewInvalidDataError("address", err.Error())
	}
	addr.ID = uuid.New()
	for i := range c.Addresses {
		if addr.IsDefaultShipping {
			c.Addresses[i].IsDefaultShipping = false
		}
		if addr.IsDefaultBilling {
			c.Addresses[i].IsDefaultBilling = false
		}
	}
	c.Addresses = append(c.Addresses, addr)
	c.Touch()
	return &c.Addresses[len(c.Addresses)-1], nil
}

// RemoveAddress deletes an address by id
func (c *Customer) RemoveAddress(id uuid.UUID) error {
	for i, a := range c.Addresses {
		if a.ID == id {
			c.Addresses = append(c.Addresses[:i], c.Addresses[i+1:]...)
			c.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("CustomerAddress", id)
}

// DefaultShippingAddress returns the default shipping address if any
func (c *Customer) DefaultShippingAddress() *Address {
	for i := range c.Addresses {
		if c.Addresses[i].IsDefaultShipping {
			return &c.Addresses[i]
		}
	}
	return nil
}

// InGroup reports whether the customer belongs to groupID
func (c *Customer) InGroup(groupID uuid.UUID) bool {
	for _, g := range c.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}

// Group is a named set of customers used by pricing and promotion rules
type Group struct {
	shared.BaseEntity
	Name     string
	Metadata map[string]any
}

// NewGroup creates a customer group
func NewGroup(name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewInvalidDataError("name", "name is required")
	}
	return &Group{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}

// Repository defines customer persistence
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Customer, int64, error)
}

// GroupRepository defines customer group persistence
type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Group, error)
	FindByName(ctx context.Context, name string) (*Group, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Group, int64, error)
	AddCustomers(ctx context.Context, groupID uuid.UUID, customerIDs []uuid.UUID) error
	RemoveCustomers(ctx context.Context, groupID uuid.UUID, customerIDs []uuid.UUID) error
}

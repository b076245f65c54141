// Package customer manages shoppers, their addresses and customer groups.
package customer

import (
	"context"
	"strconv"
	"time"

	"github.com/commerce/backend/internal/domain/customer"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	FirstName  string `json:"first_name" binding:"max=100"`
	LastName   string `json:"last_name" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=50"`
	HasAccount bool   `json:"has_account"`
}

// UpdateCustomerRequest represents a partial customer update
type UpdateCustomerRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
}

// AddressRequest represents a saved address
type AddressRequest struct {
	Name              string `json:"address_name" binding:"max=100"`
	IsDefaultShipping bool   `json:"is_default_shipping"`
	IsDefaultBilling  bool   `json:"is_default_billing"`
	valueobject.Address
}

// GroupRequest creates or renames a customer group
type GroupRequest struct {
	Name     string         `json:"name" binding:"required,max=100"`
	Metadata map[string]any `json:"metadata"`
}

// CustomerIDsRequest lists customers to add to or remove from a group
type CustomerIDsRequest struct {
	CustomerIDs []uuid.UUID `json:"customer_ids" binding:"required,min=1"`
}

// AddressResponse represents a saved address
type AddressResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"address_name,omitempty"`
	IsDefaultShipping bool      `json:"is_default_shipping"`
	IsDefaultBilling  bool      `json:"is_default_billing"`
	valueobject.Address
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID         uuid.UUID         `json:"id"`
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Phone      string            `json:"phone,omitempty"`
	HasAccount bool              `json:"has_account"`
	GroupIDs   []uuid.UUID       `json:"group_ids"`
	Addresses  []AddressResponse `json:"addresses"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// GroupResponse represents a customer group
type GroupResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	addresses := make([]AddressResponse, len(c.Addresses))
	for i, a := range c.Addresses {
		addresses[i] = AddressResponse{
			ID:                a.ID,
			Name:              a.Name,
			IsDefaultShipping: a.IsDefaultShipping,
			IsDefaultBilling:  a.IsDefaultBilling,
			Address:           a.Address,
		}
	}
	return CustomerResponse{
		ID:         c.ID,
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Phone:      c.Phone,
		HasAccount: c.HasAccount,
		GroupIDs:   c.GroupIDs,
		Addresses:  addresses,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toGroupResponse(g *customer.Group) GroupResponse {
	return GroupResponse{ID: g.ID, Name: g.Name, Metadata: g.Metadata, CreatedAt: g.CreatedAt}
}

// Service handles customer and customer group operations
type Service struct {
	customerRepo customer.Repository
	groupRepo    customer.GroupRepository
	logger       *zap.Logger
}

// NewService creates a new customer Service
func NewService(customerRepo customer.Repository, groupRepo customer.GroupRepository, logger *zap.Logger) *Service {
	return &Service{customerRepo: customerRepo, groupRepo: groupRepo, logger: logger}
}

// Create creates a customer. Registered customers must have a unique email;
// guest records may share one.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	c, err := customer.NewCustomer(req.Email, req.FirstName, req.LastName, req.Phone, req.HasAccount)
	if err != nil {
		return nil, err
	}
	if c.HasAccount {
		if err := s.ensureEmailFree(ctx, c.Email, nil); err != nil {
			return nil, err
		}
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("customer created", zap.String("customer_id", c.ID.String()), zap.Bool("has_account", c.HasAccount))
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// FindOrCreateGuest returns the customer registered under email, creating a guest record when none exists
func (s *Service) FindOrCreateGuest(ctx context.Context, email string) (*customer.Customer, error) {
	c, err := s.customerRepo.FindByEmail(ctx, email)
	if err == nil {
		return c, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	c, err = customer.NewCustomer(email, "", "", "", false)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID returns a customer
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// List lists customers
func (s *Service) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[CustomerResponse], error) {
	q = q.Normalize()
	rows, total, err := s.customerRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[CustomerResponse]{}, err
	}
	items := make([]CustomerResponse, len(rows))
	for i, c := range rows {
		items[i] = ToCustomerResponse(c)
	}
	return shared.NewListResult(items, total, q), nil
}

// Update applies a partial update
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	email, first, last, phone := c.Email, c.FirstName, c.LastName, c.Phone
	if req.Email != nil {
		email = *req.Email
	}
	if req.FirstName != nil {
		first = *req.FirstName
	}
	if req.LastName != nil {
		last = *req.LastName
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if c.HasAccount && shared.NormalizeEmail(email) != c.Email {
		if err := s.ensureEmailFree(ctx, email, &c.ID); err != nil {
			return nil, err
		}
	}
	if err := c.Update(email, first, last, phone); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// Delete soft deletes a customer
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.customerRepo.Delete(ctx, id)
}

// AddAddress saves an address on a customer
func (s *Service) AddAddress(ctx context.Context, id uuid.UUID, req AddressRequest) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := c.AddAddress(customer.Address{
		Name:              req.Name,
		IsDefaultShipping: req.IsDefaultShipping,
		IsDefaultBilling:  req.IsDefaultBilling,
		Address:           req.Address,
	}); err != nil {
		return nil, err
	}
	c.IncrementVersion()
	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// RemoveAddress deletes a saved address
func (s *Service) RemoveAddress(ctx context.Context, id, addressID uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveAddress(addressID); err != nil {
		return nil, err
	}
	c.IncrementVersion()
	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// CreateGroup creates a customer group with a unique name
func (s *Service) CreateGroup(ctx context.Context, req GroupRequest) (*GroupResponse, error) {
	g, err := customer.NewGroup(req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureGroupNameFree(ctx, g.Name, nil); err != nil {
		return nil, err
	}
	g.Metadata = req.Metadata
	if err := s.groupRepo.Create(ctx, g); err != nil {
		return nil, err
	}
	resp := toGroupResponse(g)
	return &resp, nil
}

// GetGroup returns a customer group
func (s *Service) GetGroup(ctx context.Context, id uuid.UUID) (*GroupResponse, error) {
	g, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toGroupResponse(g)
	return &resp, nil
}

// UpdateGroup renames a customer group
func (s *Service) UpdateGroup(ctx context.Context, id uuid.UUID, req GroupRequest) (*GroupResponse, error) {
	g, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	renamed, err := customer.NewGroup(req.Name)
	if err != nil {
		return nil, err
	}
	if renamed.Name != g.Name {
		if err := s.ensureGroupNameFree(ctx, renamed.Name, &g.ID); err != nil {
			return nil, err
		}
	}
	g.Name = renamed.Name
	if req.Metadata != nil {
		g.Metadata = req.Metadata
	}
	g.Touch()
	if err := s.groupRepo.Update(ctx, g); err != nil {
		return nil, err
	}
	resp := toGroupResponse(g)
	return &resp, nil
}

// DeleteGroup soft deletes a customer group
func (s *Service) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return s.groupRepo.Delete(ctx, id)
}

// ListGroups lists customer groups
func (s *Service) ListGroups(ctx context.Context, q shared.ListQuery) (shared.ListResult[GroupResponse], error) {
	q = q.Normalize()
	rows, total, err := s.groupRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[GroupResponse]{}, err
	}
	items := make([]GroupResponse, len(rows))
	for i, g := range rows {
		items[i] = toGroupResponse(g)
	}
	return shared.NewListResult(items, total, q), nil
}

// AddCustomersToGroup adds customers to a group. Unknown customers are reported by index.
func (s *Service) AddCustomersToGroup(ctx context.Context, groupID uuid.UUID, req CustomerIDsRequest) error {
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		return err
	}
	if err := s.ensureCustomersExist(ctx, req.CustomerIDs); err != nil {
		return err
	}
	return s.groupRepo.AddCustomers(ctx, groupID, req.CustomerIDs)
}

// RemoveCustomersFromGroup removes customers from a group
func (s *Service) RemoveCustomersFromGroup(ctx context.Context, groupID uuid.UUID, req CustomerIDsRequest) error {
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		return err
	}
	return s.groupRepo.RemoveCustomers(ctx, groupID, req.CustomerIDs)
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, excludeID *uuid.UUID) error {
	existing, err := s.customerRepo.FindByEmail(ctx, email)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.HasAccount && (excludeID == nil || existing.ID != *excludeID) {
		return shared.NewNotUniqueError("Customer", "email", existing.Email)
	}
	return nil
}

func (s *Service) ensureGroupNameFree(ctx context.Context, name string, excludeID *uuid.UUID) error {
	existing, err := s.groupRepo.FindByName(ctx, name)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if excludeID == nil || existing.ID != *excludeID {
		return shared.NewNotUniqueError("CustomerGroup", "name", name)
	}
	return nil
}

func (s *Service) ensureCustomersExist(ctx context.Context, ids []uuid.UUID) error {
	var v shared.Validator
	for i, id := range ids {
		_, err := s.customerRepo.FindByID(ctx, id)
		if shared.IsNotFound(err) {
			v.Add(shared.ValidationIssue{Type: shared.IssueNotFound, Message: "customer " + id.String() + " was not found", Path: "customer_ids." + strconv.Itoa(i)})
			continue
		}
		if err != nil {
			return err
		}
	}
	return v.Err()
}

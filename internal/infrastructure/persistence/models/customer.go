package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/customer"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CustomerModel is the persistence model for customers.
type CustomerModel struct {
	AggregateModel
	Email      string `gorm:"type:varchar(200);not null;index"`
	FirstName  string `gorm:"type:varchar(100)"`
	LastName   string `gorm:"type:varchar(100)"`
	Phone      string `gorm:"type:varchar(50)"`
	HasAccount bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model; addresses and groups are attached by the repository.
func (m *CustomerModel) ToDomain(addresses []CustomerAddressModel, groupIDs []uuid.UUID) *customer.Customer {
	c := &customer.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		HasAccount:        m.HasAccount,
		GroupIDs:          groupIDs,
		Addresses:         make([]customer.Address, len(addresses)),
	}
	if c.GroupIDs == nil {
		c.GroupIDs = make([]uuid.UUID, 0)
	}
	for i, a := range addresses {
		c.Addresses[i] = a.ToDomain()
	}
	return c
}

// CustomerModelFromDomain creates a persistence model from a domain Customer.
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Phone:      c.Phone,
		HasAccount: c.HasAccount,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// CustomerAddressModel is a saved address of a customer.
type CustomerAddressModel struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name              string              `gorm:"type:varchar(100)"`
	IsDefaultShipping bool                `gorm:"not null;default:false"`
	IsDefaultBilling  bool                `gorm:"not null;default:false"`
	Address           valueobject.Address `gorm:"type:jsonb"`
	CreatedAt         time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerAddressModel) TableName() string {
	return "customer_addresses"
}

// ToDomain converts the persistence model to a domain Address.
func (m *CustomerAddressModel) ToDomain() customer.Address {
	return customer.Address{
		ID:                m.ID,
		Name:              m.Name,
		IsDefaultShipping: m.IsDefaultShipping,
		IsDefaultBilling:  m.IsDefaultBilling,
		Address:           m.Address,
	}
}

// CustomerAddressModelFromDomain creates a persistence model for an address of customerID.
func CustomerAddressModelFromDomain(customerID uuid.UUID, a customer.Address) CustomerAddressModel {
	return CustomerAddressModel{
		ID:                a.ID,
		CustomerID:        customerID,
		Name:              a.Name,
		IsDefaultShipping: a.IsDefaultShipping,
		IsDefaultBilling:  a.IsDefaultBilling,
		Address:           a.Address,
		CreatedAt:         time.Now(),
	}
}

// CustomerGroupModel is the persistence model for customer groups.
type CustomerGroupModel struct {
	BaseModel
	Name     string  `gorm:"type:varchar(200);not null"`
	Metadata JSONMap `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CustomerGroupModel) TableName() string {
	return "customer_groups"
}

// ToDomain converts the persistence model to a domain Group.
func (m *CustomerGroupModel) ToDomain() *customer.Group {
	return &customer.Group{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name, Metadata: m.Metadata}
}

// CustomerGroupModelFromDomain creates a persistence model from a domain Group.
func CustomerGroupModelFromDomain(g *customer.Group) *CustomerGroupModel {
	m := &CustomerGroupModel{Name: g.Name, Metadata: g.Metadata}
	m.FromDomainBaseEntity(g.BaseEntity)
	return m
}

// CustomerGroupMemberModel links customers to groups.
type CustomerGroupMemberModel struct {
	CustomerGroupID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerGroupMemberModel) TableName() string {
	return "customer_group_customers"
}

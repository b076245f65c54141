package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/customer"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var customerListSpec = ListSpec{
	SortFields: map[string]string{
		"email":      "email",
		"first_name": "first_name",
		"last_name":  "last_name",
		"created_at": "created_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"email", "first_name", "last_name", "phone"},
	FilterColumns: map[string]string{
		"email":       "email",
		"has_account": "has_account",
		"created_at":  "created_at",
	},
	Filters: map[string]FilterFunc{
		"group_id": func(db *gorm.DB, value any) *gorm.DB {
			sub := db.Session(&gorm.Session{NewDB: true}).
				Model(&models.CustomerGroupMemberModel{}).Select("customer_id")
			if isList(value) {
				sub = sub.Where("customer_group_id IN ?", toSlice(value))
			} else {
				sub = sub.Where("customer_group_id = ?", value)
			}
			return db.Where("id IN (?)", sub)
		},
	},
}

var customerGroupListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultOrder:  "name ASC",
	SearchColumns: []string{"name"},
	FilterColumns: map[string]string{
		"name": "name",
	},
}

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

var _ customer.Repository = (*GormCustomerRepository)(nil)

// Create inserts the customer with its addresses and group memberships
func (r *GormCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.CustomerModelFromDomain(c)).Error; err != nil {
			return translateWriteError(err, "Customer", "email", c.Email)
		}
		if err := r.replaceAddresses(tx, c); err != nil {
			return err
		}
		return addGroupMembers(tx, c.GroupIDs, []uuid.UUID{c.ID})
	})
}

// Update writes the customer and replaces its addresses. Group membership is
// managed through the group repository.
func (r *GormCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(ctx, tx, models.CustomerModelFromDomain(c), "Customer", c.ID); err != nil {
			return translateWriteError(err, "Customer", "email", c.Email)
		}
		return r.replaceAddresses(tx, c)
	})
}

func (r *GormCustomerRepository) replaceAddresses(tx *gorm.DB, c *customer.Customer) error {
	if err := tx.Where("customer_id = ?", c.ID).Delete(&models.CustomerAddressModel{}).Error; err != nil {
		return err
	}
	if len(c.Addresses) == 0 {
		return nil
	}
	rows := make([]models.CustomerAddressModel, len(c.Addresses))
	for i, a := range c.Addresses {
		rows[i] = models.CustomerAddressModelFromDomain(c.ID, a)
	}
	return tx.Create(&rows).Error
}

// Delete soft deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id), "Customer", id)
}

// FindByID loads a customer with addresses and groups
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Customer", id)
	}
	return r.hydrateOne(ctx, &model)
}

// FindByEmail finds a customer by email, case-insensitively
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	email = shared.NormalizeEmail(email)
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		Order("has_account DESC, created_at ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err, "Customer", email)
	}
	return r.hydrateOne(ctx, &model)
}

// List returns one page of customers
func (r *GormCustomerRepository) List(ctx context.Context, q shared.ListQuery) ([]*customer.Customer, int64, error) {
	rows, total, err := listPage[models.CustomerModel](ctx, r.db, q, customerListSpec)
	if err != nil {
		return nil, 0, err
	}
	out, err := r.hydrate(ctx, rows)
	return out, total, err
}

func (r *GormCustomerRepository) hydrateOne(ctx context.Context, model *models.CustomerModel) (*customer.Customer, error) {
	out, err := r.hydrate(ctx, []models.CustomerModel{*model})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *GormCustomerRepository) hydrate(ctx context.Context, rows []models.CustomerModel) ([]*customer.Customer, error) {
	out := make([]*customer.Customer, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	var addresses []models.CustomerAddressModel
	if err := r.db.WithContext(ctx).Where("customer_id IN ?", ids).Order("created_at").Find(&addresses).Error; err != nil {
		return nil, err
	}
	byCustomer := make(map[uuid.UUID][]models.CustomerAddressModel, len(rows))
	for _, a := range addresses {
		byCustomer[a.CustomerID] = append(byCustomer[a.CustomerID], a)
	}

	var members []models.CustomerGroupMemberModel
	if err := r.db.WithContext(ctx).Where("customer_id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	groups := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, m := range members {
		groups[m.CustomerID] = append(groups[m.CustomerID], m.CustomerGroupID)
	}

	for i := range rows {
		out[i] = rows[i].ToDomain(byCustomer[rows[i].ID], groups[rows[i].ID])
	}
	return out, nil
}

// GormCustomerGroupRepository implements customer.GroupRepository using GORM
type GormCustomerGroupRepository struct {
	db *gorm.DB
}

// NewGormCustomerGroupRepository creates a new GormCustomerGroupRepository
func NewGormCustomerGroupRepository(db *gorm.DB) *GormCustomerGroupRepository {
	return &GormCustomerGroupRepository{db: db}
}

var _ customer.GroupRepository = (*GormCustomerGroupRepository)(nil)

// Create creates a customer group
func (r *GormCustomerGroupRepository) Create(ctx context.Context, g *customer.Group) error {
	err := r.db.WithContext(ctx).Create(models.CustomerGroupModelFromDomain(g)).Error
	return translateWriteError(err, "CustomerGroup", "name", g.Name)
}

// Update updates a customer group
func (r *GormCustomerGroupRepository) Update(ctx context.Context, g *customer.Group) error {
	err := updateRow(ctx, r.db, models.CustomerGroupModelFromDomain(g), "CustomerGroup", g.ID)
	return translateWriteError(err, "CustomerGroup", "name", g.Name)
}

// Delete soft deletes the group and removes its memberships
func (r *GormCustomerGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAffected(tx.Delete(&models.CustomerGroupModel{}, "id = ?", id), "CustomerGroup", id); err != nil {
			return err
		}
		return tx.Where("customer_group_id = ?", id).Delete(&models.CustomerGroupMemberModel{}).Error
	})
}

// FindByID finds a group by ID
func (r *GormCustomerGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Group, error) {
	var model models.CustomerGroupModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "CustomerGroup", id)
	}
	return model.ToDomain(), nil
}

// FindByName finds a group by name, case-insensitively
func (r *GormCustomerGroupRepository) FindByName(ctx context.Context, name string) (*customer.Group, error) {
	var model models.CustomerGroupModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		return nil, translateError(err, "CustomerGroup", name)
	}
	return model.ToDomain(), nil
}

// List returns one page of groups
func (r *GormCustomerGroupRepository) List(ctx context.Context, q shared.ListQuery) ([]*customer.Group, int64, error) {
	rows, total, err := listPage[models.CustomerGroupModel](ctx, r.db, q, customerGroupListSpec)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*customer.Group, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// AddCustomers adds customers to the group; existing members are ignored
func (r *GormCustomerGroupRepository) AddCustomers(ctx context.Context, groupID uuid.UUID, customerIDs []uuid.UUID) error {
	return addGroupMembers(r.db.WithContext(ctx), []uuid.UUID{groupID}, customerIDs)
}

// RemoveCustomers removes customers from the group
func (r *GormCustomerGroupRepository) RemoveCustomers(ctx context.Context, groupID uuid.UUID, customerIDs []uuid.UUID) error {
	if len(customerIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("customer_group_id = ? AND customer_id IN ?", groupID, customerIDs).
		Delete(&models.CustomerGroupMemberModel{}).Error
}

func addGroupMembers(db *gorm.DB, groupIDs, customerIDs []uuid.UUID) error {
	if len(groupIDs) == 0 || len(customerIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.CustomerGroupMemberModel, 0, len(groupIDs)*len(customerIDs))
	for _, g := range groupIDs {
		for _, c := range customerIDs {
			rows = append(rows, models.CustomerGroupMemberModel{CustomerGroupID: g, CustomerID: c, CreatedAt: now})
		}
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

package persistence

import (
	"context"
	"strings"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var roleListSpec = ListSpec{
	SortFields: map[string]string{
		"name":       "name",
		"created_at": "created_at",
	},
	DefaultOrder:  "name ASC",
	SearchColumns: []string{"name", "description"},
	FilterColumns: map[string]string{
		"is_system_role": "is_system_role",
		"name":           "name",
	},
}

// GormRoleRepository implements RoleRepository using GORM
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

var _ identity.RoleRepository = (*GormRoleRepository)(nil)

// Create creates a new role
func (r *GormRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	err := r.db.WithContext(ctx).Create(models.RoleModelFromDomain(role)).Error
	return translateWriteError(err, "Role", "name", role.Name)
}

// Update updates an existing role
func (r *GormRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	err := updateRow(ctx, r.db, models.RoleModelFromDomain(role), "Role", role.ID)
	return translateWriteError(err, "Role", "name", role.Name)
}

// Delete soft deletes the role and drops its user assignments
func (r *GormRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		return checkAffected(tx.Delete(&models.RoleModel{}, "id = ?", id), "Role", id)
	})
}

// FindByID finds a role by ID
func (r *GormRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Role", id)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the roles that exist among ids
func (r *GormRoleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Role, error) {
	if len(ids) == 0 {
		return []*identity.Role{}, nil
	}
	var rows []models.RoleModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]*identity.Role, len(rows))
	for i := range rows {
		roles[i] = rows[i].ToDomain()
	}
	return roles, nil
}

// FindByName finds a role by name, case-insensitively
func (r *GormRoleRepository) FindByName(ctx context.Context, name string) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Role", name)
	}
	return model.ToDomain(), nil
}

// List returns one page of roles
func (r *GormRoleRepository) List(ctx context.Context, q shared.ListQuery) ([]*identity.Role, int64, error) {
	rows, total, err := listPage[models.RoleModel](ctx, r.db, q, roleListSpec)
	if err != nil {
		return nil, 0, err
	}
	roles := make([]*identity.Role, len(rows))
	for i := range rows {
		roles[i] = rows[i].ToDomain()
	}
	return roles, total, nil
}

// CountUsers returns how many live users hold the role
func (r *GormRoleRepository) CountUsers(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Joins("JOIN users ON users.id = user_roles.user_id AND users.deleted_at IS NULL").
		Where("user_roles.role_id = ?", roleID).
		Count(&count).Error
	return count, err
}

package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var userListSpec = ListSpec{
	SortFields: map[string]string{
		"email":         "email",
		"first_name":    "first_name",
		"last_name":     "last_name",
		"created_at":    "created_at",
		"last_login_at": "last_login_at",
	},
	DefaultOrder:  "created_at DESC",
	SearchColumns: []string{"email", "first_name", "last_name"},
	FilterColumns: map[string]string{
		"status":     "status",
		"email":      "email",
		"created_at": "created_at",
	},
	Filters: map[string]FilterFunc{
		"role_id": func(db *gorm.DB, value any) *gorm.DB {
			return db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.UserRoleModel{}).Select("user_id").Where("role_id = ?", value))
		},
	},
}

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

var _ identity.UserRepository = (*GormUserRepository)(nil)

// Create inserts the user and its role assignments
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			return translateWriteError(err, "User", "email", user.Email)
		}
		return r.replaceRoles(tx, user.ID, user.RoleIDs)
	})
}

// Update writes the user and replaces its role assignments
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(ctx, tx, models.UserModelFromDomain(user), "User", user.ID); err != nil {
			return translateWriteError(err, "User", "email", user.Email)
		}
		return r.replaceRoles(tx, user.ID, user.RoleIDs)
	})
}

func (r *GormUserRepository) replaceRoles(tx *gorm.DB, userID uuid.UUID, roleIDs []uuid.UUID) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRoleModel{}).Error; err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.UserRoleModel, len(roleIDs))
	for i, id := range roleIDs {
		rows[i] = models.UserRoleModel{UserID: userID, RoleID: id, CreatedAt: now}
	}
	return tx.Create(&rows).Error
}

// Delete soft deletes a user. Role assignments are kept so a restore is lossless.
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.UserModel{}, "id = ?", id)
	return checkAffected(result, "User", id)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return r.withRoles(ctx, &model)
}

// FindByEmail finds a user by email, case-insensitively
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = shared.NormalizeEmail(email)
	if email == "" {
		return nil, shared.NewNotFoundError("User", email)
	}
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		First(&model).Error; err != nil {
		return nil, translateError(err, "User", email)
	}
	return r.withRoles(ctx, &model)
}

// ExistsByEmail reports whether a live user already uses email
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// List returns one page of users and the total match count
func (r *GormUserRepository) List(ctx context.Context, q shared.ListQuery) ([]*identity.User, int64, error) {
	rows, total, err := listPage[models.UserModel](ctx, r.db, q, userListSpec)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	roles, err := r.loadRoleIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
		if ids, ok := roles[rows[i].ID]; ok {
			users[i].RoleIDs = ids
		}
	}
	return users, total, nil
}

func (r *GormUserRepository) withRoles(ctx context.Context, model *models.UserModel) (*identity.User, error) {
	roles, err := r.loadRoleIDs(ctx, []uuid.UUID{model.ID})
	if err != nil {
		return nil, err
	}
	user := model.ToDomain()
	if ids, ok := roles[model.ID]; ok {
		user.RoleIDs = ids
	}
	return user, nil
}

func (r *GormUserRepository) loadRoleIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var rows []models.UserRoleModel
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.UserID] = append(result[row.UserID], row.RoleID)
	}
	return result, nil
}

package persistence

import (
	"context"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateRow writes every column of model except created_at.
// Soft-deleted rows are not matched, so a deleted id reports not found.
func updateRow(ctx context.Context, db *gorm.DB, model any, entity string, id uuid.UUID) error {
	result := db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(model)
	return checkAffected(result, entity, id)
}

// updateVersioned writes model only if the stored version still equals
// expected. A stale version yields ErrConcurrencyConflict.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, entity string, id uuid.UUID, expected int) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("version = ?", expected).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError(entity, id)
	}
	return shared.ErrConcurrencyConflict
}

// isPostgres reports whether row locks are supported by the dialect
func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// forUpdate adds SELECT ... FOR UPDATE on postgres and is a no-op elsewhere
func forUpdate(db *gorm.DB) *gorm.DB {
	if isPostgres(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

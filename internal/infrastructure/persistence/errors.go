package persistence

import (
	"errors"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors onto domain errors.
// entity and id are used for not-found messages; field and value for uniqueness violations.
func translateError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, id)
	}
	return err
}

// uniqueViolation reports whether err is a unique constraint failure.
// TranslateError covers postgres; the string checks catch sqlite and raw driver errors.
func uniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}

// translateWriteError turns a uniqueness failure into a not_unique validation error.
func translateWriteError(err error, entity, field string, value any) error {
	if uniqueViolation(err) {
		return shared.NewNotUniqueError(entity, field, value)
	}
	return err
}

// checkAffected returns not found when a write touched no rows
func checkAffected(result *gorm.DB, entity string, id any) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(entity, id)
	}
	return nil
}

package persistence

import (
	"context"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSessionRepository implements SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

var _ identity.SessionRepository = (*GormSessionRepository)(nil)

// Create stores a new session
func (r *GormSessionRepository) Create(ctx context.Context, session *identity.Session) error {
	return r.db.WithContext(ctx).Create(models.SessionModelFromDomain(session)).Error
}

// Update writes the session, e.g. after a refresh rotation or logout
func (r *GormSessionRepository) Update(ctx context.Context, session *identity.Session) error {
	return updateRow(ctx, r.db, models.SessionModelFromDomain(session), "Session", session.ID)
}

// FindByID finds a session by ID
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	var model models.SessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Session", id)
	}
	return model.ToDomain(), nil
}

// FindActiveByUser returns the user's sessions that are usable at now, newest first
func (r *GormSessionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*identity.Session, error) {
	var rows []models.SessionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND logged_out_at IS NULL AND expires_at > ?", userID, now).
		Order("last_used_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sessions := make([]*identity.Session, len(rows))
	for i := range rows {
		sessions[i] = rows[i].ToDomain()
	}
	return sessions, nil
}

// LogoutAllForUser marks every active session of the user as logged out, except keep
func (r *GormSessionRepository) LogoutAllForUser(ctx context.Context, userID uuid.UUID, keep *uuid.UUID, now time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("user_id = ? AND logged_out_at IS NULL AND expires_at > ?", userID, now)
	if keep != nil {
		query = query.Where("id <> ?", *keep)
	}
	result := query.Updates(map[string]any{"logged_out_at": now, "updated_at": now})
	return result.RowsAffected, result.Error
}

// DeleteStale removes sessions that expired or were logged out before cutoff
func (r *GormSessionRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR (logged_out_at IS NOT NULL AND logged_out_at < ?)", cutoff, cutoff).
		Delete(&models.SessionModel{})
	return result.RowsAffected, result.Error
}

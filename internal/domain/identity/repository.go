package identity

import (
	"context"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	// Delete soft deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, q shared.ListQuery) ([]*User, int64, error)
}

// RoleRepository defines the interface for role persistence
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Role, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context, q shared.ListQuery) ([]*Role, int64, error)
	// CountUsers returns how many users hold the role
	CountUsers(ctx context.Context, roleID uuid.UUID) (int64, error)
}

// SessionRepository persists login sessions
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Update(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// FindActiveByUser returns sessions that are neither logged out nor expired at now
	FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*Session, error)
	// LogoutAllForUser sets logged_out_at on every active session except keep
	LogoutAllForUser(ctx context.Context, userID uuid.UUID, keep *uuid.UUID, now time.Time) (int64, error)
	// DeleteStale removes sessions that expired or were logged out before cutoff
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

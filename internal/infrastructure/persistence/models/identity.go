package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Email             string              `gorm:"type:varchar(200);not null"`
	PasswordHash      string              `gorm:"type:varchar(255);not null"`
	FirstName         string              `gorm:"type:varchar(100)"`
	LastName          string              `gorm:"type:varchar(100)"`
	AvatarURL         string              `gorm:"type:varchar(500)"`
	Status            identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt       *time.Time
	LastLoginIP       string `gorm:"type:varchar(45)"`
	FailedAttempts    int    `gorm:"not null;default:0"`
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
// RoleIDs are loaded separately by the repository.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		AvatarURL:         m.AvatarURL,
		Status:            m.Status,
		RoleIDs:           make([]uuid.UUID, 0),
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		PasswordChangedAt: m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.AvatarURL = u.AvatarURL
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// UserRoleModel is the persistence model for the user/role relationship.
type UserRoleModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserRoleModel) TableName() string {
	return "user_roles"
}

// RoleModel is the persistence model for the Role domain entity.
type RoleModel struct {
	AggregateModel
	Name         string   `gorm:"type:varchar(100);not null"`
	Description  string   `gorm:"type:varchar(500)"`
	IsSystemRole bool     `gorm:"not null;default:false"`
	Permissions  []string `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (RoleModel) TableName() string {
	return "roles"
}

// ToDomain converts the persistence model to a domain Role entity.
func (m *RoleModel) ToDomain() *identity.Role {
	perms := m.Permissions
	if perms == nil {
		perms = make([]string, 0)
	}
	return &identity.Role{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		IsSystemRole:      m.IsSystemRole,
		Permissions:       perms,
	}
}

// RoleModelFromDomain creates a new persistence model from a domain Role entity.
func RoleModelFromDomain(r *identity.Role) *RoleModel {
	m := &RoleModel{
		Name:         r.Name,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		Permissions:  r.Permissions,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// SessionModel is the persistence model for login sessions.
type SessionModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `gorm:"type:varchar(64)"`
	UserAgent        string    `gorm:"type:varchar(500)"`
	IP               string    `gorm:"type:varchar(45)"`
	ExpiresAt        time.Time `gorm:"not null;index"`
	LastUsedAt       time.Time `gorm:"not null"`
	LoggedOutAt      *time.Time
	RotationCount    int       `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}

// ToDomain converts the persistence model to a domain Session.
func (m *SessionModel) ToDomain() *identity.Session {
	s := &identity.Session{
		UserID:           m.UserID,
		RefreshTokenHash: m.RefreshTokenHash,
		UserAgent:        m.UserAgent,
		IP:               m.IP,
		ExpiresAt:        m.ExpiresAt,
		LastUsedAt:       m.LastUsedAt,
		LoggedOutAt:      m.LoggedOutAt,
		RotationCount:    m.RotationCount,
	}
	s.ID = m.ID
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt
	return s
}

// SessionModelFromDomain creates a new persistence model from a domain Session.
func SessionModelFromDomain(s *identity.Session) *SessionModel {
	return &SessionModel{
		ID:               s.ID,
		UserID:           s.UserID,
		RefreshTokenHash: s.RefreshTokenHash,
		UserAgent:        s.UserAgent,
		IP:               s.IP,
		ExpiresAt:        s.ExpiresAt,
		LastUsedAt:       s.LastUsedAt,
		LoggedOutAt:      s.LoggedOutAt,
		RotationCount:    s.RotationCount,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

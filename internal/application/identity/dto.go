package identity

import (
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email     string `json:"email" binding:"required,email" example:"admin@example.com"`
	Password  string `json:"password" binding:"required" example:"supersecret"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshInput contains the refresh token to rotate
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// LogoutInput identifies the session and access token to revoke
type LogoutInput struct {
	SessionID uuid.UUID
	AccessJTI string
	AccessTTL time.Duration // remaining lifetime of the access token
}

// LogoutAllInput revokes every session of a user
type LogoutAllInput struct {
	UserID    uuid.UUID
	AccessJTI string
	AccessTTL time.Duration
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID `json:"-"`
	SessionID   uuid.UUID `json:"-"` // kept logged in
	OldPassword string    `json:"old_password" binding:"required"`
	NewPassword string    `json:"new_password" binding:"required,min=8,max=72"`
}

// PasswordResetRequestInput asks for a reset mail
type PasswordResetRequestInput struct {
	Email string `json:"email" binding:"required,email" example:"jane@example.com"`
}

// PasswordResetConfirmInput sets a new password with a reset token
type PasswordResetConfirmInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72" example:"n3w-passw0rd"`
}

// AuthResult is returned by login and refresh
type AuthResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserInfo  `json:"user"`
}

// UserInfo is the authenticated user's profile
type UserInfo struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	FullName    string      `json:"full_name"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
	Permissions []string    `json:"permissions"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
}

// UserDTO represents a user in admin responses
type UserDTO struct {
	ID             uuid.UUID   `json:"id"`
	Email          string      `json:"email"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	AvatarURL      string      `json:"avatar_url,omitempty"`
	Status         string      `json:"status"`
	RoleIDs        []uuid.UUID `json:"role_ids"`
	FailedAttempts int         `json:"failed_attempts"`
	LockedUntil    *time.Time  `json:"locked_until,omitempty"`
	LastLoginAt    *time.Time  `json:"last_login_at,omitempty"`
	LastLoginIP    string      `json:"last_login_ip,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8,max=72"`
	FirstName string      `json:"first_name" binding:"max=100"`
	LastName  string      `json:"last_name" binding:"max=100"`
	RoleIDs   []uuid.UUID `json:"role_ids"`
}

// UpdateUserInput contains the fields to change; nil means unchanged
type UpdateUserInput struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

// RoleIDsInput lists roles to assign or remove
type RoleIDsInput struct {
	RoleIDs []uuid.UUID `json:"role_ids" binding:"required,min=1"`
}

// RoleDTO represents a role
type RoleDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsSystemRole bool      `json:"is_system_role"`
	Permissions  []string  `json:"permissions"`
	UserCount    int64     `json:"user_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRoleInput contains input for creating a role
type CreateRoleInput struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleInput replaces a role's name, description and, when set, permissions
type UpdateRoleInput struct {
	Name        string    `json:"name" binding:"required,max=100"`
	Description string    `json:"description" binding:"max=500"`
	Permissions *[]string `json:"permissions"`
}

func toUserInfo(user *identity.User, permissions []string) UserInfo {
	if permissions == nil {
		permissions = []string{}
	}
	return UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		AvatarURL:   user.AvatarURL,
		RoleIDs:     user.RoleIDs,
		Permissions: permissions,
		LastLoginAt: user.LastLoginAt,
	}
}

func toUserDTO(user *identity.User) *UserDTO {
	return &UserDTO{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		AvatarURL:      user.AvatarURL,
		Status:         string(user.Status),
		RoleIDs:        user.RoleIDs,
		FailedAttempts: user.FailedAttempts,
		LockedUntil:    user.LockedUntil,
		LastLoginAt:    user.LastLoginAt,
		LastLoginIP:    user.LastLoginIP,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func toRoleDTO(role *identity.Role) *RoleDTO {
	return &RoleDTO{
		ID:           role.ID,
		Name:         role.Name,
		Description:  role.Description,
		IsSystemRole: role.IsSystemRole,
		Permissions:  role.Permissions,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}
}

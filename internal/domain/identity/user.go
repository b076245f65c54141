package identity

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked"      // Locked due to failed attempts
	UserStatusDeactivated UserStatus = "deactivated" // Manually deactivated
)

// PasswordCost is the bcrypt cost used for new hashes
var PasswordCost = 12

var (
	passwordLetter = regexp.MustCompile(`[a-zA-Z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
)

// User is an admin user of the platform
type User struct {
	shared.BaseAggregateRoot
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	AvatarURL         string
	Status            UserStatus
	RoleIDs           []uuid.UUID
	LastLoginAt       *time.Time
	LastLoginIP       string
	FailedAttempts    int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// NewUser creates an active user
func NewUser(email, password string) (*User, error) {
	email = shared.NormalizeEmail(email)

	var v shared.Validator
	v.Check(shared.IsValidEmail(email), "email", "email must be a valid email address")
	if err := validatePassword(password); err != nil {
		v.Merge(err)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		Status:            UserStatusActive,
		RoleIDs:           make([]uuid.UUID, 0),
		PasswordChangedAt: &now,
	}
	user.AddDomainEvent(NewUserCreatedEvent(user))
	return user, nil
}

// SetName sets first and last name
func (u *User) SetName(firstName, lastName string) {
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.Touch()
	u.IncrementVersion()
}

// SetAvatar sets the avatar URL
func (u *User) SetAvatar(url string) error {
	if len(url) > 500 {
		return shared.NewInvalidDataError("avatar_url", "avatar_url cannot exceed 500 characters")
	}
	u.AvatarURL = url
	u.Touch()
	return nil
}

// FullName returns the user's display name
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// ChangePassword verifies the current password before setting a new one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	u.PasswordHash = hash
	u.PasswordChangedAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetRoles replaces the user's roles, dropping duplicates
func (u *User) SetRoles(roleIDs []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(roleIDs))
	unique := make([]uuid.UUID, 0, len(roleIDs))
	for i, rid := range roleIDs {
		if rid == uuid.Nil {
			return shared.NewInvalidDataError("role_ids."+strconv.Itoa(i), "role id cannot be empty")
		}
		if !seen[rid] {
			seen[rid] = true
			unique = append(unique, rid)
		}
	}
	u.RoleIDs = unique
	u.Touch()
	u.IncrementVersion()
	return nil
}

// HasRole checks if user has a specific role
func (u *User) HasRole(roleID uuid.UUID) bool {
	for _, rid := range u.RoleIDs {
		if rid == roleID {
			return true
		}
	}
	return false
}

// Activate activates the user and clears any lock
func (u *User) Activate() {
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
}

// Deactivate prevents the user from logging in
func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "User is already deactivated")
	}
	u.Status = UserStatusDeactivated
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Lock locks the user account for duration
func (u *User) Lock(duration time.Duration) {
	u.Status = UserStatusLocked
	if duration > 0 {
		until := time.Now().Add(duration)
		u.LockedUntil = &until
	}
	u.Touch()
	u.IncrementVersion()
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.UpdatedAt = now
	u.IncrementVersion()
}

// RecordLoginFailure records a failed login attempt.
// Returns true if the account got locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	u.IncrementVersion()

	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		u.Lock(lockDuration)
		return true
	}
	return false
}

// IsLocked returns true while a lock is in effect
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	if u.LockedUntil != nil && time.Now().After(*u.LockedUntil) {
		return false
	}
	return true
}

// CanLogin returns true if user can login
func (u *User) CanLogin() bool {
	if u.Status == UserStatusDeactivated || u.IsDeleted() {
		return false
	}
	return !u.IsLocked()
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}

func validatePassword(password string) error {
	switch {
	case len(password) < 8:
		return shared.NewInvalidDataError("password", "password must be at least 8 characters")
	case len(password) > 72:
		return shared.NewInvalidDataError("password", "password cannot exceed 72 characters")
	case !passwordLetter.MatchString(password) || !passwordDigit.MatchString(password):
		return shared.NewInvalidDataError("password", "password must contain at least one letter and one number")
	}
	return nil
}

package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Session is the server-side record backing a refresh token.
// A session is active while LoggedOutAt is unset and now is before ExpiresAt.
type Session struct {
	shared.BaseEntity
	UserID           uuid.UUID
	RefreshTokenHash string
	UserAgent        string
	IP               string
	ExpiresAt        time.Time
	LastUsedAt       time.Time
	LoggedOutAt      *time.Time
	RotationCount    int
}

// NewSession opens a session for a user
func NewSession(userID uuid.UUID, ttl time.Duration, userAgent, ip string) *Session {
	base := shared.NewBaseEntity()
	if len(userAgent) > 500 {
		userAgent = userAgent[:500]
	}
	return &Session{
		BaseEntity: base,
		UserID:     userID,
		UserAgent:  userAgent,
		IP:         ip,
		ExpiresAt:  base.CreatedAt.Add(ttl),
		LastUsedAt: base.CreatedAt,
	}
}

// IsActive reports whether the session can still authenticate requests
func (s *Session) IsActive(now time.Time) bool {
	return s.LoggedOutAt == nil && now.Before(s.ExpiresAt)
}

// SetRefreshToken stores the hash of the current refresh token
func (s *Session) SetRefreshToken(token string) {
	s.RefreshTokenHash = HashToken(token)
}

// MatchesRefreshToken compares token against the stored hash in constant time
func (s *Session) MatchesRefreshToken(token string) bool {
	if s.RefreshTokenHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.RefreshTokenHash), []byte(HashToken(token))) == 1
}

// Rotate replaces the refresh token. With sliding set the expiry moves to now+ttl.
func (s *Session) Rotate(token string, now time.Time, ttl time.Duration, sliding bool) error {
	if !s.IsActive(now) {
		return ErrSessionInactive
	}
	s.SetRefreshToken(token)
	s.RotationCount++
	s.LastUsedAt = now
	if sliding {
		s.ExpiresAt = now.Add(ttl)
	}
	s.UpdatedAt = now
	return nil
}

// Logout ends the session. Logging out twice keeps the first timestamp.
func (s *Session) Logout(now time.Time) {
	if s.LoggedOutAt != nil {
		return
	}
	s.LoggedOutAt = &now
	s.UpdatedAt = now
}

// HashToken returns the hex SHA-256 digest of a token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Session errors
var (
	ErrSessionInactive = shared.NewDomainError("SESSION_INACTIVE", "Session has expired or was logged out")
	ErrTokenReused     = shared.NewDomainError("TOKEN_REUSED", "Refresh token was already used; session revoked")
)

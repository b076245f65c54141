// Package auth issues and verifies the JWTs used by the API and keeps the
// revocation list of access tokens.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes the purposes a token can be used for
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeReset   TokenType = "password_reset"
)

// Token errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims are the claims carried by every token. Access and refresh tokens
// carry the session id in "sid"; reset tokens carry a fingerprint of the
// password hash so they die once the password changes.
type Claims struct {
	jwt.RegisteredClaims
	SessionID   string    `json:"sid,omitempty"`
	Email       string    `json:"email,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	Fingerprint string    `json:"fpr,omitempty"`
	TokenType   TokenType `json:"typ"`
}

// UserID parses the subject
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// SessionUUID parses the session id
func (c *Claims) SessionUUID() (uuid.UUID, error) {
	return uuid.Parse(c.SessionID)
}

// RemainingTTL returns the time until the token expires, never negative
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(c.ExpiresAt.Sub(now), 0)
}

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// PairInput identifies whom a token pair is issued to
type PairInput struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Email       string
	Permissions []string
	// RefreshExpiresAt caps the refresh token, normally the session expiry
	RefreshExpiresAt time.Time
}

// JWTService signs and verifies tokens with HMAC-SHA256
type JWTService struct {
	accessSecret      []byte
	refreshSecret     []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	issuer            string
	now               func() time.Time
}

// NewJWTService creates a JWT service. The refresh secret falls back to the access secret.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		accessSecret:      []byte(cfg.Secret),
		refreshSecret:     []byte(refreshSecret),
		accessExpiration:  cfg.AccessTokenExpiration,
		refreshExpiration: cfg.RefreshTokenExpiration,
		issuer:            cfg.Issuer,
		now:               time.Now,
	}
}

// AccessTokenExpiration returns the access token lifetime
func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.accessExpiration
}

// IssuePair creates a new access and refresh token for a session
func (s *JWTService) IssuePair(in PairInput) (*TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.accessExpiration)
	refreshExp := now.Add(s.refreshExpiration)
	if !in.RefreshExpiresAt.IsZero() && in.RefreshExpiresAt.Before(refreshExp) {
		refreshExp = in.RefreshExpiresAt
	}
	if accessExp.After(refreshExp) {
		accessExp = refreshExp
	}

	access, err := s.sign(&Claims{
		RegisteredClaims: s.registered(in.UserID, now, accessExp),
		SessionID:        in.SessionID.String(),
		Email:            in.Email,
		Permissions:      in.Permissions,
		TokenType:        TokenTypeAccess,
	}, s.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(&Claims{
		RegisteredClaims: s.registered(in.UserID, now, refreshExp),
		SessionID:        in.SessionID.String(),
		TokenType:        TokenTypeRefresh,
	}, s.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

// IssueResetToken creates a password reset token bound to the current password hash
func (s *JWTService) IssueResetToken(userID uuid.UUID, email, passwordHash string, ttl time.Duration) (string, error) {
	now := s.now()
	return s.sign(&Claims{
		RegisteredClaims: s.registered(userID, now, now.Add(ttl)),
		Email:            email,
		Fingerprint:      Fingerprint(passwordHash),
		TokenType:        TokenTypeReset,
	}, s.refreshSecret)
}

// ValidateAccessToken verifies an access token
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, s.accessSecret, TokenTypeAccess)
}

// ValidateRefreshToken verifies a refresh token
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, s.refreshSecret, TokenTypeRefresh)
}

// ValidateResetToken verifies a password reset token
func (s *JWTService) ValidateResetToken(token string) (*Claims, error) {
	return s.validate(token, s.refreshSecret, TokenTypeReset)
}

// Fingerprint returns a short digest of a password hash
func Fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (s *JWTService) registered(userID uuid.UUID, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (s *JWTService) sign(claims *Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *JWTService) validate(tokenString string, secret []byte, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidTokenType
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if expected != TokenTypeReset {
		if _, err := claims.SessionUUID(); err != nil {
			return nil, ErrInvalidClaims
		}
	}
	return claims, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/auth"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auth error codes
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	ErrAccountInactive    = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	ErrTokenInvalid       = shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	ErrResetTokenInvalid  = shared.NewDomainError("RESET_TOKEN_INVALID", "Password reset link is invalid or was already used")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
	SessionTTL       time.Duration
	SlidingSessions  bool
	ResetTokenTTL    time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
		SessionTTL:       7 * 24 * time.Hour,
		SlidingSessions:  true,
		ResetTokenTTL:    time.Hour,
	}
}

// AuthServiceConfigFrom builds the service config from application config
func AuthServiceConfigFrom(sessionCfg config.SessionConfig, authCfg config.AuthConfig) AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: authCfg.MaxLoginAttempts,
		LockDuration:     authCfg.LockDuration,
		SessionTTL:       sessionCfg.TTL,
		SlidingSessions:  sessionCfg.Sliding,
		ResetTokenTTL:    authCfg.ResetTokenTTL,
	}
}

// AuthService handles authentication and server-side sessions
type AuthService struct {
	userRepo    identity.UserRepository
	roleRepo    identity.RoleRepository
	sessionRepo identity.SessionRepository
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	sessions    cache.SessionCache
	events      shared.EventPublisher
	config      AuthServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	sessionRepo identity.SessionRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	sessions cache.SessionCache,
	events shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		sessionRepo: sessionRepo,
		jwtService:  jwtService,
		blacklist:   blacklist,
		sessions:    sessions,
		events:      events,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// Login authenticates a user, opens a session and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := shared.NormalizeEmail(input.Email)
	s.logger.Info("Login attempt", zap.String("email", email), zap.String("ip", input.IP))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("User not found during login", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("email", email))
			return nil, ErrAccountLocked
		}
		s.logger.Warn("Login attempt for deactivated account", zap.String("email", email))
		return nil, ErrAccountInactive
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", email),
				zap.Int("attempts", user.FailedAttempts))
			return nil, ErrAccountLocked
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("email", email),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, ErrInvalidCredentials
	}

	permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		return nil, err
	}

	session := identity.NewSession(user.ID, s.config.SessionTTL, input.UserAgent, input.IP)
	pair, err := s.jwtService.IssuePair(auth.PairInput{
		UserID:           user.ID,
		SessionID:        session.ID,
		Email:            user.Email,
		Permissions:      permissions,
		RefreshExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	session.SetRefreshToken(pair.RefreshToken)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.cacheSession(ctx, session)

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID.String()))

	return newAuthResult(pair, toUserInfo(user, permissions)), nil
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated ends the session.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	sessionID, _ := claims.SessionUUID()

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	now := s.now()
	if !session.IsActive(now) {
		return nil, identity.ErrSessionInactive
	}
	if !session.MatchesRefreshToken(input.RefreshToken) {
		s.logger.Warn("Refresh token reuse detected, revoking session",
			zap.String("session_id", session.ID.String()),
			zap.String("user_id", session.UserID.String()))
		session.Logout(now)
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("revoke session: %w", err)
		}
		s.evictSessions(ctx, session.ID)
		return nil, identity.ErrTokenReused
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.CanLogin() {
		return nil, ErrAccountInactive
	}

	permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		return nil, err
	}

	expiresAt := session.ExpiresAt
	if s.config.SlidingSessions {
		expiresAt = now.Add(s.config.SessionTTL)
	}
	pair, err := s.jwtService.IssuePair(auth.PairInput{
		UserID:           user.ID,
		SessionID:        session.ID,
		Email:            user.Email,
		Permissions:      permissions,
		RefreshExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := session.Rotate(pair.RefreshToken, now, s.config.SessionTTL, s.config.SlidingSessions); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	s.cacheSession(ctx, session)

	s.logger.Info("Session refreshed",
		zap.String("session_id", session.ID.String()),
		zap.Int("rotation", session.RotationCount))

	return newAuthResult(pair, toUserInfo(user, permissions)), nil
}

// Authenticate verifies an access token and the session behind it
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Token blacklist check failed", zap.Error(err))
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	sessionID, _ := claims.SessionUUID()
	active, err := s.ValidateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, identity.ErrSessionInactive
	}
	return claims, nil
}

// ValidateSession reports whether a session is still active. Positive
// answers are cached for at most one access token lifetime.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	cached, err := s.sessions.IsActive(ctx, sessionID.String())
	if err != nil {
		s.logger.Warn("Session cache lookup failed", zap.Error(err))
	} else if cached {
		return true, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("find session: %w", err)
	}
	if !session.IsActive(s.now()) {
		return false, nil
	}
	s.cacheSession(ctx, session)
	return true, nil
}

// Logout ends a session and revokes the access token used for the request
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	session, err := s.sessionRepo.FindByID(ctx, input.SessionID)
	switch {
	case err == nil:
		session.Logout(s.now())
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return fmt.Errorf("logout session: %w", err)
		}
	case shared.IsNotFound(err):
		s.logger.Debug("Logout for unknown session", zap.String("session_id", input.SessionID.String()))
	default:
		return fmt.Errorf("find session: %w", err)
	}

	s.evictSessions(ctx, input.SessionID)
	s.revokeAccessToken(ctx, input.AccessJTI, input.AccessTTL)

	s.logger.Info("User logged out", zap.String("session_id", input.SessionID.String()))
	return nil
}

// LogoutAll ends every active session of a user and returns how many were ended
func (s *AuthService) LogoutAll(ctx context.Context, input LogoutAllInput) (int64, error) {
	count, err := s.endSessions(ctx, input.UserID, nil)
	if err != nil {
		return 0, err
	}
	s.revokeAccessToken(ctx, input.AccessJTI, input.AccessTTL)

	s.logger.Info("User logged out everywhere",
		zap.String("user_id", input.UserID.String()),
		zap.Int64("sessions", count))
	return count, nil
}

// Me returns the profile of the authenticated user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.collectUserPermissions(ctx, user.RoleIDs)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user, permissions)
	return &info, nil
}

// ChangePassword verifies the current password, stores the new one and
// ends every other session of the user
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		s.logger.Warn("Password change rejected", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	keep := input.SessionID
	if _, err := s.endSessions(ctx, user.ID, &keep); err != nil {
		return err
	}
	s.publish(ctx, user)

	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// RequestPasswordReset publishes a reset mail event. Unknown addresses are
// ignored so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, input PasswordResetRequestInput) error {
	email := shared.NormalizeEmail(input.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Debug("Password reset requested for unknown email", zap.String("email", email))
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.Status == identity.UserStatusDeactivated {
		s.logger.Debug("Password reset requested for deactivated user", zap.String("user_id", user.ID.String()))
		return nil
	}

	token, err := s.jwtService.IssueResetToken(user.ID, user.Email, user.PasswordHash, s.config.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	evt := identity.NewPasswordResetRequestedEvent(user, token, s.now().Add(s.config.ResetTokenTTL))
	if s.events != nil {
		if err := s.events.Publish(ctx, evt); err != nil {
			return fmt.Errorf("publish reset request: %w", err)
		}
	}

	s.logger.Info("Password reset requested", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword sets a new password from a reset token. The token only
// works while the password it was issued for is unchanged.
func (s *AuthService) ResetPassword(ctx context.Context, input PasswordResetConfirmInput) error {
	claims, err := s.jwtService.ValidateResetToken(input.Token)
	if err != nil {
		s.logger.Warn("Reset token validation failed", zap.Error(err))
		if errors.Is(err, auth.ErrExpiredToken) {
			return ErrTokenExpired
		}
		return ErrResetTokenInvalid
	}
	userID, _ := claims.UserID()

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if claims.Fingerprint != auth.Fingerprint(user.PasswordHash) {
		return ErrResetTokenInvalid
	}

	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if user.Status == identity.UserStatusLocked {
		user.Activate()
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if _, err := s.endSessions(ctx, user.ID, nil); err != nil {
		return err
	}
	s.publish(ctx, user)

	s.logger.Info("Password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}

// endSessions logs out the user's active sessions except keep
func (s *AuthService) endSessions(ctx context.Context, userID uuid.UUID, keep *uuid.UUID) (int64, error) {
	now := s.now()
	active, err := s.sessionRepo.FindActiveByUser(ctx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("find sessions: %w", err)
	}
	count, err := s.sessionRepo.LogoutAllForUser(ctx, userID, keep, now)
	if err != nil {
		return 0, fmt.Errorf("logout sessions: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(active))
	for _, session := range active {
		if keep != nil && session.ID == *keep {
			continue
		}
		ids = append(ids, session.ID)
	}
	s.evictSessions(ctx, ids...)
	return count, nil
}

func (s *AuthService) cacheSession(ctx context.Context, session *identity.Session) {
	ttl := min(s.jwtService.AccessTokenExpiration(), session.ExpiresAt.Sub(s.now()))
	if ttl <= 0 {
		return
	}
	if err := s.sessions.MarkActive(ctx, session.ID.String(), ttl); err != nil {
		s.logger.Warn("Failed to cache session", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
}

func (s *AuthService) evictSessions(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if err := s.sessions.Evict(ctx, keys...); err != nil {
		s.logger.Warn("Failed to evict cached sessions", zap.Strings("session_ids", keys), zap.Error(err))
	}
}

func (s *AuthService) revokeAccessToken(ctx context.Context, jti string, ttl time.Duration) {
	if jti == "" || ttl <= 0 {
		return
	}
	if err := s.blacklist.Add(ctx, jti, ttl); err != nil {
		s.logger.Error("Failed to blacklist access token", zap.String("jti", jti), zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	events := user.PullDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}

// collectUserPermissions merges the permissions of all roles
func (s *AuthService) collectUserPermissions(ctx context.Context, roleIDs []uuid.UUID) ([]string, error) {
	if len(roleIDs) == 0 {
		return []string{}, nil
	}
	roles, err := s.roleRepo.FindByIDs(ctx, roleIDs)
	if err != nil {
		s.logger.Error("Failed to load user roles", zap.Error(err))
		return nil, fmt.Errorf("load roles: %w", err)
	}
	seen := make(map[string]bool)
	permissions := make([]string, 0)
	for _, role := range roles {
		for _, p := range role.Permissions {
			if !seen[p] {
				seen[p] = true
				permissions = append(permissions, p)
			}
		}
	}
	return permissions, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

func newAuthResult(pair *auth.TokenPair, user UserInfo) *AuthResult {
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  user,
	}
}

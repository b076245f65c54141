package identity

import (
	"context"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/auth"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Secret123"

type authFixture struct {
	svc       *AuthService
	users     *MockUserRepository
	roles     *MockRoleRepository
	sessions  *fakeSessionRepository
	blacklist *auth.InMemoryTokenBlacklist
	cache     *cache.InMemorySessionCache
	events    *recordingPublisher
	jwt       *auth.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:     new(MockUserRepository),
		roles:     new(MockRoleRepository),
		sessions:  newFakeSessionRepository(),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		cache:     cache.NewInMemorySessionCache(),
		events:    &recordingPublisher{},
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "access-secret-access-secret-access-secret",
			RefreshSecret:          "refresh-secret-refresh-secret-refresh-secret",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 30 * 24 * time.Hour,
			Issuer:                 "commerce-test",
		}),
	}
	cfg := DefaultAuthServiceConfig()
	cfg.MaxLoginAttempts = 3
	f.svc = NewAuthService(f.users, f.roles, f.sessions, f.jwt, f.blacklist, f.cache, f.events, cfg, zap.NewNop())
	return f
}

func newTestUser(t *testing.T, roleIDs ...uuid.UUID) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Admin@Example.com", testPassword)
	require.NoError(t, err)
	user.SetName("Ada", "Lovelace")
	if len(roleIDs) > 0 {
		require.NoError(t, user.SetRoles(roleIDs))
	}
	user.ClearDomainEvents()
	return user
}

func (f *authFixture) login(t *testing.T, user *identity.User) *AuthResult {
	t.Helper()
	f.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil).Once()
	f.users.On("Update", mock.Anything, user).Return(nil).Once()
	res, err := f.svc.Login(context.Background(), LoginInput{Email: user.Email, Password: testPassword, IP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return res
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	role, err := identity.NewRole("Admin", "", []string{"products:*", "orders:read"})
	require.NoError(t, err)
	user := newTestUser(t, role.ID)
	f.roles.On("FindByIDs", mock.Anything, []uuid.UUID{role.ID}).Return([]*identity.Role{role}, nil)

	f.users.On("FindByEmail", mock.Anything, "admin@example.com").Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	res, err := f.svc.Login(context.Background(), LoginInput{Email: " ADMIN@example.com ", Password: testPassword, IP: "10.0.0.1", UserAgent: "curl"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, []string{"products:*", "orders:read"}, res.User.Permissions)
	assert.Equal(t, "Ada Lovelace", res.User.FullName)
	assert.Equal(t, "10.0.0.1", user.LastLoginIP)

	claims, err := f.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	sid, err := claims.SessionUUID()
	require.NoError(t, err)

	session, err := f.sessions.FindByID(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, session.MatchesRefreshToken(res.RefreshToken))
	assert.Equal(t, "curl", session.UserAgent)

	cached, _ := f.cache.IsActive(context.Background(), sid.String())
	assert.True(t, cached)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, shared.NewNotFoundError("User", "nobody@example.com"))

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_LocksAfterFailures(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "wrong-pass1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "wrong-pass1"})
	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.True(t, user.IsLocked())

	_, err = f.svc.Login(context.Background(), LoginInput{Email: user.Email, Password: testPassword})
	assert.ErrorIs(t, err, ErrAccountLocked, "correct password does not bypass the lock")
}

func TestAuthService_Login_Deactivated(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	require.NoError(t, user.Deactivate())
	f.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: user.Email, Password: testPassword})
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	first := f.login(t, user)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	second, err := f.svc.Refresh(context.Background(), RefreshInput{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	claims, err := f.jwt.ValidateRefreshToken(second.RefreshToken)
	require.NoError(t, err)
	sid, _ := claims.SessionUUID()
	session, err := f.sessions.FindByID(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 1, session.RotationCount)
	assert.True(t, session.MatchesRefreshToken(second.RefreshToken))
}

func TestAuthService_Refresh_ReuseRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	first := f.login(t, user)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	second, err := f.svc.Refresh(context.Background(), RefreshInput{RefreshToken: first.RefreshToken})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), RefreshInput{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, identity.ErrTokenReused)

	_, err = f.svc.Refresh(context.Background(), RefreshInput{RefreshToken: second.RefreshToken})
	assert.ErrorIs(t, err, identity.ErrSessionInactive, "the whole session is revoked")

	_, err = f.svc.Authenticate(context.Background(), second.AccessToken)
	assert.ErrorIs(t, err, identity.ErrSessionInactive)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Refresh(context.Background(), RefreshInput{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	res := f.login(t, user)

	claims, err := f.svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	uid, _ := claims.UserID()
	assert.Equal(t, user.ID, uid)

	_, err = f.svc.Authenticate(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid, "refresh tokens are not access tokens")
}

func TestAuthService_ValidateSession_CachesAfterLookup(t *testing.T) {
	f := newAuthFixture(t)
	session := identity.NewSession(uuid.New(), time.Hour, "", "")
	require.NoError(t, f.sessions.Create(context.Background(), session))

	active, err := f.svc.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, active)
	cached, _ := f.cache.IsActive(context.Background(), session.ID.String())
	assert.True(t, cached)

	active, err = f.svc.ValidateSession(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, active)
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	f := newAuthFixture(t)
	session := identity.NewSession(uuid.New(), time.Hour, "", "")
	require.NoError(t, f.sessions.Create(context.Background(), session))
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	active, err := f.svc.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	res := f.login(t, user)
	claims, err := f.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	sid, _ := claims.SessionUUID()

	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{
		SessionID: sid,
		AccessJTI: claims.ID,
		AccessTTL: claims.RemainingTTL(time.Now()),
	}))

	revoked, _ := f.blacklist.IsBlacklisted(context.Background(), claims.ID)
	assert.True(t, revoked)
	_, err = f.svc.Authenticate(context.Background(), res.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	active, err := f.svc.ValidateSession(context.Background(), sid)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestAuthService_LogoutAll(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	a := f.login(t, user)
	b := f.login(t, user)

	n, err := f.svc.LogoutAll(context.Background(), LogoutAllInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, res := range []*AuthResult{a, b} {
		_, err := f.svc.Authenticate(context.Background(), res.AccessToken)
		assert.ErrorIs(t, err, identity.ErrSessionInactive)
	}
}

func TestAuthService_ChangePassword_KeepsCurrentSession(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	current := f.login(t, user)
	other := f.login(t, user)

	claims, _ := f.jwt.ValidateAccessToken(current.AccessToken)
	sid, _ := claims.SessionUUID()
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	err := f.svc.ChangePassword(context.Background(), ChangePasswordInput{
		UserID: user.ID, SessionID: sid, OldPassword: testPassword, NewPassword: "NewSecret456",
	})
	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("NewSecret456"))

	_, err = f.svc.Authenticate(context.Background(), current.AccessToken)
	assert.NoError(t, err)
	_, err = f.svc.Authenticate(context.Background(), other.AccessToken)
	assert.ErrorIs(t, err, identity.ErrSessionInactive)
	assert.Len(t, f.events.ofType(identity.EventTypeUserPasswordChanged), 1)
}

func TestAuthService_ChangePassword_WrongOldPassword(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	err := f.svc.ChangePassword(context.Background(), ChangePasswordInput{UserID: user.ID, OldPassword: "nope12345", NewPassword: "NewSecret456"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PASSWORD", domainErr.Code)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), PasswordResetRequestInput{Email: user.Email}))
	requested := f.events.ofType(identity.EventTypePasswordResetRequested)
	require.Len(t, requested, 1)
	token := requested[0].(*identity.PasswordResetRequestedEvent).Token

	require.NoError(t, f.svc.ResetPassword(context.Background(), PasswordResetConfirmInput{Token: token, NewPassword: "Brand9New"}))
	assert.True(t, user.VerifyPassword("Brand9New"))

	err := f.svc.ResetPassword(context.Background(), PasswordResetConfirmInput{Token: token, NewPassword: "Other9Pass"})
	assert.ErrorIs(t, err, ErrResetTokenInvalid, "a token dies once the password changed")
}

func TestAuthService_RequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.NewNotFoundError("User", "ghost@example.com"))

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), PasswordResetRequestInput{Email: "ghost@example.com"}))
	assert.Empty(t, f.events.ofType(identity.EventTypePasswordResetRequested))
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)
	user := newTestUser(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	info, err := f.svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", info.Email)
	assert.Empty(t, info.Permissions)
}

package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession(uuid.New(), time.Hour, "curl", "10.0.0.1")
	s.SetRefreshToken("token-1")
	now := s.CreatedAt

	assert.True(t, s.IsActive(now))
	assert.False(t, s.IsActive(now.Add(time.Hour)))
	assert.True(t, s.MatchesRefreshToken("token-1"))
	assert.False(t, s.MatchesRefreshToken("token-2"))

	later := now.Add(30 * time.Minute)
	require.NoError(t, s.Rotate("token-2", later, time.Hour, true))
	assert.Equal(t, 1, s.RotationCount)
	assert.Equal(t, later.Add(time.Hour), s.ExpiresAt)
	assert.False(t, s.MatchesRefreshToken("token-1"))
	assert.True(t, s.MatchesRefreshToken("token-2"))

	s.Logout(later)
	assert.False(t, s.IsActive(later))
	first := *s.LoggedOutAt
	s.Logout(later.Add(time.Minute))
	assert.Equal(t, first, *s.LoggedOutAt)

	assert.ErrorIs(t, s.Rotate("token-3", later, time.Hour, true), ErrSessionInactive)
}

func TestSession_FixedExpiryWithoutSliding(t *testing.T) {
	s := NewSession(uuid.New(), time.Hour, "", "")
	expires := s.ExpiresAt
	require.NoError(t, s.Rotate("t", s.CreatedAt.Add(time.Minute), time.Hour, false))
	assert.Equal(t, expires, s.ExpiresAt)
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

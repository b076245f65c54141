package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository_RoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	users := NewGormUserRepository(db)
	roles := NewGormRoleRepository(db)

	role, err := identity.NewRole("Editor", "", []string{"products:*"})
	require.NoError(t, err)
	require.NoError(t, roles.Create(ctx, role))

	user, err := identity.NewUser("Jane@Example.com", "secret123")
	require.NoError(t, err)
	user.SetName("Jane", "Doe")
	require.NoError(t, user.SetRoles([]uuid.UUID{role.ID}))
	require.NoError(t, users.Create(ctx, user))

	t.Run("finds by email case-insensitively with roles", func(t *testing.T) {
		found, err := users.FindByEmail(ctx, "JANE@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, []uuid.UUID{role.ID}, found.RoleIDs)
		assert.Equal(t, "Doe", found.LastName)
	})

	t.Run("exists by email", func(t *testing.T) {
		ok, err := users.ExistsByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("counts users holding a role", func(t *testing.T) {
		n, err := roles.CountUsers(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("update replaces roles", func(t *testing.T) {
		require.NoError(t, user.SetRoles(nil))
		user.SetName("Janet", "Doe")
		require.NoError(t, users.Update(ctx, user))

		found, err := users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, found.RoleIDs)
		assert.Equal(t, "Janet", found.FirstName)
	})

	t.Run("list filters and searches", func(t *testing.T) {
		other, err := identity.NewUser("bob@example.com", "secret123")
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, other))

		q := shared.NewListQuery()
		q.Search = "bob"
		list, total, err := users.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, other.ID, list[0].ID)

		q = shared.NewListQuery()
		q.Order = "-password_hash"
		_, _, err = users.List(ctx, q)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "order", verr.Issues[0].Path)
	})

	t.Run("soft delete hides the user", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, user.ID))
		_, err := users.FindByID(ctx, user.ID)
		assert.True(t, shared.IsNotFound(err))

		err = users.Delete(ctx, user.ID)
		assert.True(t, shared.IsNotFound(err))

		q := shared.NewListQuery()
		q.WithDeleted = true
		_, total, err := users.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestGormRoleRepository_FindByName(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	roles := NewGormRoleRepository(db)

	role, err := identity.NewRole("Support", "helps customers", []string{"orders:read"})
	require.NoError(t, err)
	require.NoError(t, roles.Create(ctx, role))

	found, err := roles.FindByName(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders:read"}, found.Permissions)

	byIDs, err := roles.FindByIDs(ctx, []uuid.UUID{role.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	_, err = roles.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}

func TestGormSessionRepository_Lifecycle(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormSessionRepository(db)
	userID := uuid.New()
	now := time.Now().UTC()

	keep := identity.NewSession(userID, 72*time.Hour, "agent", "127.0.0.1")
	other := identity.NewSession(userID, 72*time.Hour, "agent", "127.0.0.1")
	expired := identity.NewSession(userID, 72*time.Hour, "agent", "127.0.0.1")
	expired.ExpiresAt = now.Add(-72 * time.Hour)
	for _, s := range []*identity.Session{keep, other, expired} {
		require.NoError(t, repo.Create(ctx, s))
	}

	active, err := repo.FindActiveByUser(ctx, userID, now)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	n, err := repo.LogoutAllForUser(ctx, userID, &keep.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.LoggedOutAt)

	removed, err := repo.DeleteStale(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestGormSessionRepository_FindByID_NotFound(t *testing.T) {
	gdb, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSessionRepository(gdb)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "sessions" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserService_Create(t *testing.T) {
	users, roles := new(MockUserRepository), new(MockRoleRepository)
	svc := NewUserService(users, roles, newFakeSessionRepository(), zap.NewNop())

	role, err := identity.NewRole("Support", "", []string{"orders:read"})
	require.NoError(t, err)
	users.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
	roles.On("FindByIDs", mock.Anything, []uuid.UUID{role.ID}).Return([]*identity.Role{role}, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	dto, err := svc.Create(context.Background(), CreateUserInput{
		Email: "New@Example.com", Password: "Passw0rd!", FirstName: "Grace", RoleIDs: []uuid.UUID{role.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", dto.Email)
	assert.Equal(t, "active", dto.Status)
	assert.Equal(t, []uuid.UUID{role.ID}, dto.RoleIDs)
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockRoleRepository), newFakeSessionRepository(), zap.NewNop())
	users.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil)

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "taken@example.com", Password: "Passw0rd!"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())
}

func TestUserService_Create_UnknownRole(t *testing.T) {
	users, roles := new(MockUserRepository), new(MockRoleRepository)
	svc := NewUserService(users, roles, newFakeSessionRepository(), zap.NewNop())
	missing := uuid.New()
	users.On("ExistsByEmail", mock.Anything, "a@example.com").Return(false, nil)
	roles.On("FindByIDs", mock.Anything, []uuid.UUID{missing}).Return([]*identity.Role{}, nil)

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "a@example.com", Password: "Passw0rd!", RoleIDs: []uuid.UUID{missing}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role_ids.0", verr.Issues[0].Path)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_AssignAndRemoveRoles(t *testing.T) {
	users, roles := new(MockUserRepository), new(MockRoleRepository)
	svc := NewUserService(users, roles, newFakeSessionRepository(), zap.NewNop())

	user := newTestUser(t)
	r1, _ := identity.NewRole("A", "", nil)
	r2, _ := identity.NewRole("B", "", nil)
	users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	users.On("Update", mock.Anything, user).Return(nil)
	roles.On("FindByIDs", mock.Anything, []uuid.UUID{r1.ID, r2.ID}).Return([]*identity.Role{r1, r2}, nil)

	dto, err := svc.AssignRoles(context.Background(), user.ID, []uuid.UUID{r1.ID, r2.ID})
	require.NoError(t, err)
	assert.Len(t, dto.RoleIDs, 2)

	dto, err = svc.RemoveRoles(context.Background(), user.ID, []uuid.UUID{r1.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{r2.ID}, dto.RoleIDs)
}

func TestUserService_Deactivate_EndsSessions(t *testing.T) {
	users := new(MockUserRepository)
	sessions := newFakeSessionRepository()
	svc := NewUserService(users, new(MockRoleRepository), sessions, zap.NewNop())

	user := newTestUser(t)
	session := identity.NewSession(user.ID, time.Hour, "", "")
	require.NoError(t, sessions.Create(context.Background(), session))
	users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	users.On("Update", mock.Anything, user).Return(nil)

	dto, err := svc.Deactivate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "deactivated", dto.Status)

	stored, _ := sessions.FindByID(context.Background(), session.ID)
	assert.NotNil(t, stored.LoggedOutAt)
}

func TestUserService_List(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockRoleRepository), newFakeSessionRepository(), zap.NewNop())
	user := newTestUser(t)
	users.On("List", mock.Anything, mock.AnythingOfType("shared.ListQuery")).Return([]*identity.User{user}, int64(11), nil)

	res, err := svc.List(context.Background(), shared.ListQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Count)
	assert.Equal(t, shared.MaxListLimit, res.Limit)
	require.Len(t, res.Items, 1)
}

func TestRoleService_Delete(t *testing.T) {
	roles := new(MockRoleRepository)
	svc := NewRoleService(roles, zap.NewNop())

	inUse, _ := identity.NewRole("Staff", "", nil)
	system, _ := identity.NewRole("Owner", "", []string{"*"})
	system.IsSystemRole = true
	free, _ := identity.NewRole("Temp", "", nil)

	roles.On("FindByID", mock.Anything, inUse.ID).Return(inUse, nil)
	roles.On("FindByID", mock.Anything, system.ID).Return(system, nil)
	roles.On("FindByID", mock.Anything, free.ID).Return(free, nil)
	roles.On("CountUsers", mock.Anything, inUse.ID).Return(int64(2), nil)
	roles.On("CountUsers", mock.Anything, free.ID).Return(int64(0), nil)
	roles.On("Delete", mock.Anything, free.ID).Return(nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), inUse.ID), ErrRoleInUse)
	assert.Error(t, svc.Delete(context.Background(), system.ID))
	assert.NoError(t, svc.Delete(context.Background(), free.ID))
	roles.AssertNumberOfCalls(t, "Delete", 1)
}

func TestRoleService_CreateAndUpdate(t *testing.T) {
	roles := new(MockRoleRepository)
	svc := NewRoleService(roles, zap.NewNop())

	roles.On("FindByName", mock.Anything, "Catalog").Return(nil, shared.NewNotFoundError("Role", "Catalog")).Once()
	roles.On("Create", mock.Anything, mock.AnythingOfType("*identity.Role")).Return(nil)

	dto, err := svc.Create(context.Background(), CreateRoleInput{Name: "Catalog", Permissions: []string{"Products:Write", "products:write"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"products:write"}, dto.Permissions)

	other, _ := identity.NewRole("Orders", "", nil)
	role, _ := identity.NewRole("Catalog", "", nil)
	roles.On("FindByID", mock.Anything, role.ID).Return(role, nil)
	roles.On("FindByName", mock.Anything, "Orders").Return(other, nil)

	_, err = svc.Update(context.Background(), role.ID, UpdateRoleInput{Name: "Orders"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())

	roles.On("FindByName", mock.Anything, "Bad").Return(nil, shared.NewNotFoundError("Role", "Bad"))
	_, err = svc.Create(context.Background(), CreateRoleInput{Name: "Bad", Permissions: []string{"nocolon"}})
	require.Error(t, err)
}

package identity

import (
	"context"
	"fmt"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRoleInUse is returned when deleting a role that is still assigned
var ErrRoleInUse = shared.NewDomainError("ROLE_IN_USE", "Role is still assigned to users")

// RoleService handles role management operations
type RoleService struct {
	roleRepo identity.RoleRepository
	logger   *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(roleRepo identity.RoleRepository, logger *zap.Logger) *RoleService {
	return &RoleService{roleRepo: roleRepo, logger: logger}
}

// Create creates a new role
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*RoleDTO, error) {
	s.logger.Info("Creating new role", zap.String("name", input.Name))

	if err := s.ensureNameFree(ctx, input.Name, uuid.Nil); err != nil {
		return nil, err
	}
	role, err := identity.NewRole(input.Name, input.Description, input.Permissions)
	if err != nil {
		return nil, err
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	return toRoleDTO(role), nil
}

// GetByID retrieves a role with its user count
func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toRoleDTO(role)
	count, err := s.roleRepo.CountUsers(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to count role users", zap.String("role_id", id.String()), zap.Error(err))
	}
	dto.UserCount = count
	return dto, nil
}

// List lists roles
func (s *RoleService) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[*RoleDTO], error) {
	q = q.Normalize()
	roles, total, err := s.roleRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[*RoleDTO]{}, err
	}
	items := make([]*RoleDTO, len(roles))
	for i, r := range roles {
		items[i] = toRoleDTO(r)
	}
	return shared.NewListResult(items, total, q), nil
}

// Update renames a role and optionally replaces its permissions
func (s *RoleService) Update(ctx context.Context, id uuid.UUID, input UpdateRoleInput) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, input.Name, id); err != nil {
		return nil, err
	}
	if err := role.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if input.Permissions != nil {
		if err := role.SetPermissions(*input.Permissions); err != nil {
			return nil, err
		}
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("Role updated", zap.String("role_id", id.String()))
	return toRoleDTO(role), nil
}

// Delete removes a role that is neither a system role nor assigned
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !role.CanDelete() {
		return shared.NewDomainError("CANNOT_DELETE_SYSTEM_ROLE", "System roles cannot be deleted")
	}
	count, err := s.roleRepo.CountUsers(ctx, id)
	if err != nil {
		return fmt.Errorf("count role users: %w", err)
	}
	if count > 0 {
		return ErrRoleInUse
	}
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Role deleted", zap.String("role_id", id.String()))
	return nil
}

func (s *RoleService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.roleRepo.FindByName(ctx, name)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("find role: %w", err)
	}
	if existing.ID != self {
		return shared.NewNotUniqueError("role", "name", name)
	}
	return nil
}

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles admin user management
type UserService struct {
	userRepo    identity.UserRepository
	roleRepo    identity.RoleRepository
	sessionRepo identity.SessionRepository
	logger      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	sessionRepo identity.SessionRepository,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	email := shared.NormalizeEmail(input.Email)
	s.logger.Info("Creating new user", zap.String("email", email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, shared.NewNotUniqueError("user", "email", email)
	}

	user, err := identity.NewUser(email, input.Password)
	if err != nil {
		return nil, err
	}
	user.SetName(input.FirstName, input.LastName)

	if len(input.RoleIDs) > 0 {
		if err := s.ensureRolesExist(ctx, input.RoleIDs); err != nil {
			return nil, err
		}
		if err := user.SetRoles(input.RoleIDs); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", user.ID.String()))
	return toUserDTO(user), nil
}

// GetByID retrieves a user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// List lists users
func (s *UserService) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[*UserDTO], error) {
	q = q.Normalize()
	users, total, err := s.userRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[*UserDTO]{}, err
	}
	items := make([]*UserDTO, len(users))
	for i, u := range users {
		items[i] = toUserDTO(u)
	}
	return shared.NewListResult(items, total, q), nil
}

// Update changes profile fields
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	first, last := user.FirstName, user.LastName
	if input.FirstName != nil {
		first = *input.FirstName
	}
	if input.LastName != nil {
		last = *input.LastName
	}
	user.SetName(first, last)
	if input.AvatarURL != nil {
		if err := user.SetAvatar(*input.AvatarURL); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// Delete soft-deletes a user and ends its sessions
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.sessionRepo.LogoutAllForUser(ctx, id, nil, time.Now()); err != nil {
		s.logger.Error("Failed to end sessions of deleted user", zap.String("user_id", id.String()), zap.Error(err))
	}
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// Activate clears a lock or deactivation
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Activate()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// Deactivate disables a user and ends its sessions
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if _, err := s.sessionRepo.LogoutAllForUser(ctx, id, nil, time.Now()); err != nil {
		return nil, fmt.Errorf("end sessions: %w", err)
	}
	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return toUserDTO(user), nil
}

// AssignRoles adds roles to a user
func (s *UserService) AssignRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRolesExist(ctx, roleIDs); err != nil {
		return nil, err
	}
	if err := user.SetRoles(append(append([]uuid.UUID{}, user.RoleIDs...), roleIDs...)); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Roles assigned", zap.String("user_id", id.String()), zap.Int("roles", len(user.RoleIDs)))
	return toUserDTO(user), nil
}

// RemoveRoles removes roles from a user
func (s *UserService) RemoveRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	drop := make(map[uuid.UUID]bool, len(roleIDs))
	for _, rid := range roleIDs {
		drop[rid] = true
	}
	kept := make([]uuid.UUID, 0, len(user.RoleIDs))
	for _, rid := range user.RoleIDs {
		if !drop[rid] {
			kept = append(kept, rid)
		}
	}
	if err := user.SetRoles(kept); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

func (s *UserService) ensureRolesExist(ctx context.Context, roleIDs []uuid.UUID) error {
	roles, err := s.roleRepo.FindByIDs(ctx, roleIDs)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	found := make(map[uuid.UUID]bool, len(roles))
	for _, r := range roles {
		found[r.ID] = true
	}
	var v shared.Validator
	for i, rid := range roleIDs {
		if !found[rid] {
			v.Add(shared.ValidationIssue{
				Type:    shared.IssueNotFound,
				Message: fmt.Sprintf("role with id %s was not found", rid),
				Path:    fmt.Sprintf("role_ids.%d", i),
			})
		}
	}
	return v.Err()
}

package identity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
)

// PermissionAll grants every permission
const PermissionAll = "*"

var permissionRegex = regexp.MustCompile(`^[a-z][a-z0-9_\-]*:([a-z][a-z0-9_\-]*|\*)$`)

// Role groups permissions. Permissions use the resource:action pattern,
// e.g. "products:write"; "products:*" covers every action on a resource.
type Role struct {
	shared.BaseAggregateRoot
	Name         string
	Description  string
	IsSystemRole bool // System roles cannot be deleted
	Permissions  []string
}

// NewRole creates a new role
func NewRole(name, description string, permissions []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewInvalidDataError("name", "name must be between 1 and 100 characters")
	}
	role := &Role{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       strings.TrimSpace(description),
	}
	if err := role.SetPermissions(permissions); err != nil {
		return nil, err
	}
	return role, nil
}

// Update changes name and description
func (r *Role) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewInvalidDataError("name", "name must be between 1 and 100 characters")
	}
	r.Name = name
	r.Description = strings.TrimSpace(description)
	r.Touch()
	r.IncrementVersion()
	return nil
}

// SetPermissions validates and replaces the permission set
func (r *Role) SetPermissions(permissions []string) error {
	var v shared.Validator
	seen := make(map[string]bool, len(permissions))
	cleaned := make([]string, 0, len(permissions))
	for i, p := range permissions {
		p = strings.ToLower(strings.TrimSpace(p))
		v.Check(IsValidPermission(p), "permissions."+strconv.Itoa(i), "permission must be '*' or follow the resource:action pattern")
		if !seen[p] {
			seen[p] = true
			cleaned = append(cleaned, p)
		}
	}
	if err := v.Err(); err != nil {
		return err
	}
	r.Permissions = cleaned
	r.Touch()
	return nil
}

// HasPermission reports whether the role grants code
func (r *Role) HasPermission(code string) bool {
	return PermissionsAllow(r.Permissions, code)
}

// CanDelete reports whether the role may be removed
func (r *Role) CanDelete() bool {
	return !r.IsSystemRole
}

// IsValidPermission checks the permission syntax
func IsValidPermission(p string) bool {
	return p == PermissionAll || permissionRegex.MatchString(p)
}

// PermissionsAllow reports whether any granted permission covers required.
func PermissionsAllow(granted []string, required string) bool {
	resource, _, _ := strings.Cut(required, ":")
	for _, g := range granted {
		if g == PermissionAll || g == required || g == resource+":*" {
			return true
		}
	}
	return false
}

package handler

import (
	"github.com/commerce/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// UserHandler handles admin user management
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create godoc
// @Summary      Create a user
// @Description  Creates a user.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateUserInput true "Request body"
// @Success      201 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var input identity.CreateUserInput
	if !h.bind(c, &input) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), input)
	h.respondCreated(c, user, err)
}

// GetByID godoc
// @Summary      Get a user
// @Description  Returns a user.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), id)
	h.respond(c, user, err)
}

// List godoc
// @Summary      List users
// @Description  Lists users.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]identity.UserDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.userService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Update a user's profile
// @Description  Updates a user's profile.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body identity.UpdateUserInput true "Request body"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var input identity.UpdateUserInput
	if !h.bind(c, &input) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), id, input)
	h.respond(c, user, err)
}

// Delete godoc
// @Summary      Soft delete a user
// @Description  Soft deletes a user.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.userService.Delete(c.Request.Context(), id))
}

// Activate godoc
// @Summary      Re-enable a user
// @Description  Re-enables a user.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Activate(c.Request.Context(), id)
	h.respond(c, user, err)
}

// Deactivate godoc
// @Summary      Disable a user and end their sessions
// @Description  Disables a user and ends their sessions.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Deactivate(c.Request.Context(), id)
	h.respond(c, user, err)
}

// AssignRoles godoc
// @Summary      Add roles to a user
// @Description  Adds roles to a user.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body identity.RoleIDsInput true "Request body"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/roles [post]
func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var input identity.RoleIDsInput
	if !h.bind(c, &input) {
		return
	}
	user, err := h.userService.AssignRoles(c.Request.Context(), id, input.RoleIDs)
	h.respond(c, user, err)
}

// RemoveRoles godoc
// @Summary      Remove roles from a user
// @Description  Removes roles from a user.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body identity.RoleIDsInput true "Request body"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/roles [delete]
func (h *UserHandler) RemoveRoles(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var input identity.RoleIDsInput
	if !h.bind(c, &input) {
		return
	}
	user, err := h.userService.RemoveRoles(c.Request.Context(), id, input.RoleIDs)
	h.respond(c, user, err)
}

// RoleHandler handles role management
type RoleHandler struct {
	BaseHandler
	roleService *identity.RoleService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(roleService *identity.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// Create godoc
// @Summary      Create a role
// @Description  Creates a role.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateRoleInput true "Request body"
// @Success      201 {object} dto.Response{data=identity.RoleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var input identity.CreateRoleInput
	if !h.bind(c, &input) {
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), input)
	h.respondCreated(c, role, err)
}

// GetByID godoc
// @Summary      Get a role
// @Description  Returns a role.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.RoleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/roles/{id} [get]
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	role, err := h.roleService.GetByID(c.Request.Context(), id)
	h.respond(c, role, err)
}

// List godoc
// @Summary      List roles
// @Description  Lists roles.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]identity.RoleDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.roleService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Replace a role's name, description and optionally permissions
// @Description  Replaces a role's name, description and optionally permissions.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Param        request body identity.UpdateRoleInput true "Request body"
// @Success      200 {object} dto.Response{data=identity.RoleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var input identity.UpdateRoleInput
	if !h.bind(c, &input) {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), id, input)
	h.respond(c, role, err)
}

// Delete godoc
// @Summary      Delete a role
// @Description  Deletes a role. System roles cannot be deleted.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.roleService.Delete(c.Request.Context(), id))
}

package handler

import (
	"github.com/commerce/backend/internal/application/customer"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customers, their addresses and customer groups
type CustomerHandler struct {
	BaseHandler
	customerService *customer.Service
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *customer.Service) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create godoc
// @Summary      Create a customer
// @Description  Creates a customer.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body customer.CreateCustomerRequest true "Request body"
// @Success      201 {object} dto.Response{data=customer.CustomerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.customerService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetByID godoc
// @Summary      Get a customer
// @Description  Returns a customer.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=customer.CustomerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.customerService.GetByID(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List customers
// @Description  Lists customers.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]customer.CustomerResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.customerService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Update a customer
// @Description  Updates a customer.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body customer.UpdateCustomerRequest true "Request body"
// @Success      200 {object} dto.Response{data=customer.CustomerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req customer.UpdateCustomerRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.customerService.Update(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Delete godoc
// @Summary      Soft delete a customer
// @Description  Soft deletes a customer.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.customerService.Delete(c.Request.Context(), id))
}

// AddAddress godoc
// @Summary      Save an address on a customer
// @Description  Saves an address on a customer.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body customer.AddressRequest true "Request body"
// @Success      201 {object} dto.Response{data=customer.CustomerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers/{id}/addresses [post]
func (h *CustomerHandler) AddAddress(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req customer.AddressRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.customerService.AddAddress(c.Request.Context(), id, req)
	h.respondCreated(c, resp, err)
}

// RemoveAddress godoc
// @Summary      Delete a saved address
// @Description  Deletes a saved address.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        address_id path string true "Address ID" format(uuid)
// @Success      200 {object} dto.Response{data=customer.CustomerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customers/{id}/addresses/{address_id} [delete]
func (h *CustomerHandler) RemoveAddress(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	addressID, ok := h.id(c, "address_id")
	if !ok {
		return
	}
	resp, err := h.customerService.RemoveAddress(c.Request.Context(), id, addressID)
	h.respond(c, resp, err)
}

// CreateGroup godoc
// @Summary      Create a customer group
// @Description  Creates a customer group.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        request body customer.GroupRequest true "Request body"
// @Success      201 {object} dto.Response{data=customer.GroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups [post]
func (h *CustomerHandler) CreateGroup(c *gin.Context) {
	var req customer.GroupRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.customerService.CreateGroup(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetGroup godoc
// @Summary      Get a customer group
// @Description  Returns a customer group.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer group ID" format(uuid)
// @Success      200 {object} dto.Response{data=customer.GroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups/{id} [get]
func (h *CustomerHandler) GetGroup(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.customerService.GetGroup(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListGroups godoc
// @Summary      List customer groups
// @Description  Lists customer groups.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]customer.GroupResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups [get]
func (h *CustomerHandler) ListGroups(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.customerService.ListGroups(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// UpdateGroup godoc
// @Summary      Rename a customer group
// @Description  Renames a customer group.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer group ID" format(uuid)
// @Param        request body customer.GroupRequest true "Request body"
// @Success      200 {object} dto.Response{data=customer.GroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups/{id} [put]
func (h *CustomerHandler) UpdateGroup(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req customer.GroupRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.customerService.UpdateGroup(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// DeleteGroup godoc
// @Summary      Delete a customer group
// @Description  Deletes a customer group.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer group ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups/{id} [delete]
func (h *CustomerHandler) DeleteGroup(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.customerService.DeleteGroup(c.Request.Context(), id))
}

// AddGroupCustomers godoc
// @Summary      Add customers to a group
// @Description  Adds customers to a group.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer group ID" format(uuid)
// @Param        request body customer.CustomerIDsRequest true "Request body"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups/{id}/customers [post]
func (h *CustomerHandler) AddGroupCustomers(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req customer.CustomerIDsRequest
	if !h.bind(c, &req) {
		return
	}
	h.respondNoContent(c, h.customerService.AddCustomersToGroup(c.Request.Context(), id, req))
}

// RemoveGroupCustomers godoc
// @Summary      Remove customers from a group
// @Description  Removes customers from a group.
// @Tags         customer-groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer group ID" format(uuid)
// @Param        request body customer.CustomerIDsRequest true "Request body"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/customer-groups/{id}/customers [delete]
func (h *CustomerHandler) RemoveGroupCustomers(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req customer.CustomerIDsRequest
	if !h.bind(c, &req) {
		return
	}
	h.respondNoContent(c, h.customerService.RemoveCustomersFromGroup(c.Request.Context(), id, req))
}

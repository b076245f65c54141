package handler

import (
	"github.com/commerce/backend/internal/application/fulfillment"
	"github.com/gin-gonic/gin"
)

// ShippingOptionHandler handles shipping options
type ShippingOptionHandler struct {
	BaseHandler
	fulfillmentService *fulfillment.Service
}

// NewShippingOptionHandler creates a new ShippingOptionHandler
func NewShippingOptionHandler(fulfillmentService *fulfillment.Service) *ShippingOptionHandler {
	return &ShippingOptionHandler{fulfillmentService: fulfillmentService}
}

// Create godoc
// @Summary      Create a shipping option for a region
// @Description  Creates a shipping option for a region.
// @Tags         shipping-options
// @Accept       json
// @Produce      json
// @Param        request body fulfillment.ShippingOptionRequest true "Request body"
// @Success      201 {object} dto.Response{data=fulfillment.ShippingOptionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/shipping-options [post]
func (h *ShippingOptionHandler) Create(c *gin.Context) {
	var req fulfillment.ShippingOptionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.fulfillmentService.CreateShippingOption(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// Get godoc
// @Summary      Get a shipping option
// @Description  Returns a shipping option.
// @Tags         shipping-options
// @Accept       json
// @Produce      json
// @Param        id path string true "Shipping option ID" format(uuid)
// @Success      200 {object} dto.Response{data=fulfillment.ShippingOptionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/shipping-options/{id} [get]
func (h *ShippingOptionHandler) Get(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.fulfillmentService.GetShippingOption(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List shipping options
// @Description  Lists shipping options.
// @Tags         shipping-options
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]fulfillment.ShippingOptionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/shipping-options [get]
func (h *ShippingOptionHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.fulfillmentService.ListShippingOptions(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Replace a shipping option
// @Description  Replaces a shipping option.
// @Tags         shipping-options
// @Accept       json
// @Produce      json
// @Param        id path string true "Shipping option ID" format(uuid)
// @Param        request body fulfillment.ShippingOptionRequest true "Request body"
// @Success      200 {object} dto.Response{data=fulfillment.ShippingOptionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/shipping-options/{id} [put]
func (h *ShippingOptionHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req fulfillment.ShippingOptionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.fulfillmentService.UpdateShippingOption(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Delete godoc
// @Summary      Soft delete a shipping option
// @Description  Soft deletes a shipping option.
// @Tags         shipping-options
// @Accept       json
// @Produce      json
// @Param        id path string true "Shipping option ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/shipping-options/{id} [delete]
func (h *ShippingOptionHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.fulfillmentService.DeleteShippingOption(c.Request.Context(), id))
}

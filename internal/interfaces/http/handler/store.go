package handler

import (
	"github.com/commerce/backend/internal/application/store"
	"github.com/gin-gonic/gin"
)

// StoreHandler handles store settings and sales channels
type StoreHandler struct {
	BaseHandler
	storeService *store.Service
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(storeService *store.Service) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// Get godoc
// @Summary      Get the store
// @Description  Returns the store.
// @Tags         store
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=store.StoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/store [get]
func (h *StoreHandler) Get(c *gin.Context) {
	resp, err := h.storeService.Retrieve(c.Request.Context())
	h.respond(c, resp, err)
}

// Update godoc
// @Summary      Update store defaults and supported currencies
// @Description  Updates store defaults and supported currencies.
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        request body store.UpdateStoreRequest true "Request body"
// @Success      200 {object} dto.Response{data=store.StoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/store [put]
func (h *StoreHandler) Update(c *gin.Context) {
	var req store.UpdateStoreRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.storeService.Update(c.Request.Context(), req)
	h.respond(c, resp, err)
}

// CreateSalesChannel godoc
// @Summary      Create a sales channel
// @Description  Creates a sales channel.
// @Tags         sales-channels
// @Accept       json
// @Produce      json
// @Param        request body store.SalesChannelRequest true "Request body"
// @Success      201 {object} dto.Response{data=store.SalesChannelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sales-channels [post]
func (h *StoreHandler) CreateSalesChannel(c *gin.Context) {
	var req store.SalesChannelRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.storeService.CreateSalesChannel(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetSalesChannel godoc
// @Summary      Get a sales channel
// @Description  Returns a sales channel.
// @Tags         sales-channels
// @Accept       json
// @Produce      json
// @Param        id path string true "Sales channel ID" format(uuid)
// @Success      200 {object} dto.Response{data=store.SalesChannelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sales-channels/{id} [get]
func (h *StoreHandler) GetSalesChannel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.storeService.GetSalesChannel(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListSalesChannels godoc
// @Summary      List sales channels
// @Description  Lists sales channels.
// @Tags         sales-channels
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]store.SalesChannelResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sales-channels [get]
func (h *StoreHandler) ListSalesChannels(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.storeService.ListSalesChannels(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// UpdateSalesChannel godoc
// @Summary      Update a sales channel
// @Description  Updates a sales channel.
// @Tags         sales-channels
// @Accept       json
// @Produce      json
// @Param        id path string true "Sales channel ID" format(uuid)
// @Param        request body store.SalesChannelRequest true "Request body"
// @Success      200 {object} dto.Response{data=store.SalesChannelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sales-channels/{id} [put]
func (h *StoreHandler) UpdateSalesChannel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req store.SalesChannelRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.storeService.UpdateSalesChannel(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// DeleteSalesChannel godoc
// @Summary      Delete a sales channel other than the store default
// @Description  Deletes a sales channel other than the store default.
// @Tags         sales-channels
// @Accept       json
// @Produce      json
// @Param        id path string true "Sales channel ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sales-channels/{id} [delete]
func (h *StoreHandler) DeleteSalesChannel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.storeService.DeleteSalesChannel(c.Request.Context(), id))
}

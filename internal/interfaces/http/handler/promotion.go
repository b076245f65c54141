package handler

import (
	"github.com/commerce/backend/internal/application/promotion"
	"github.com/gin-gonic/gin"
)

// PromotionHandler handles promotions and campaigns
type PromotionHandler struct {
	BaseHandler
	promotionService *promotion.Service
}

// NewPromotionHandler creates a new PromotionHandler
func NewPromotionHandler(promotionService *promotion.Service) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService}
}

// Create godoc
// @Summary      Create a promotion
// @Description  Creates a promotion.
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        request body promotion.PromotionRequest true "Request body"
// @Success      201 {object} dto.Response{data=promotion.PromotionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/promotions [post]
func (h *PromotionHandler) Create(c *gin.Context) {
	var req promotion.PromotionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.promotionService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// Get godoc
// @Summary      Get a promotion
// @Description  Returns a promotion.
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        id path string true "Promotion ID" format(uuid)
// @Success      200 {object} dto.Response{data=promotion.PromotionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/promotions/{id} [get]
func (h *PromotionHandler) Get(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.promotionService.Get(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List promotions
// @Description  Lists promotions.
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]promotion.PromotionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/promotions [get]
func (h *PromotionHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.promotionService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Replace a promotion's rules and application method
// @Description  Replaces a promotion's rules and application method.
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        id path string true "Promotion ID" format(uuid)
// @Param        request body promotion.PromotionRequest true "Request body"
// @Success      200 {object} dto.Response{data=promotion.PromotionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/promotions/{id} [put]
func (h *PromotionHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req promotion.PromotionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.promotionService.Update(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Delete godoc
// @Summary      Soft delete a promotion
// @Description  Soft deletes a promotion.
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        id path string true "Promotion ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/promotions/{id} [delete]
func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.promotionService.Delete(c.Request.Context(), id))
}

// CreateCampaign godoc
// @Summary      Create a campaign
// @Description  Creates a campaign.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request body promotion.CampaignRequest true "Request body"
// @Success      201 {object} dto.Response{data=promotion.CampaignResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/campaigns [post]
func (h *PromotionHandler) CreateCampaign(c *gin.Context) {
	var req promotion.CampaignRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.promotionService.CreateCampaign(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetCampaign godoc
// @Summary      Get a campaign
// @Description  Returns a campaign.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response{data=promotion.CampaignResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/campaigns/{id} [get]
func (h *PromotionHandler) GetCampaign(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.promotionService.GetCampaign(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListCampaigns godoc
// @Summary      List campaigns
// @Description  Lists campaigns.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]promotion.CampaignResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/campaigns [get]
func (h *PromotionHandler) ListCampaigns(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.promotionService.ListCampaigns(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// UpdateCampaign godoc
// @Summary      Update a campaign and its budget
// @Description  Updates a campaign and its budget.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body promotion.CampaignRequest true "Request body"
// @Success      200 {object} dto.Response{data=promotion.CampaignResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/campaigns/{id} [put]
func (h *PromotionHandler) UpdateCampaign(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req promotion.CampaignRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.promotionService.UpdateCampaign(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// DeleteCampaign godoc
// @Summary      Delete a campaign and detach its promotions
// @Description  Deletes a campaign and detaches its promotions.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/campaigns/{id} [delete]
func (h *PromotionHandler) DeleteCampaign(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.promotionService.DeleteCampaign(c.Request.Context(), id))
}

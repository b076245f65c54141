package handler

import (
	"github.com/commerce/backend/internal/application/pricing"
	"github.com/commerce/backend/internal/application/tax"
	"github.com/gin-gonic/gin"
)

// PriceListHandler handles sale and override price lists
type PriceListHandler struct {
	BaseHandler
	pricingService *pricing.Service
}

// NewPriceListHandler creates a new PriceListHandler
func NewPriceListHandler(pricingService *pricing.Service) *PriceListHandler {
	return &PriceListHandler{pricingService: pricingService}
}

// Create godoc
// @Summary      Create a price list with its prices
// @Description  Creates a price list with its prices.
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        request body pricing.PriceListRequest true "Request body"
// @Success      201 {object} dto.Response{data=pricing.PriceListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/price-lists [post]
func (h *PriceListHandler) Create(c *gin.Context) {
	var req pricing.PriceListRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.pricingService.CreatePriceList(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// Get godoc
// @Summary      Get a price list
// @Description  Returns a price list.
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        id path string true "Price list ID" format(uuid)
// @Success      200 {object} dto.Response{data=pricing.PriceListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/price-lists/{id} [get]
func (h *PriceListHandler) Get(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.pricingService.GetPriceList(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List price lists
// @Description  Lists price lists.
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]pricing.PriceListResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/price-lists [get]
func (h *PriceListHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.pricingService.ListPriceLists(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Replace a price list
// @Description  Replaces a price list.
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        id path string true "Price list ID" format(uuid)
// @Param        request body pricing.PriceListRequest true "Request body"
// @Success      200 {object} dto.Response{data=pricing.PriceListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/price-lists/{id} [put]
func (h *PriceListHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req pricing.PriceListRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.pricingService.UpdatePriceList(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Delete godoc
// @Summary      Delete a price list
// @Description  Deletes a price list.
// @Tags         price-lists
// @Accept       json
// @Produce      json
// @Param        id path string true "Price list ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/price-lists/{id} [delete]
func (h *PriceListHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.pricingService.DeletePriceList(c.Request.Context(), id))
}

// TaxHandler handles tax regions and tax rates
type TaxHandler struct {
	BaseHandler
	taxService *tax.Service
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(taxService *tax.Service) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

// CreateRegion godoc
// @Summary      Create a tax region for a country or province
// @Description  Creates a tax region for a country or province.
// @Tags         tax-regions
// @Accept       json
// @Produce      json
// @Param        request body tax.CreateRegionRequest true "Request body"
// @Success      201 {object} dto.Response{data=tax.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-regions [post]
func (h *TaxHandler) CreateRegion(c *gin.Context) {
	var req tax.CreateRegionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.taxService.CreateRegion(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetRegion godoc
// @Summary      Get a tax region
// @Description  Returns a tax region.
// @Tags         tax-regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Tax region ID" format(uuid)
// @Success      200 {object} dto.Response{data=tax.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-regions/{id} [get]
func (h *TaxHandler) GetRegion(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.taxService.GetRegion(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListRegions godoc
// @Summary      List tax regions
// @Description  Lists tax regions.
// @Tags         tax-regions
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]tax.RegionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-regions [get]
func (h *TaxHandler) ListRegions(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.taxService.ListRegions(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// DeleteRegion godoc
// @Summary      Delete a tax region and its rates
// @Description  Deletes a tax region and its rates.
// @Tags         tax-regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Tax region ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-regions/{id} [delete]
func (h *TaxHandler) DeleteRegion(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.taxService.DeleteRegion(c.Request.Context(), id))
}

// CreateRate godoc
// @Summary      Create a tax rate
// @Description  Creates a tax rate.
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Param        request body tax.RateRequest true "Request body"
// @Success      201 {object} dto.Response{data=tax.RateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-rates [post]
func (h *TaxHandler) CreateRate(c *gin.Context) {
	var req tax.RateRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.taxService.CreateRate(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetRate godoc
// @Summary      Get a tax rate
// @Description  Returns a tax rate.
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Param        id path string true "Tax rate ID" format(uuid)
// @Success      200 {object} dto.Response{data=tax.RateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-rates/{id} [get]
func (h *TaxHandler) GetRate(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.taxService.GetRate(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListRates godoc
// @Summary      List tax rates
// @Description  Lists tax rates.
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]tax.RateResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-rates [get]
func (h *TaxHandler) ListRates(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.taxService.ListRates(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// UpdateRate godoc
// @Summary      Update a tax rate
// @Description  Updates a tax rate.
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Param        id path string true "Tax rate ID" format(uuid)
// @Param        request body tax.RateRequest true "Request body"
// @Success      200 {object} dto.Response{data=tax.RateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-rates/{id} [put]
func (h *TaxHandler) UpdateRate(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req tax.RateRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.taxService.UpdateRate(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// DeleteRate godoc
// @Summary      Delete a tax rate
// @Description  Deletes a tax rate.
// @Tags         tax-rates
// @Accept       json
// @Produce      json
// @Param        id path string true "Tax rate ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tax-rates/{id} [delete]
func (h *TaxHandler) DeleteRate(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.taxService.DeleteRate(c.Request.Context(), id))
}

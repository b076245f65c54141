package handler

import (
	"strings"

	"github.com/commerce/backend/internal/application/currency"
	"github.com/commerce/backend/internal/application/region"
	"github.com/gin-gonic/gin"
)

// CurrencyHandler handles currencies
type CurrencyHandler struct {
	BaseHandler
	currencyService *currency.Service
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencyService *currency.Service) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// Create godoc
// @Summary      Register a currency
// @Description  Registers a currency.
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Param        request body currency.CreateCurrencyRequest true "Request body"
// @Success      201 {object} dto.Response{data=currency.CurrencyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/currencies [post]
func (h *CurrencyHandler) Create(c *gin.Context) {
	var req currency.CreateCurrencyRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.currencyService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// Get godoc
// @Summary      Get a currency by its ISO code
// @Description  Returns a currency by its ISO code.
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Param        code path string true "ISO 4217 currency code"
// @Success      200 {object} dto.Response{data=currency.CurrencyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/currencies/{code} [get]
func (h *CurrencyHandler) Get(c *gin.Context) {
	resp, err := h.currencyService.Retrieve(c.Request.Context(), strings.ToLower(c.Param("code")))
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List currencies
// @Description  Lists currencies.
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]currency.CurrencyResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/currencies [get]
func (h *CurrencyHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.currencyService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// RegionHandler handles regions and their countries
type RegionHandler struct {
	BaseHandler
	regionService *region.Service
}

// NewRegionHandler creates a new RegionHandler
func NewRegionHandler(regionService *region.Service) *RegionHandler {
	return &RegionHandler{regionService: regionService}
}

// Create godoc
// @Summary      Create a region
// @Description  Creates a region.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        request body region.CreateRegionRequest true "Request body"
// @Success      201 {object} dto.Response{data=region.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions [post]
func (h *RegionHandler) Create(c *gin.Context) {
	var req region.CreateRegionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.regionService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// Get godoc
// @Summary      Get a region
// @Description  Returns a region. The storefront route needs no token.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Region ID" format(uuid)
// @Success      200 {object} dto.Response{data=region.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions/{id} [get]
// @Router       /store/regions/{id} [get]
func (h *RegionHandler) Get(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.regionService.Retrieve(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List regions
// @Description  Lists regions. Storefront clients use it to pick a region. The storefront route needs no token.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]region.RegionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions [get]
// @Router       /store/regions [get]
func (h *RegionHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.regionService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Update a region
// @Description  Updates a region.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Region ID" format(uuid)
// @Param        request body region.UpdateRegionRequest true "Request body"
// @Success      200 {object} dto.Response{data=region.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions/{id} [put]
func (h *RegionHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req region.UpdateRegionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.regionService.Update(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Delete godoc
// @Summary      Soft delete a region and release its countries
// @Description  Soft deletes a region and releases its countries.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Region ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions/{id} [delete]
func (h *RegionHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.regionService.Delete(c.Request.Context(), id))
}

// AddCountries godoc
// @Summary      Assign countries to a region
// @Description  Assigns countries to a region.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Region ID" format(uuid)
// @Param        request body region.CountriesRequest true "Request body"
// @Success      200 {object} dto.Response{data=region.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions/{id}/countries [post]
func (h *RegionHandler) AddCountries(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req region.CountriesRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.regionService.AddCountries(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// RemoveCountries godoc
// @Summary      Detach countries from a region
// @Description  Detaches countries from a region.
// @Tags         regions
// @Accept       json
// @Produce      json
// @Param        id path string true "Region ID" format(uuid)
// @Param        request body region.CountriesRequest true "Request body"
// @Success      200 {object} dto.Response{data=region.RegionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/regions/{id}/countries [delete]
func (h *RegionHandler) RemoveCountries(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req region.CountriesRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.regionService.RemoveCountries(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// ListCountries godoc
// @Summary      List countries and the region each belongs to
// @Description  Lists countries and the region each belongs to.
// @Tags         countries
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]region.CountryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/countries [get]
func (h *RegionHandler) ListCountries(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.regionService.ListCountries(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

package handler

import (
	"github.com/commerce/backend/internal/application/catalog"
	"github.com/commerce/backend/internal/application/pricing"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler handles products, options, variants and variant prices
type ProductHandler struct {
	BaseHandler
	productService *catalog.ProductService
	pricingService *pricing.Service
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalog.ProductService, pricingService *pricing.Service) *ProductHandler {
	return &ProductHandler{productService: productService, pricingService: pricingService}
}

// Create godoc
// @Summary      Create a product with its options and variants
// @Description  Creates a product with its options and variants.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateProductRequest true "Request body"
// @Success      201 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalog.CreateProductRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.productService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetByID godoc
// @Summary      Get a product in any status
// @Description  Returns a product in any status.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.productService.GetByID(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List products in any status
// @Description  Lists products in any status.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.productService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Update godoc
// @Summary      Update a product
// @Description  Updates a product.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.UpdateProductRequest true "Request body"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.productService.Update(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Delete godoc
// @Summary      Soft delete a product and its variants
// @Description  Soft deletes a product and its variants.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.productService.Delete(c.Request.Context(), id))
}

// AddOption godoc
// @Summary      Add an option to a product
// @Description  Adds an option to a product.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.OptionRequest true "Request body"
// @Success      201 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/options [post]
func (h *ProductHandler) AddOption(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req catalog.OptionRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.productService.AddOption(c.Request.Context(), id, req)
	h.respondCreated(c, resp, err)
}

// RemoveOption godoc
// @Summary      Remove an option no variant depends on
// @Description  Removes an option no variant depends on.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        option_id path string true "Option ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/options/{option_id} [delete]
func (h *ProductHandler) RemoveOption(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	optionID, ok := h.id(c, "option_id")
	if !ok {
		return
	}
	resp, err := h.productService.RemoveOption(c.Request.Context(), id, optionID)
	h.respond(c, resp, err)
}

// AddVariant godoc
// @Summary      Add a variant to a product
// @Description  Adds a variant to a product.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.VariantRequest true "Request body"
// @Success      201 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants [post]
func (h *ProductHandler) AddVariant(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req catalog.VariantRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.productService.AddVariant(c.Request.Context(), id, req)
	h.respondCreated(c, resp, err)
}

// UpdateVariant godoc
// @Summary      Update a variant
// @Description  Updates a variant.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Param        request body catalog.VariantRequest true "Request body"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants/{variant_id} [put]
func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	id, variantID, ok := h.variantPath(c)
	if !ok {
		return
	}
	var req catalog.VariantRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.productService.UpdateVariant(c.Request.Context(), id, variantID, req)
	h.respond(c, resp, err)
}

// RemoveVariant godoc
// @Summary      Soft delete a variant
// @Description  Soft deletes a variant.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants/{variant_id} [delete]
func (h *ProductHandler) RemoveVariant(c *gin.Context) {
	id, variantID, ok := h.variantPath(c)
	if !ok {
		return
	}
	resp, err := h.productService.RemoveVariant(c.Request.Context(), id, variantID)
	h.respond(c, resp, err)
}

// LinkInventoryItem godoc
// @Summary      Link a variant to an existing inventory item
// @Description  Links a variant to an existing inventory item.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Param        request body catalog.LinkInventoryItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=catalog.VariantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants/{variant_id}/inventory-item [post]
func (h *ProductHandler) LinkInventoryItem(c *gin.Context) {
	_, variantID, ok := h.variantPath(c)
	if !ok {
		return
	}
	var req catalog.LinkInventoryItemRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.productService.LinkInventoryItem(c.Request.Context(), variantID, req)
	h.respond(c, resp, err)
}

// GetVariantPrices godoc
// @Summary      Get the base prices of a variant
// @Description  Returns the base prices of a variant.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]pricing.PriceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants/{variant_id}/prices [get]
func (h *ProductHandler) GetVariantPrices(c *gin.Context) {
	_, variantID, ok := h.variantPath(c)
	if !ok {
		return
	}
	prices, err := h.pricingService.GetVariantPrices(c.Request.Context(), variantID)
	h.respond(c, prices, err)
}

// SetVariantPrices godoc
// @Summary      Replace the base prices of a variant
// @Description  Replaces the base prices of a variant.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Param        request body pricing.SetPricesRequest true "Request body"
// @Success      200 {object} dto.Response{data=[]pricing.PriceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants/{variant_id}/prices [put]
func (h *ProductHandler) SetVariantPrices(c *gin.Context) {
	_, variantID, ok := h.variantPath(c)
	if !ok {
		return
	}
	var req pricing.SetPricesRequest
	if !h.bind(c, &req) {
		return
	}
	prices, err := h.pricingService.SetVariantPrices(c.Request.Context(), variantID, req)
	h.respond(c, prices, err)
}

// StoreList godoc
// @Summary      List published products
// @Description  Lists published products, optionally limited to a sales channel with the sales_channel_id query parameter.
// @Tags         store-products
// @Accept       json
// @Produce      json
// @Param        sales_channel_id query string false "Sales channel ID" format(uuid)
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/products [get]
func (h *ProductHandler) StoreList(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	q = q.WithFilter("status", "published")
	result, err := h.productService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// StoreGet godoc
// @Summary      Get a published product
// @Description  Returns a published product by id or handle.
// @Tags         store-products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID or handle"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/products/{id} [get]
func (h *ProductHandler) StoreGet(c *gin.Context) {
	var channelID *uuid.UUID
	if raw := c.Query("sales_channel_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.HandleError(c, shared.NewInvalidDataError("sales_channel_id", "Invalid UUID format"))
			return
		}
		channelID = &id
	}
	resp, err := h.productService.GetPublished(c.Request.Context(), c.Param("id"), channelID)
	h.respond(c, resp, err)
}

// CalculatePrices godoc
// @Summary      Calculate variant prices
// @Description  Returns the best price of each variant for a currency, region, quantity and customer groups.
// @Tags         store-prices
// @Accept       json
// @Produce      json
// @Param        request body pricing.CalculateRequest true "Request body"
// @Success      200 {object} dto.Response{data=[]object}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/prices/calculate [post]
func (h *ProductHandler) CalculatePrices(c *gin.Context) {
	var req pricing.CalculateRequest
	if !h.bind(c, &req) {
		return
	}
	prices, err := h.pricingService.Calculate(c.Request.Context(), req)
	h.respond(c, prices, err)
}

func (h *ProductHandler) variantPath(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := h.id(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	variantID, ok := h.id(c, "variant_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return id, variantID, true
}

package handler

import (
	"github.com/commerce/backend/internal/application/cart"
	"github.com/commerce/backend/internal/application/checkout"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry cart completion safely
const IdempotencyKeyHeader = "Idempotency-Key"

// CartHandler handles storefront carts and checkout
type CartHandler struct {
	BaseHandler
	cartService     *cart.Service
	checkoutService *checkout.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cart.Service, checkoutService *checkout.Service) *CartHandler {
	return &CartHandler{cartService: cartService, checkoutService: checkoutService}
}

// Create godoc
// @Summary      Create a cart
// @Description  Creates a cart.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        request body cart.CreateCartRequest false "Request body"
// @Success      201 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts [post]
func (h *CartHandler) Create(c *gin.Context) {
	var req cart.CreateCartRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// Get godoc
// @Summary      Get a cart with fresh totals
// @Description  Returns a cart with fresh totals.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id} [get]
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.cartService.Retrieve(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// Update godoc
// @Summary      Change the region, email or addresses of a cart
// @Description  Changes the region, email or addresses of a cart.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        request body cart.UpdateCartRequest true "Request body"
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id} [post]
func (h *CartHandler) Update(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req cart.UpdateCartRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.Update(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// AddLineItem godoc
// @Summary      Add a variant to a cart, merging with an existing line
// @Description  Adds a variant to a cart, merging with an existing line.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        request body cart.LineItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/line-items [post]
func (h *CartHandler) AddLineItem(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req cart.LineItemRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.AddLineItem(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// UpdateLineItem godoc
// @Summary      Set a line quantity
// @Description  Sets a line quantity.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        line_id path string true "Line item ID" format(uuid)
// @Param        request body cart.UpdateLineItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/line-items/{line_id} [post]
func (h *CartHandler) UpdateLineItem(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.id(c, "line_id")
	if !ok {
		return
	}
	var req cart.UpdateLineItemRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.UpdateLineItem(c.Request.Context(), id, lineID, req)
	h.respond(c, resp, err)
}

// RemoveLineItem godoc
// @Summary      Remove a line
// @Description  Removes a line.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        line_id path string true "Line item ID" format(uuid)
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/line-items/{line_id} [delete]
func (h *CartHandler) RemoveLineItem(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.id(c, "line_id")
	if !ok {
		return
	}
	resp, err := h.cartService.RemoveLineItem(c.Request.Context(), id, lineID)
	h.respond(c, resp, err)
}

// ListShippingOptions godoc
// @Summary      List the options the cart can select
// @Description  Lists the options the cart can select.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]cart.ShippingOptionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/shipping-options [get]
func (h *CartHandler) ListShippingOptions(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.cartService.ListShippingOptions(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// AddShippingMethod godoc
// @Summary      Select a shipping option
// @Description  Selects a shipping option.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        request body cart.ShippingMethodRequest true "Request body"
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/shipping-methods [post]
func (h *CartHandler) AddShippingMethod(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req cart.ShippingMethodRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.AddShippingMethod(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// ApplyPromotions godoc
// @Summary      Apply promotion codes
// @Description  Applies promotion codes.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        request body cart.PromotionsRequest true "Request body"
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/promotions [post]
func (h *CartHandler) ApplyPromotions(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req cart.PromotionsRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.ApplyPromotions(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// RemovePromotions godoc
// @Summary      Remove promotion codes
// @Description  Removes promotion codes.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart ID" format(uuid)
// @Param        request body cart.PromotionsRequest true "Request body"
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/promotions [delete]
func (h *CartHandler) RemovePromotions(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req cart.PromotionsRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.cartService.RemovePromotions(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// Complete godoc
// @Summary      Place the order for a cart
// @Description  Places the order for a cart. Repeating the call with the same Idempotency-Key returns the same order.
// @Tags         store-carts
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Key that makes retries return the same order"
// @Param        id path string true "Cart ID" format(uuid)
// @Param        request body checkout.CompleteCartRequest false "Request body"
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/carts/{id}/complete [post]
func (h *CartHandler) Complete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req checkout.CompleteCartRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	resp, err := h.checkoutService.CompleteCart(c.Request.Context(), id, req, c.GetHeader(IdempotencyKeyHeader))
	h.respond(c, resp, err)
}

package handler

import (
	"github.com/commerce/backend/internal/application/payment"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payments and payment collections
type PaymentHandler struct {
	BaseHandler
	paymentService *payment.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *payment.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// List godoc
// @Summary      List payments
// @Description  Lists payments.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]payment.PaymentResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.paymentService.ListPayments(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// GetCollection godoc
// @Summary      Get a payment collection with its payments
// @Description  Returns a payment collection with its payments.
// @Tags         payment-collections
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment collection ID" format(uuid)
// @Success      200 {object} dto.Response{data=payment.CollectionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/payment-collections/{id} [get]
func (h *PaymentHandler) GetCollection(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.paymentService.GetCollection(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// Capture godoc
// @Summary      Capture an authorized payment, fully or partially
// @Description  Captures an authorized payment, fully or partially.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body payment.CaptureRequest false "Request body"
// @Success      200 {object} dto.Response{data=payment.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/payments/{id}/capture [post]
func (h *PaymentHandler) Capture(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req payment.CaptureRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	resp, err := h.paymentService.Capture(c.Request.Context(), id, req, actor(c))
	h.respond(c, resp, err)
}

// Refund godoc
// @Summary      Refund part of the captured amount
// @Description  Refunds part of the captured amount.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body payment.RefundRequest true "Request body"
// @Success      200 {object} dto.Response{data=payment.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req payment.RefundRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.paymentService.Refund(c.Request.Context(), id, req, actor(c))
	h.respond(c, resp, err)
}

// Cancel godoc
// @Summary      Void an uncaptured payment
// @Description  Voids an uncaptured payment.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=payment.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.paymentService.CancelPayment(c.Request.Context(), id)
	h.respond(c, resp, err)
}

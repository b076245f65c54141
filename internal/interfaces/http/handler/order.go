package handler

import (
	"github.com/commerce/backend/internal/application/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles orders, fulfillments and returns
type OrderHandler struct {
	BaseHandler
	orderService *order.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Get godoc
// @Summary      Get an order
// @Description  Returns an order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.Retrieve(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// List godoc
// @Summary      List orders
// @Description  Lists orders.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]order.OrderResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.orderService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// Cancel godoc
// @Summary      Cancel an order, refunding or voiding its payments and releasing stock
// @Description  Cancels an order, refunding or voiding its payments and releasing stock.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.Cancel(c.Request.Context(), id, actor(c))
	h.respond(c, resp, err)
}

// Complete godoc
// @Summary      Mark an order completed
// @Description  Marks an order completed.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.Complete(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// Archive godoc
// @Summary      Archive a completed or canceled order
// @Description  Archives a completed or canceled order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/archive [post]
func (h *OrderHandler) Archive(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.Archive(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// CapturePayment godoc
// @Summary      Capture every authorized payment of the order
// @Description  Captures every authorized payment of the order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/capture [post]
func (h *OrderHandler) CapturePayment(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.CapturePayment(c.Request.Context(), id, actor(c))
	h.respond(c, resp, err)
}

// ListFulfillments godoc
// @Summary      List the fulfillments of an order
// @Description  Lists the fulfillments of an order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]order.FulfillmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/fulfillments [get]
func (h *OrderHandler) ListFulfillments(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.ListFulfillments(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// CreateFulfillment godoc
// @Summary      Fulfill order items from a stock location
// @Description  Fulfills order items from a stock location.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body order.CreateFulfillmentRequest false "Request body"
// @Success      201 {object} dto.Response{data=order.FulfillmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/fulfillments [post]
func (h *OrderHandler) CreateFulfillment(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req order.CreateFulfillmentRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	resp, err := h.orderService.CreateFulfillment(c.Request.Context(), id, req)
	h.respondCreated(c, resp, err)
}

// ShipFulfillment godoc
// @Summary      Mark a fulfillment shipped
// @Description  Marks a fulfillment shipped.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        fulfillment_id path string true "Fulfillment ID" format(uuid)
// @Param        request body order.ShipFulfillmentRequest false "Request body"
// @Success      200 {object} dto.Response{data=order.FulfillmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/fulfillments/{fulfillment_id}/ship [post]
func (h *OrderHandler) ShipFulfillment(c *gin.Context) {
	id, fulfillmentID, ok := h.childPath(c, "fulfillment_id")
	if !ok {
		return
	}
	var req order.ShipFulfillmentRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	resp, err := h.orderService.ShipFulfillment(c.Request.Context(), id, fulfillmentID, req)
	h.respond(c, resp, err)
}

// MarkDelivered godoc
// @Summary      Mark a shipped fulfillment delivered
// @Description  Marks a shipped fulfillment delivered.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        fulfillment_id path string true "Fulfillment ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.FulfillmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/fulfillments/{fulfillment_id}/deliver [post]
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	id, fulfillmentID, ok := h.childPath(c, "fulfillment_id")
	if !ok {
		return
	}
	resp, err := h.orderService.MarkDelivered(c.Request.Context(), id, fulfillmentID)
	h.respond(c, resp, err)
}

// CancelFulfillment godoc
// @Summary      Cancel an unshipped fulfillment and restock its items
// @Description  Cancels an unshipped fulfillment and restocks its items.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        fulfillment_id path string true "Fulfillment ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.FulfillmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/fulfillments/{fulfillment_id}/cancel [post]
func (h *OrderHandler) CancelFulfillment(c *gin.Context) {
	id, fulfillmentID, ok := h.childPath(c, "fulfillment_id")
	if !ok {
		return
	}
	resp, err := h.orderService.CancelFulfillment(c.Request.Context(), id, fulfillmentID)
	h.respond(c, resp, err)
}

// ListReturns godoc
// @Summary      List the returns of an order
// @Description  Lists the returns of an order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]order.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/returns [get]
func (h *OrderHandler) ListReturns(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.ListReturns(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// RequestReturn godoc
// @Summary      Request the return of shipped items
// @Description  Requests the return of shipped items.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body order.RequestReturnRequest true "Request body"
// @Success      201 {object} dto.Response{data=order.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/returns [post]
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req order.RequestReturnRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.orderService.RequestReturn(c.Request.Context(), id, req)
	h.respondCreated(c, resp, err)
}

// ReceiveReturn godoc
// @Summary      Receive returned items, restocking them and refunding the order
// @Description  Receives returned items, restocking them and refunding the order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        return_id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/returns/{return_id}/receive [post]
func (h *OrderHandler) ReceiveReturn(c *gin.Context) {
	id, returnID, ok := h.childPath(c, "return_id")
	if !ok {
		return
	}
	resp, err := h.orderService.ReceiveReturn(c.Request.Context(), id, returnID, actor(c))
	h.respond(c, resp, err)
}

// CancelReturn godoc
// @Summary      Cancel a requested return
// @Description  Cancels a requested return.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        return_id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/returns/{return_id}/cancel [post]
func (h *OrderHandler) CancelReturn(c *gin.Context) {
	id, returnID, ok := h.childPath(c, "return_id")
	if !ok {
		return
	}
	resp, err := h.orderService.CancelReturn(c.Request.Context(), id, returnID)
	h.respond(c, resp, err)
}

// StoreGet godoc
// @Summary      Get an order by its id
// @Description  Returns an order to the storefront by its id.
// @Tags         store-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=order.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /store/orders/{id} [get]
func (h *OrderHandler) StoreGet(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.Retrieve(c.Request.Context(), id)
	h.respond(c, resp, err)
}

func (h *OrderHandler) childPath(c *gin.Context, child string) (uuid.UUID, uuid.UUID, bool) {
	id, ok := h.id(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	childID, ok := h.id(c, child)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return id, childID, true
}

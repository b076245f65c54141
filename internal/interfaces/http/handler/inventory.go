package handler

import (
	"github.com/commerce/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler handles stock locations, inventory items, levels and reservations
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventory.Service
	locationService  *inventory.LocationService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventory.Service, locationService *inventory.LocationService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, locationService: locationService}
}

// CreateLocation godoc
// @Summary      Create a stock location
// @Description  Creates a stock location.
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        request body inventory.LocationRequest true "Request body"
// @Success      201 {object} dto.Response{data=inventory.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stock-locations [post]
func (h *InventoryHandler) CreateLocation(c *gin.Context) {
	var req inventory.LocationRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.locationService.Create(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetLocation godoc
// @Summary      Get a stock location
// @Description  Returns a stock location.
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock location ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventory.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stock-locations/{id} [get]
func (h *InventoryHandler) GetLocation(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.locationService.Get(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListLocations godoc
// @Summary      List stock locations
// @Description  Lists stock locations.
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]inventory.LocationResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stock-locations [get]
func (h *InventoryHandler) ListLocations(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.locationService.List(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// UpdateLocation godoc
// @Summary      Replace a stock location
// @Description  Replaces a stock location.
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock location ID" format(uuid)
// @Param        request body inventory.LocationRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventory.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stock-locations/{id} [put]
func (h *InventoryHandler) UpdateLocation(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req inventory.LocationRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.locationService.Update(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// DeleteLocation godoc
// @Summary      Soft delete a stock location
// @Description  Soft deletes a stock location.
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock location ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stock-locations/{id} [delete]
func (h *InventoryHandler) DeleteLocation(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.locationService.Delete(c.Request.Context(), id))
}

// CreateItem godoc
// @Summary      Create an inventory item
// @Description  Creates an inventory item.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        request body inventory.ItemRequest true "Request body"
// @Success      201 {object} dto.Response{data=inventory.ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req inventory.ItemRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.inventoryService.CreateItem(c.Request.Context(), req)
	h.respondCreated(c, resp, err)
}

// GetItem godoc
// @Summary      Get an inventory item with its levels
// @Description  Returns an inventory item with its levels.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventory.ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventoryService.GetItem(c.Request.Context(), id)
	h.respond(c, resp, err)
}

// ListItems godoc
// @Summary      List inventory items
// @Description  Lists inventory items.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]inventory.ItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.inventoryService.ListItems(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// UpdateItem godoc
// @Summary      Replace an inventory item
// @Description  Replaces an inventory item.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        request body inventory.ItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventory.ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req inventory.ItemRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.inventoryService.UpdateItem(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// DeleteItem godoc
// @Summary      Soft delete an inventory item
// @Description  Soft deletes an inventory item.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.inventoryService.DeleteItem(c.Request.Context(), id))
}

// ListLevels godoc
// @Summary      List the location levels of an item
// @Description  Lists the location levels of an item.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]inventory.LevelResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id}/location-levels [get]
func (h *InventoryHandler) ListLevels(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.inventoryService.ListLevels(c.Request.Context(), q.WithFilter("inventory_item_id", id.String()))
	respondList(&h.BaseHandler, c, result, err)
}

// CreateLevel godoc
// @Summary      Stock an item at a location
// @Description  Stocks an item at a location.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        request body inventory.CreateLevelRequest true "Request body"
// @Success      201 {object} dto.Response{data=inventory.LevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id}/location-levels [post]
func (h *InventoryHandler) CreateLevel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req inventory.CreateLevelRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.inventoryService.CreateLevel(c.Request.Context(), id, req)
	h.respondCreated(c, resp, err)
}

// UpdateLevel godoc
// @Summary      Set the stocked or incoming quantity at a location
// @Description  Sets the stocked or incoming quantity at a location.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        location_id path string true "Stock location ID" format(uuid)
// @Param        request body inventory.UpdateLevelRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventory.LevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id}/location-levels/{location_id} [put]
func (h *InventoryHandler) UpdateLevel(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	locationID, ok := h.id(c, "location_id")
	if !ok {
		return
	}
	var req inventory.UpdateLevelRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.inventoryService.UpdateLevel(c.Request.Context(), id, locationID, req)
	h.respond(c, resp, err)
}

// Adjust godoc
// @Summary      Change the stocked quantity at a location by a signed delta
// @Description  Changes the stocked quantity at a location by a signed delta.
// @Tags         inventory-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        request body inventory.AdjustRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventory.LevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/inventory-items/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	var req inventory.AdjustRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.inventoryService.AdjustInventory(c.Request.Context(), id, req)
	h.respond(c, resp, err)
}

// ListReservations godoc
// @Summary      List reservations
// @Description  Lists reservations.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        q query string false "Search term"
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Param        offset query int false "Items to skip" default(0)
// @Param        order query string false "Sort field, prefixed with - for descending"
// @Success      200 {object} dto.Response{data=[]inventory.ReservationResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/reservations [get]
func (h *InventoryHandler) ListReservations(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.inventoryService.ListReservations(c.Request.Context(), q)
	respondList(&h.BaseHandler, c, result, err)
}

// CreateReservation godoc
// @Summary      Hold stock outside of checkout
// @Description  Holds stock outside of checkout.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        request body inventory.ReservationRequest true "Request body"
// @Success      201 {object} dto.Response{data=[]inventory.ReservationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/reservations [post]
func (h *InventoryHandler) CreateReservation(c *gin.Context) {
	var req inventory.ReservationRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.inventoryService.CreateReservations(c.Request.Context(), []inventory.ReservationRequest{req})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp[0])
}

// DeleteReservation godoc
// @Summary      Release a reservation
// @Description  Releases a reservation.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        id path string true "Reservation ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/reservations/{id} [delete]
func (h *InventoryHandler) DeleteReservation(c *gin.Context) {
	id, ok := h.id(c, "id")
	if !ok {
		return
	}
	h.respondNoContent(c, h.inventoryService.DeleteReservations(c.Request.Context(), []uuid.UUID{id}))
}

package handler

import (
	"strconv"

	"github.com/commerce/backend/internal/application/catalog"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductImportHandler creates products from an uploaded CSV file
type ProductImportHandler struct {
	BaseHandler
	importService *catalog.ImportService
}

// NewProductImportHandler creates a new ProductImportHandler
func NewProductImportHandler(importService *catalog.ImportService) *ProductImportHandler {
	return &ProductImportHandler{importService: importService}
}

// Import godoc
// @Summary      Import products from CSV
// @Description  Reads the "file" form field. dry_run=true only validates. Repeated sales_channel_id form values assign the created products.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file with one row per variant"
// @Param        sales_channel_id formData []string false "Sales channels of the created products" collectionFormat(multi)
// @Param        dry_run query boolean false "Only validate the file" default(false)
// @Success      200 {object} dto.Response{data=catalog.ImportResult} "Dry run"
// @Success      201 {object} dto.Response{data=catalog.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/import [post]
func (h *ProductImportHandler) Import(c *gin.Context) {
	fh, err := c.FormFile(formFieldFile)
	if err != nil {
		h.HandleError(c, shared.NewInvalidDataError(formFieldFile, "A multipart form with a CSV file is required"))
		return
	}

	opts := catalog.ImportOptions{}
	if raw := c.Query("dry_run"); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			h.HandleError(c, shared.NewInvalidDataError("dry_run", "Must be true or false"))
			return
		}
		opts.DryRun = dryRun
	}
	for _, raw := range c.PostFormArray("sales_channel_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.HandleError(c, shared.NewInvalidDataError("sales_channel_id", "Invalid UUID format"))
			return
		}
		opts.SalesChannelIDs = append(opts.SalesChannelIDs, id)
	}

	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	result, err := h.importService.Import(c.Request.Context(), f, opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if opts.DryRun {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

package handler

import (
	"mime/multipart"

	"github.com/commerce/backend/internal/application/catalog"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// multipart form fields accepted by Upload
const (
	formFieldFiles = "files"
	formFieldFile  = "file"
)

// UploadHandler handles product image uploads
type UploadHandler struct {
	BaseHandler
	uploadService *catalog.UploadService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploadService *catalog.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// DeleteUploadRequest names a stored file
type DeleteUploadRequest struct {
	Key string `json:"key" binding:"required"`
}

// Upload godoc
// @Summary      Store the files of a multipart form
// @Description  Stores the files of a multipart form.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        files formData file true "Files to store"
// @Success      201 {object} dto.Response{data=[]catalog.UploadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.HandleError(c, shared.NewInvalidDataError(formFieldFiles, "A multipart form with files is required"))
		return
	}
	headers := append(form.File[formFieldFiles], form.File[formFieldFile]...)

	files := make([]catalog.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(f)
		files = append(files, catalog.UploadFile{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	resp, err := h.uploadService.Upload(c.Request.Context(), files)
	h.respondCreated(c, resp, err)
}

// Delete godoc
// @Summary      Remove a stored file
// @Description  Removes a stored file.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request body DeleteUploadRequest true "Request body"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /uploads [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	var req DeleteUploadRequest
	if !h.bind(c, &req) {
		return
	}
	h.respondNoContent(c, h.uploadService.Delete(c.Request.Context(), req.Key))
}

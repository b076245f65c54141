package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/logger"
	"github.com/commerce/backend/internal/interfaces/http/dto"
	"github.com/commerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Query parameters consumed by list endpoints. Every other parameter is a filter.
const (
	queryLimit  = "limit"
	queryOffset = "offset"
	queryOrder  = "order"
	querySearch = "q"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// getUserID extracts the authenticated user ID
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := middleware.GetJWTUserID(c)
	if userIDStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(userIDStr)
}

// actor names who performs an admin action, recorded on payments and returns
func actor(c *gin.Context) string {
	return middleware.GetJWTUserID(c)
}

// pathID parses a UUID path parameter
func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, shared.NewInvalidDataError(name, "Invalid UUID format")
	}
	return id, nil
}

// listQuery reads pagination, ordering, search and filters from the query string.
// Values of "__in" filters are comma separated.
func listQuery(c *gin.Context) (shared.ListQuery, error) {
	q := shared.NewListQuery()
	var v shared.Validator

	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[len(values)-1]
		switch key {
		case queryLimit:
			n, err := strconv.Atoi(value)
			v.Check(err == nil && n > 0, key, "Must be a positive integer")
			q.Limit = n
		case queryOffset:
			n, err := strconv.Atoi(value)
			v.Check(err == nil && n >= 0, key, "Must be a non-negative integer")
			q.Offset = n
		case queryOrder:
			q.Order = value
		case querySearch:
			q.Search = value
		default:
			if strings.HasSuffix(key, "__in") {
				q.Filters[key] = strings.Split(value, ",")
			} else {
				q.Filters[key] = value
			}
		}
	}

	if err := v.Err(); err != nil {
		return q, err
	}
	return q.Normalize(), nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts service errors to HTTP responses. Validation errors
// carry their issues as details; unknown errors are logged and hidden.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := getRequestID(c)

	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		status, resp := dto.FromValidationError(validationErr, requestID)
		c.JSON(status, resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.DomainErrorStatus(domainErr.Code)
		if status >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("Request failed", zap.Error(err))
		}
		c.JSON(status, dto.NewErrorResponseWithRequestID(dto.NormalizeErrorCode(domainErr.Code), domainErr.Message, requestID))
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unexpected error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// bind decodes and validates the JSON body, writing the error response on failure
func (h *BaseHandler) bind(c *gin.Context, obj any) bool {
	if err := middleware.BindAndValidate(c, obj); err != nil {
		h.HandleError(c, err)
		return false
	}
	return true
}

// id parses a UUID path parameter, writing the error response on failure
func (h *BaseHandler) id(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := pathID(c, name)
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// query reads list options, writing the error response on failure
func (h *BaseHandler) query(c *gin.Context) (shared.ListQuery, bool) {
	q, err := listQuery(c)
	if err != nil {
		h.HandleError(c, err)
		return q, false
	}
	return q, true
}

// respond writes data or the error of a service call
func (h *BaseHandler) respond(c *gin.Context, data any, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// respondCreated writes a 201 or the error of a service call
func (h *BaseHandler) respondCreated(c *gin.Context, data any, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, data)
}

// respondList writes one page of a list or the error of a service call
func respondList[T any](h *BaseHandler, c *gin.Context, result shared.ListResult[T], err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(result))
}

// respondNoContent writes a 204 or the error of a service call
func (h *BaseHandler) respondNoContent(c *gin.Context, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

package dto

import "github.com/commerce/backend/internal/domain/shared"

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail is one failing field of a rejected request
type ValidationDetail struct {
	Field   string `json:"field,omitempty"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Meta represents pagination metadata
type Meta struct {
	Count  int64 `json:"count"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewListResponse creates a success response from one page of a list
func NewListResponse[T any](result shared.ListResult[T]) Response {
	return Response{
		Success: true,
		Data:    result.Items,
		Meta: &Meta{
			Count:  result.Count,
			Limit:  result.Limit,
			Offset: result.Offset,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response carrying the request id
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a 400 response listing every failing field
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// FromValidationError converts a ValidationError into a status and response body.
// The kind of the first issue decides the status.
func FromValidationError(err *shared.ValidationError, requestID string) (int, Response) {
	code := ErrCodeValidation
	message := "Request validation failed"
	switch err.Kind() {
	case shared.IssueNotFound:
		code = ErrCodeNotFound
		message = err.Issues[0].Message
	case shared.IssueNotUnique:
		code = ErrCodeAlreadyExists
		message = err.Issues[0].Message
	}

	details := make([]ValidationDetail, 0, len(err.Issues))
	for _, issue := range err.Issues {
		details = append(details, ValidationDetail{
			Field:   issue.Path,
			Type:    issue.Type,
			Message: issue.Message,
		})
	}

	resp := NewErrorResponseWithRequestID(code, message, requestID)
	resp.Error.Details = details
	return GetHTTPStatus(code), resp
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

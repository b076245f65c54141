package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientInventory, http.StatusUnprocessableEntity},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInsufficientInventory, NormalizeErrorCode("INSUFFICIENT_INVENTORY"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CART_COMPLETED", NormalizeErrorCode("CART_COMPLETED"))
}

func TestDomainErrorStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"INVALID_STATE", http.StatusUnprocessableEntity},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"INVALID_CREDENTIALS", http.StatusUnauthorized},
		{"TOKEN_REUSED", http.StatusUnauthorized},
		{"ACCOUNT_LOCKED", http.StatusForbidden},
		{"CHECKOUT_IN_PROGRESS", http.StatusConflict},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
		{"CART_COMPLETED", http.StatusUnprocessableEntity},
		{"ORDER_NOT_CANCELABLE", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainErrorStatus(tt.code))
		})
	}
}

func TestErrorCodeFormat(t *testing.T) {
	for code := range ErrorCodeHTTPStatus {
		assert.Contains(t, code, "ERR_", "Error code should start with ERR_")
	}
	for _, code := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "mapped code %s should have a status", code)
	}
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "email", Type: shared.IssueInvalidData, Message: "Invalid email format"},
		{Field: "quantity", Type: shared.IssueInvalidData, Message: "Must be at least 1"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "email", resp.Error.Details[0].Field)
}

func TestFromValidationError(t *testing.T) {
	t.Run("invalid data", func(t *testing.T) {
		var v shared.Validator
		v.Check(false, "email", "email is required")
		v.Check(false, "items.0.quantity", "quantity must be positive")
		verr := v.Err().(*shared.ValidationError)

		status, resp := FromValidationError(verr, "req-1")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "items.0.quantity", resp.Error.Details[1].Field)
	})

	t.Run("not found", func(t *testing.T) {
		status, resp := FromValidationError(shared.NewNotFoundError("Product", "p1"), "req-2")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "Product with id p1 was not found", resp.Error.Message)
	})

	t.Run("not unique", func(t *testing.T) {
		status, resp := FromValidationError(shared.NewNotUniqueError("Customer", "email", "a@b.c"), "")

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, ErrCodeAlreadyExists, resp.Error.Code)
		assert.Equal(t, shared.IssueNotUnique, resp.Error.Details[0].Type)
	})
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "User not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.Nil(t, decoded["data"])
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	assert.NotContains(t, errObj, "details")
}

func TestNewListResponse(t *testing.T) {
	q := shared.ListQuery{Limit: 10, Offset: 20}
	resp := NewListResponse(shared.NewListResult([]string{"a", "b"}, 22, q))

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(22), resp.Meta.Count)
	assert.Equal(t, 10, resp.Meta.Limit)
	assert.Equal(t, 20, resp.Meta.Offset)
}

func TestNewListResponse_EmptyItemsSerializeAsArray(t *testing.T) {
	resp := NewListResponse(shared.NewListResult[string](nil, 0, shared.NewListQuery()))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":[]`)
}

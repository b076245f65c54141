package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Kinds(t *testing.T) {
	notFound := NewNotFoundError("Product", "prod_1")
	assert.Equal(t, IssueNotFound, notFound.Kind())
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", notFound)))

	notUnique := NewNotUniqueError("Product", "handle", "shirt")
	assert.Equal(t, IssueNotUnique, notUnique.Kind())
	assert.False(t, IsNotFound(notUnique))
	assert.True(t, IsNotUnique(fmt.Errorf("wrapped: %w", notUnique)))
	assert.False(t, IsNotUnique(notFound))
	assert.Equal(t, "handle: Product with handle shirt already exists", notUnique.Error())

	assert.True(t, IsNotFound(ErrNotFound))
}

func TestDomainError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("reserve: %w", NewDomainError("INSUFFICIENT_INVENTORY", "only 2 left"))
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrInvalidState))
}

func TestValidator(t *testing.T) {
	var v Validator
	v.Check(true, "title", "title is required")
	assert.NoError(t, v.Err())

	v.Check(false, "title", "title is required")
	v.Check(false, "variants.0.sku", "sku is required")
	assert.True(t, v.Merge(NewNotUniqueError("Product", "handle", "x")))
	assert.False(t, v.Merge(errors.New("plain")))

	err := v.Err()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 3)
	assert.Equal(t, "variants.0.sku", verr.Issues[1].Path)
	assert.Equal(t, IssueInvalidData, verr.Kind())
}

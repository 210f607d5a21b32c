package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "order not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("test not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "test not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading order: %w", NewNotFoundError("order not found"))

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, "order not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "customerName", Message: "required field"},
		{Field: "items", Message: "must not be empty"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Len(t, err.Details, 2)
}

func TestInvalidAdjustmentError(t *testing.T) {
	err := NewInvalidAdjustmentError("v-1", -15, "stock cannot go negative")

	iae, ok := IsInvalidAdjustmentError(err)
	assert.True(t, ok)
	assert.Equal(t, "v-1", iae.VariantID)
	assert.Equal(t, -15, iae.Delta)
	assert.Equal(t, "stock cannot go negative", err.Error())
}

func TestInvalidVariantError(t *testing.T) {
	err := fmt.Errorf("consume: %w", NewInvalidVariantError("v-9"))

	ive, ok := IsInvalidVariantError(err)
	assert.True(t, ok)
	assert.Equal(t, "v-9", ive.VariantID)
	assert.Contains(t, err.Error(), "v-9")
}

func TestOrderCreationFailedError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewOrderCreationFailedError("reserving order items", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "reserving order items")
	assert.Contains(t, err.Error(), "connection reset")

	_, ok := IsOrderCreationFailedError(err)
	assert.True(t, ok)
}

func TestRollbackError(t *testing.T) {
	cause := errors.New("database unavailable")
	err := NewRollbackError([]string{"v-1", "v-2"}, cause)

	re, ok := IsRollbackError(err)
	assert.True(t, ok)
	assert.Equal(t, []string{"v-1", "v-2"}, re.VariantIDs)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "v-1, v-2")
}

func TestConcurrencyConflictError(t *testing.T) {
	err := NewConcurrencyConflictError("order status changed concurrently")

	_, ok := IsConcurrencyConflictError(err)
	assert.True(t, ok)

	_, ok = IsConcurrencyConflictError(errors.New("other"))
	assert.False(t, ok)
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

// InvalidAdjustmentError reports a direct stock edit that would leave
// stock_quantity below zero.
type InvalidAdjustmentError struct {
	VariantID string
	Delta     int
	Message   string
}

func (e *InvalidAdjustmentError) Error() string {
	return e.Message
}

func NewInvalidAdjustmentError(variantID string, delta int, message string) *InvalidAdjustmentError {
	return &InvalidAdjustmentError{
		VariantID: variantID,
		Delta:     delta,
		Message:   message,
	}
}

func IsInvalidAdjustmentError(err error) (*InvalidAdjustmentError, bool) {
	var iae *InvalidAdjustmentError
	if stderrors.As(err, &iae) {
		return iae, true
	}
	return nil, false
}

// InvalidVariantError is returned when an order item points at a variant
// the ledger does not know.
type InvalidVariantError struct {
	VariantID string
}

func (e *InvalidVariantError) Error() string {
	return fmt.Sprintf("product variant %s does not exist", e.VariantID)
}

func NewInvalidVariantError(variantID string) *InvalidVariantError {
	return &InvalidVariantError{VariantID: variantID}
}

func IsInvalidVariantError(err error) (*InvalidVariantError, bool) {
	var ive *InvalidVariantError
	if stderrors.As(err, &ive) {
		return ive, true
	}
	return nil, false
}

type OrderCreationFailedError struct {
	Message string
	Cause   error
}

func (e *OrderCreationFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *OrderCreationFailedError) Unwrap() error {
	return e.Cause
}

func NewOrderCreationFailedError(message string, cause error) *OrderCreationFailedError {
	return &OrderCreationFailedError{
		Message: message,
		Cause:   cause,
	}
}

func IsOrderCreationFailedError(err error) (*OrderCreationFailedError, bool) {
	var ocf *OrderCreationFailedError
	if stderrors.As(err, &ocf) {
		return ocf, true
	}
	return nil, false
}

// RollbackError means a compensating ledger operation failed. Counters for
// VariantIDs may no longer match the orders that reference them and need an
// operator to reconcile.
type RollbackError struct {
	VariantIDs []string
	Cause      error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("insufficient reservation rollback for variants [%s]: %v", strings.Join(e.VariantIDs, ", "), e.Cause)
}

func (e *RollbackError) Unwrap() error {
	return e.Cause
}

func NewRollbackError(variantIDs []string, cause error) *RollbackError {
	return &RollbackError{
		VariantIDs: variantIDs,
		Cause:      cause,
	}
}

func IsRollbackError(err error) (*RollbackError, bool) {
	var re *RollbackError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

type ConcurrencyConflictError struct {
	Message string
}

func (e *ConcurrencyConflictError) Error() string {
	return e.Message
}

func NewConcurrencyConflictError(message string) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{Message: message}
}

func IsConcurrencyConflictError(err error) (*ConcurrencyConflictError, bool) {
	var cce *ConcurrencyConflictError
	if stderrors.As(err, &cce) {
		return cce, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

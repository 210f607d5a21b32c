package dto

import (
	"time"

	apperrors "stockledger/internal/errors"
)

type ErrorResponse struct {
	TraceID   string        `json:"traceId"`
	Status    int           `json:"status"`
	Message   string        `json:"message"`
	Code      string        `json:"code"`
	Details   *ErrorDetails `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type ErrorDetails struct {
	VariantIDs []string `json:"variantIds,omitempty"`
}

type ValidationErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

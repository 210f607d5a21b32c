package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"stockledger/internal/dto"
	apperrors "stockledger/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a JSON body into dest and checks its validate tags. Problems
// are returned as a ValidationError.
func Decode(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON: " + err.Error(),
		})
	}
	return Validate(dest)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	details := make([]apperrors.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fieldPath(fe.Namespace()),
			Message: messageFor(fe),
		})
	}
	return apperrors.NewValidationError("validation failed", details...)
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " failed " + fe.Tag() + " validation"
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		Logger(r.Context()).Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, r *http.Request, message string, details ...apperrors.ValidationDetail) {
	WriteJSON(w, r, http.StatusBadRequest, dto.ValidationErrorResponse{
		TraceID: TraceID(r.Context()),
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

// WriteError maps an error from the error taxonomy onto its HTTP status and
// code. Unknown errors become a 500 with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := Logger(r.Context())

	if ve, ok := apperrors.IsValidationError(err); ok {
		logger.Warn("validation failed", zap.String("message", ve.Message))
		WriteValidationError(w, r, ve.Message, ve.Details...)
		return
	}

	status, code := StatusFor(err)
	message := err.Error()
	var details *dto.ErrorDetails

	switch {
	case code == CodeLedgerInconsistent:
		re, _ := apperrors.IsRollbackError(err)
		details = &dto.ErrorDetails{VariantIDs: re.VariantIDs}
		logger.Error("ledger left inconsistent", zap.Strings("variantIds", re.VariantIDs), zap.Error(err))
	case status >= http.StatusInternalServerError:
		logger.Error("unexpected error", zap.Error(err))
		message = "an unexpected error occurred"
	default:
		logger.Warn("request failed", zap.String("code", code), zap.Error(err))
	}

	WriteJSON(w, r, status, dto.ErrorResponse{
		TraceID:   TraceID(r.Context()),
		Status:    status,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidAdjustment   = "INVALID_ADJUSTMENT"
	CodeInvalidVariant      = "INVALID_VARIANT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeOrderCreationFailed = "ORDER_CREATION_FAILED"
	CodeLedgerInconsistent  = "LEDGER_INCONSISTENT"
	CodeInternal            = "INTERNAL_ERROR"
)

func StatusFor(err error) (int, string) {
	if _, ok := apperrors.IsValidationError(err); ok {
		return http.StatusBadRequest, CodeValidation
	}
	if _, ok := apperrors.IsRollbackError(err); ok {
		return http.StatusInternalServerError, CodeLedgerInconsistent
	}
	if _, ok := apperrors.IsInvalidVariantError(err); ok {
		return http.StatusUnprocessableEntity, CodeInvalidVariant
	}
	if _, ok := apperrors.IsInvalidAdjustmentError(err); ok {
		return http.StatusUnprocessableEntity, CodeInvalidAdjustment
	}
	if _, ok := apperrors.IsOrderCreationFailedError(err); ok {
		return http.StatusServiceUnavailable, CodeOrderCreationFailed
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return http.StatusNotFound, CodeNotFound
	}
	if _, ok := apperrors.IsConcurrencyConflictError(err); ok {
		return http.StatusConflict, CodeConcurrencyConflict
	}
	return http.StatusInternalServerError, CodeInternal
}

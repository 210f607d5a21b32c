package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockledger/internal/actor"
	"stockledger/internal/dto"
	apperrors "stockledger/internal/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperrors.NewValidationError("bad"), http.StatusBadRequest, CodeValidation},
		{"not found", apperrors.NewNotFoundError("missing"), http.StatusNotFound, CodeNotFound},
		{"invalid adjustment", apperrors.NewInvalidAdjustmentError("v", -15, "negative"), http.StatusUnprocessableEntity, CodeInvalidAdjustment},
		{"invalid variant", apperrors.NewInvalidVariantError("v"), http.StatusUnprocessableEntity, CodeInvalidVariant},
		{"conflict", apperrors.NewConcurrencyConflictError("raced"), http.StatusConflict, CodeConcurrencyConflict},
		{"creation failed", apperrors.NewOrderCreationFailedError("reserve", errors.New("io")), http.StatusServiceUnavailable, CodeOrderCreationFailed},
		{"rollback", apperrors.NewRollbackError([]string{"v"}, errors.New("io")), http.StatusInternalServerError, CodeLedgerInconsistent},
		{"wrapped not found", fmt.Errorf("loading: %w", apperrors.NewNotFoundError("missing")), http.StatusNotFound, CodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestDecode_ValidationDetails(t *testing.T) {
	body := `{"customerName":"","phoneNumber":"0550","items":[{"productVariantId":"v","quantity":0}]}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var req dto.CreateOrderRequest
	err := Decode(r, &req)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	fields := make([]string, 0, len(ve.Details))
	for _, d := range ve.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"customerName", "items[0].quantity"}, fields)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"Sent","stock":5}`))

	var req dto.TransitionStatusRequest
	err := Decode(r, &req)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "body", ve.Details[0].Field)
}

func TestWriteError_RollbackCarriesVariants(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, apperrors.NewRollbackError([]string{"v-1", "v-2"}, errors.New("release failed")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, CodeLedgerInconsistent, resp.Code)
	require.NotNil(t, resp.Details)
	assert.Equal(t, []string{"v-1", "v-2"}, resp.Details.VariantIDs)
}

func TestWriteError_HidesInternalMessage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, errors.New("dial tcp 10.0.0.5:3306: connection refused"))

	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "an unexpected error occurred", resp.Message)
}

func TestWriteError_Validation(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{Field: "status", Message: "bad"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	assert.Equal(t, "status", resp.Details[0].Field)
}

func TestMiddleware_TraceAndActor(t *testing.T) {
	var traceID string
	var actorID *string
	handler := Trace(zap.NewNop())(Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceID(r.Context())
		actorID = actor.FromContext(r.Context())
		assert.NotNil(t, Logger(r.Context()))
	})))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(actor.HeaderName, "clerk-3")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, w.Header().Get(TraceHeader))
	require.NotNil(t, actorID)
	assert.Equal(t, "clerk-3", *actorID)
}

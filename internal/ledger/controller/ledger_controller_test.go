package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	"stockledger/internal/dto"
	"stockledger/internal/httpapi"
	"stockledger/internal/infrastructure/memory"
	"stockledger/internal/ledger/service"
)

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	store := memory.New()
	store.PutVariant(domain.ProductVariant{
		ID:            "v-1",
		ProductID:     "p-1",
		ColorName:     "Teal",
		StockQuantity: 5,
		UnitPrice:     decimal.NewFromInt(90),
		IsActive:      true,
	})

	ledger := service.NewLedgerService(store, store, nil, nil, zap.NewNop(), 50)

	r := chi.NewRouter()
	r.Use(httpapi.Trace(zap.NewNop()))
	r.Use(httpapi.Actor)
	r.Route("/api/v1/variants/{variantId}", NewLedgerController(ledger).Routes)
	return r, store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("X-Actor-ID", "clerk-7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// Tests

func TestLedgerController_Get(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(h, http.MethodGet, "/api/v1/variants/v-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.VariantResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 5, resp.AvailableQuantity)

	w = do(h, http.MethodGet, "/api/v1/variants/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLedgerController_Adjust(t *testing.T) {
	h, store := newTestRouter(t)

	w := do(h, http.MethodPost, "/api/v1/variants/v-1/adjust", `{"delta":7,"reason":"Supplier delivery"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.VariantResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 12, resp.StockQuantity)

	movements := store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementIn, movements[0].Type)
	assert.Equal(t, "Supplier delivery", movements[0].Reason)
	require.NotNil(t, movements[0].PerformedBy)
	assert.Equal(t, "clerk-7", *movements[0].PerformedBy)
}

func TestLedgerController_Adjust_Rejected(t *testing.T) {
	h, store := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "zero delta", body: `{"delta":0}`, status: http.StatusUnprocessableEntity},
		{name: "below zero", body: `{"delta":-6}`, status: http.StatusUnprocessableEntity},
		{name: "unknown field", body: `{"delta":1,"stockQuantity":9}`, status: http.StatusBadRequest},
		{name: "delta too large", body: `{"delta":1000001}`, status: http.StatusBadRequest},
		{name: "delta too small", body: `{"delta":-1000001}`, status: http.StatusBadRequest},
		{name: "delta overflows int32", body: `{"delta":4294967296}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, "/api/v1/variants/v-1/adjust", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	v, ok := store.Variant("v-1")
	require.True(t, ok)
	assert.Equal(t, 5, v.StockQuantity)
	assert.Empty(t, store.Movements())
}

func TestLedgerController_Movements(t *testing.T) {
	h, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/variants/v-1/adjust", `{"delta":3}`).Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/variants/v-1/adjust", `{"delta":-2}`).Code)

	w := do(h, http.MethodGet, "/api/v1/variants/v-1/movements", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all dto.MovementListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&all))
	assert.Len(t, all.Movements, 2)
	assert.NotEmpty(t, all.TraceID)

	w = do(h, http.MethodGet, "/api/v1/variants/v-1/movements?type=OUT", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out dto.MovementListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	require.Len(t, out.Movements, 1)
	assert.Equal(t, 2, out.Movements[0].Quantity)
}

func TestLedgerController_Movements_InvalidFilter(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/variants/v-1/movements?type=LOST", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/variants/v-1/movements?limit=0", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/variants/missing/movements", "").Code)
}

package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	"stockledger/internal/dto"
	"stockledger/internal/httpapi"
	"stockledger/internal/sales/service"
)

// Mocks

type mockSalesService struct {
	GetSalesSummaryFunc func(ctx context.Context, rng *domain.DateRange) (*service.SalesSummary, error)
}

func (m *mockSalesService) GetSalesSummary(ctx context.Context, rng *domain.DateRange) (*service.SalesSummary, error) {
	return m.GetSalesSummaryFunc(ctx, rng)
}

func newTestRouter(svc SalesService) http.Handler {
	r := chi.NewRouter()
	r.Use(httpapi.Trace(zap.NewNop()))
	r.Route("/api/v1/sales", NewSalesController(svc).Routes)
	return r
}

// Tests

func TestSalesController_Summary(t *testing.T) {
	var got *domain.DateRange
	svc := &mockSalesService{
		GetSalesSummaryFunc: func(ctx context.Context, rng *domain.DateRange) (*service.SalesSummary, error) {
			got = rng
			return &service.SalesSummary{
				OrderCount: 1,
				Profit:     decimal.NewFromInt(562),
				TopProducts: []service.ProductSales{
					{ProductName: "Scarf", ColorName: "Red", QuantitySold: 2},
				},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/sales/summary?from=2024-05-01T00:00:00Z&to=2024-06-01T00:00:00%2B02:00", nil)
	newTestRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	require.NotNil(t, got.From)
	require.NotNil(t, got.To)
	assert.True(t, got.From.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.To.Equal(time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC)))

	var resp dto.SalesSummaryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, decimal.NewFromInt(562).Equal(resp.Profit))
	require.Len(t, resp.TopProducts, 1)
	assert.Equal(t, 2, resp.TopProducts[0].QuantitySold)
}

func TestSalesController_Summary_OpenRange(t *testing.T) {
	svc := &mockSalesService{
		GetSalesSummaryFunc: func(ctx context.Context, rng *domain.DateRange) (*service.SalesSummary, error) {
			assert.Nil(t, rng.From)
			assert.Nil(t, rng.To)
			return &service.SalesSummary{}, nil
		},
	}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales/summary", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSalesController_Summary_InvalidDate(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&mockSalesService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales/summary?from=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
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
	apperrors "stockledger/internal/errors"
	"stockledger/internal/httpapi"
	"stockledger/internal/order/usecase"
)

// Mocks

type mockOrderUseCase struct {
	CreateOrderFunc      func(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error)
	GetOrderFunc         func(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersFunc       func(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateOrderFunc      func(ctx context.Context, orderID string, input usecase.UpdateOrderInput) (*domain.Order, error)
	CancelOrderFunc      func(ctx context.Context, orderID string) error
	TransitionStatusFunc func(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error)
	UpdateTrackingFunc   func(ctx context.Context, orderID string, input usecase.TrackingInput) (*domain.Order, error)
}

func (m *mockOrderUseCase) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error) {
	return m.CreateOrderFunc(ctx, input)
}

func (m *mockOrderUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, orderID)
}

func (m *mockOrderUseCase) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return m.ListOrdersFunc(ctx, filter)
}

func (m *mockOrderUseCase) UpdateOrder(ctx context.Context, orderID string, input usecase.UpdateOrderInput) (*domain.Order, error) {
	return m.UpdateOrderFunc(ctx, orderID, input)
}

func (m *mockOrderUseCase) CancelOrder(ctx context.Context, orderID string) error {
	return m.CancelOrderFunc(ctx, orderID)
}

func (m *mockOrderUseCase) TransitionStatus(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error) {
	return m.TransitionStatusFunc(ctx, orderID, to)
}

func (m *mockOrderUseCase) UpdateTracking(ctx context.Context, orderID string, input usecase.TrackingInput) (*domain.Order, error) {
	return m.UpdateTrackingFunc(ctx, orderID, input)
}

func newTestRouter(uc OrderUseCase) http.Handler {
	r := chi.NewRouter()
	r.Use(httpapi.Trace(zap.NewNop()))
	r.Route("/api/v1/orders", NewOrderController(uc).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// Tests

func TestOrderController_Create(t *testing.T) {
	uc := &mockOrderUseCase{
		CreateOrderFunc: func(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error) {
			assert.Equal(t, "Nadia", input.CustomerName)
			require.Len(t, input.Items, 1)
			assert.True(t, decimal.RequireFromString("149.90").Equal(input.Items[0].UnitPrice))
			return &domain.Order{
				ID:                "o-1",
				CustomerName:      input.CustomerName,
				PreparationStatus: domain.StatusPending,
				Items:             []domain.OrderItem{{ID: "i-1", ProductVariantID: "v-1", Quantity: 2, UnitPrice: input.Items[0].UnitPrice}},
			}, nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodPost, "/api/v1/orders",
		`{"customerName":"Nadia","phoneNumber":"0550","items":[{"productVariantId":"v-1","quantity":2,"unitPrice":"149.90"}]}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "o-1", resp.ID)
	assert.Equal(t, "Pending", resp.PreparationStatus)
	assert.True(t, decimal.RequireFromString("299.8").Equal(resp.Items[0].LineTotal))
}

func TestOrderController_Create_ValidationError(t *testing.T) {
	uc := &mockOrderUseCase{
		CreateOrderFunc: func(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error) {
			t.Fatal("use case must not be called")
			return nil, nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodPost, "/api/v1/orders", `{"customerName":"Nadia","phoneNumber":"0550","items":[]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	assert.Equal(t, "items", resp.Details[0].Field)
	assert.NotEmpty(t, resp.TraceID)
}

func TestOrderController_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"creation failed", apperrors.NewOrderCreationFailedError("reserving", errors.New("io")), http.StatusServiceUnavailable, httpapi.CodeOrderCreationFailed},
		{"invalid variant", apperrors.NewInvalidVariantError("v-9"), http.StatusUnprocessableEntity, httpapi.CodeInvalidVariant},
		{"rollback", apperrors.NewRollbackError([]string{"v-1"}, errors.New("io")), http.StatusInternalServerError, httpapi.CodeLedgerInconsistent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockOrderUseCase{
				CreateOrderFunc: func(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error) {
					return nil, tt.err
				},
			}

			w := do(t, newTestRouter(uc), http.MethodPost, "/api/v1/orders",
				`{"customerName":"Nadia","phoneNumber":"0550","items":[{"productVariantId":"v-1","quantity":1,"unitPrice":10}]}`)

			assert.Equal(t, tt.status, w.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestOrderController_Get_NotFound(t *testing.T) {
	uc := &mockOrderUseCase{
		GetOrderFunc: func(ctx context.Context, orderID string) (*domain.Order, error) {
			assert.Equal(t, "o-404", orderID)
			return nil, apperrors.NewNotFoundError("order o-404 not found")
		},
	}

	w := do(t, newTestRouter(uc), http.MethodGet, "/api/v1/orders/o-404", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_List(t *testing.T) {
	uc := &mockOrderUseCase{
		ListOrdersFunc: func(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
			assert.Equal(t, domain.StatusSent, filter.Status)
			assert.Equal(t, 10, filter.Limit)
			assert.Equal(t, 20, filter.Offset)
			return []domain.Order{{ID: "o-1"}, {ID: "o-2"}}, nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodGet, "/api/v1/orders?status=Sent&limit=10&offset=20", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.OrderListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Orders, 2)
}

func TestOrderController_List_InvalidQuery(t *testing.T) {
	h := newTestRouter(&mockOrderUseCase{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders?status=Lost", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders?limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/orders?offset=x", "").Code)
}

func TestOrderController_Cancel(t *testing.T) {
	uc := &mockOrderUseCase{
		CancelOrderFunc: func(ctx context.Context, orderID string) error {
			assert.Equal(t, "o-1", orderID)
			return nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodDelete, "/api/v1/orders/o-1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOrderController_TransitionStatus(t *testing.T) {
	uc := &mockOrderUseCase{
		TransitionStatusFunc: func(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error) {
			assert.Equal(t, domain.StatusSent, to)
			return &domain.Order{ID: orderID, PreparationStatus: to}, nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodPatch, "/api/v1/orders/o-1/status", `{"status":"Sent"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Sent", resp.PreparationStatus)
}

func TestOrderController_TransitionStatus_Conflict(t *testing.T) {
	uc := &mockOrderUseCase{
		TransitionStatusFunc: func(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error) {
			return nil, apperrors.NewConcurrencyConflictError("order o-1 changed concurrently")
		},
	}

	w := do(t, newTestRouter(uc), http.MethodPatch, "/api/v1/orders/o-1/status", `{"status":"Prepared"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderController_UpdateTracking(t *testing.T) {
	uc := &mockOrderUseCase{
		UpdateTrackingFunc: func(ctx context.Context, orderID string, input usecase.TrackingInput) (*domain.Order, error) {
			require.NotNil(t, input.IsConfirmed)
			assert.True(t, *input.IsConfirmed)
			assert.Nil(t, input.IsAccepted)
			return &domain.Order{ID: orderID, IsConfirmed: true}, nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodPatch, "/api/v1/orders/o-1/tracking", `{"isConfirmed":true}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderController_Update_KeepsItemsWhenOmitted(t *testing.T) {
	uc := &mockOrderUseCase{
		UpdateOrderFunc: func(ctx context.Context, orderID string, input usecase.UpdateOrderInput) (*domain.Order, error) {
			assert.Nil(t, input.Items)
			require.NotNil(t, input.CustomerName)
			return &domain.Order{ID: orderID, CustomerName: *input.CustomerName}, nil
		},
	}

	w := do(t, newTestRouter(uc), http.MethodPut, "/api/v1/orders/o-1", `{"customerName":"Nadia K."}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

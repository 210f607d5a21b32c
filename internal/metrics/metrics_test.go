package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.LedgerOperation("reserve", nil)
		m.MovementAppendFailed()
		m.StatusTransition("Pending", "Sent")
		m.RollbackFailed()
		m.ReservationRetried()
		m.ReconcileDrift("stock")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics_LedgerOperation(t *testing.T) {
	m := New()

	m.LedgerOperation("reserve", nil)
	m.LedgerOperation("reserve", nil)
	m.LedgerOperation("adjust", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOperations.WithLabelValues("reserve", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOperations.WithLabelValues("adjust", OutcomeFailure)))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.MovementAppendFailed()
	m.RollbackFailed()
	m.RollbackFailed()
	m.ReservationRetried()
	m.StatusTransition("Prepared", "Sent")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.movementAppendErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rollbackFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservationRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("Prepared", "Sent")))
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/orders/{orderId}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stockledger_http_requests_total"))
}

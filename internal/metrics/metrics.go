package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	ledgerOperations     *prometheus.CounterVec
	movementAppendErrors prometheus.Counter
	statusTransitions    *prometheus.CounterVec
	rollbackFailures     prometheus.Counter
	reservationRetries   prometheus.Counter
	reconcileDrift       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockledger_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ledgerOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_ledger_operations_total",
		Help: "Ledger counter operations by kind and outcome.",
	}, []string{"operation", "outcome"})
	appendErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_movement_append_failures_total",
		Help: "Movements that could not be written after their counter change was applied.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_status_transitions_total",
		Help: "Order preparation status transitions.",
	}, []string{"from", "to"})
	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_rollback_failures_total",
		Help: "Compensating releases that failed and left the ledger inconsistent.",
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_reservation_retries_total",
		Help: "Order reservations retried after a transient storage error.",
	})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_reconcile_drift_total",
		Help: "Variants whose counters disagree with their movement history.",
	}, []string{"counter"})

	registry.MustRegister(
		requests, duration, ledgerOps, appendErrors, transitions, rollbacks, retries, drift,
		prometheus.NewGoCollector(),
	)

	return &Metrics{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:        requests,
		requestDuration:      duration,
		ledgerOperations:     ledgerOps,
		movementAppendErrors: appendErrors,
		statusTransitions:    transitions,
		rollbackFailures:     rollbacks,
		reservationRetries:   retries,
		reconcileDrift:       drift,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency keyed on the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) LedgerOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) MovementAppendFailed() {
	if m == nil {
		return
	}
	m.movementAppendErrors.Inc()
}

func (m *Metrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RollbackFailed() {
	if m == nil {
		return
	}
	m.rollbackFailures.Inc()
}

func (m *Metrics) ReservationRetried() {
	if m == nil {
		return
	}
	m.reservationRetries.Inc()
}

func (m *Metrics) ReconcileDrift(counter string) {
	if m == nil {
		return
	}
	m.reconcileDrift.WithLabelValues(counter).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

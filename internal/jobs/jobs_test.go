package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	"stockledger/internal/infrastructure/memory"
	ledgerservice "stockledger/internal/ledger/service"
	"stockledger/internal/metrics"
)

// Mocks

type mockLedger struct {
	GetVariantFunc func(ctx context.Context, variantID string) (*domain.ProductVariant, error)
	ListForFunc    func(ctx context.Context, variantID string) iter.Seq2[domain.StockMovement, error]
}

func (m *mockLedger) GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error) {
	return m.GetVariantFunc(ctx, variantID)
}

func (m *mockLedger) ListFor(ctx context.Context, variantID string) iter.Seq2[domain.StockMovement, error] {
	return m.ListForFunc(ctx, variantID)
}

func newLedger(t *testing.T) (*memory.Store, *ledgerservice.LedgerService) {
	t.Helper()
	store := memory.New()
	store.PutVariant(domain.ProductVariant{ID: "v-1", ProductID: "p-1", ColorName: "Red", UnitPrice: decimal.NewFromInt(10)})
	return store, ledgerservice.NewLedgerService(store, store, nil, nil, zap.NewNop(), 2)
}

func reconcileTask(t *testing.T, ids ...string) *asynq.Task {
	t.Helper()
	task, err := NewReconcileTask(ReconcilePayload{VariantIDs: ids, Reason: "test"})
	require.NoError(t, err)
	return task
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

// Tests

func TestNewReconcileTask(t *testing.T) {
	task := reconcileTask(t, "v-1", "v-2")

	assert.Equal(t, TaskLedgerReconcile, task.Type())
	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, []string{"v-1", "v-2"}, payload.VariantIDs)
}

func TestReconcileJob_ReplayMatchesLedger(t *testing.T) {
	store, ledger := newLedger(t)
	ctx := context.Background()
	order := &domain.Reference{Type: domain.ReferenceOrder, ID: "o-1"}

	_, err := ledger.AdjustStock(ctx, "v-1", 10, "")
	require.NoError(t, err)
	require.NoError(t, ledger.Reserve(ctx, "v-1", 4, order))
	require.NoError(t, ledger.Release(ctx, "v-1", 1, &domain.Reference{Type: domain.ReferenceOrderUpdated, ID: "o-1"}))
	require.NoError(t, ledger.Consume(ctx, "v-1", 3, &domain.Reference{Type: domain.ReferenceOrderSent, ID: "o-1"}))
	_, err = ledger.AdjustStock(ctx, "v-1", -2, "")
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, "v-1", 5, order))

	job := NewReconcileJob(ledger, nil, zap.NewNop())
	drift, err := job.Check(ctx, "v-1")
	require.NoError(t, err)

	v, _ := store.Variant("v-1")
	assert.Equal(t, 5, v.StockQuantity)
	assert.Equal(t, 0, v.ReservedQuantity)
	assert.Equal(t, Counters{Stock: 5, Reserved: 0}, drift.Expected)
	assert.False(t, drift.Any())
}

func TestReconcileJob_ReplayRestartsEachRange(t *testing.T) {
	_, ledger := newLedger(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.Reserve(ctx, "v-1", 1, &domain.Reference{Type: domain.ReferenceOrder, ID: "o"}))
	}

	job := NewReconcileJob(ledger, nil, zap.NewNop())
	first, err := job.Replay(ctx, "v-1")
	require.NoError(t, err)
	second, err := job.Replay(ctx, "v-1")
	require.NoError(t, err)

	assert.Equal(t, 5, first.Reserved)
	assert.Equal(t, first, second)
}

func TestReconcileJob_HandleReportsDrift(t *testing.T) {
	store, ledger := newLedger(t)
	ctx := context.Background()
	require.NoError(t, ledger.Reserve(ctx, "v-1", 3, &domain.Reference{Type: domain.ReferenceOrder, ID: "o-1"}))

	// counters changed without a movement
	store.PutVariant(domain.ProductVariant{ID: "v-1", ProductID: "p-1", ColorName: "Red", StockQuantity: 2, ReservedQuantity: 3})

	m := metrics.New()
	job := NewReconcileJob(ledger, m, zap.NewNop())

	require.NoError(t, job.Handle(ctx, reconcileTask(t, "v-1", "missing")))
	assert.Contains(t, scrape(t, m), `stockledger_reconcile_drift_total{counter="stock"} 1`)
	assert.NotContains(t, scrape(t, m), `counter="reserved"`)
}

func TestReconcileJob_HandleRetriesStorageErrors(t *testing.T) {
	boom := errors.New("connection refused")
	job := NewReconcileJob(&mockLedger{
		GetVariantFunc: func(ctx context.Context, variantID string) (*domain.ProductVariant, error) {
			return nil, boom
		},
	}, nil, zap.NewNop())

	err := job.Handle(context.Background(), reconcileTask(t, "v-1"))
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestReconcileJob_HandleMovementReadError(t *testing.T) {
	boom := errors.New("timeout")
	job := NewReconcileJob(&mockLedger{
		GetVariantFunc: func(ctx context.Context, variantID string) (*domain.ProductVariant, error) {
			return &domain.ProductVariant{ID: variantID}, nil
		},
		ListForFunc: func(ctx context.Context, variantID string) iter.Seq2[domain.StockMovement, error] {
			return func(yield func(domain.StockMovement, error) bool) {
				yield(domain.StockMovement{}, boom)
			}
		},
	}, nil, zap.NewNop())

	err := job.Handle(context.Background(), reconcileTask(t, "v-1"))
	assert.ErrorIs(t, err, boom)
}

func TestReconcileJob_HandleBadPayload(t *testing.T) {
	job := NewReconcileJob(&mockLedger{}, nil, zap.NewNop())

	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerReconcile, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestClient_EnqueueReconcile(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()}, zap.NewNop())
	defer client.Close()

	require.NoError(t, client.EnqueueReconcile(context.Background(), []string{"v-1"}, "rollback failed"))
	assert.True(t, mr.Exists("asynq:{ledger}:pending"))
}

func TestClient_EnqueueReconcile_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := NewClient(asynq.RedisClientOpt{Addr: addr}, zap.NewNop())
	defer client.Close()

	assert.Error(t, client.EnqueueReconcile(context.Background(), []string{"v-1"}, "rollback failed"))
}

func TestLogAlerter(t *testing.T) {
	assert.NoError(t, NewLogAlerter(zap.NewNop()).EnqueueReconcile(context.Background(), []string{"v-1"}, "x"))
}

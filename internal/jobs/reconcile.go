package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/metrics"
)

type Ledger interface {
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error)
	ListFor(ctx context.Context, variantID string) iter.Seq2[domain.StockMovement, error]
}

// Counters is what a variant's stock and reserved quantities should be
// according to its movements.
type Counters struct {
	Stock    int
	Reserved int
	Skipped  int
}

// Drift compares replayed counters against a variant.
type Drift struct {
	VariantID        string
	Expected         Counters
	StockQuantity    int
	ReservedQuantity int
}

func (d Drift) StockDrifted() bool    { return d.Expected.Stock != d.StockQuantity }
func (d Drift) ReservedDrifted() bool { return d.Expected.Reserved != d.ReservedQuantity }
func (d Drift) Any() bool             { return d.StockDrifted() || d.ReservedDrifted() }

type ReconcileJob struct {
	ledger  Ledger
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewReconcileJob(ledger Ledger, m *metrics.Metrics, logger *zap.Logger) *ReconcileJob {
	return &ReconcileJob{ledger: ledger, metrics: m, logger: logger}
}

// Replay folds a variant's movements in log order, applying the same floors
// the ledger applies. ADJUSTMENT entries have no direction and are counted
// as skipped.
func (j *ReconcileJob) Replay(ctx context.Context, variantID string) (Counters, error) {
	var c Counters
	for m, err := range j.ledger.ListFor(ctx, variantID) {
		if err != nil {
			return Counters{}, fmt.Errorf("reading movements of %s: %w", variantID, err)
		}

		switch m.Type {
		case domain.MovementIn:
			c.Stock += m.Quantity
		case domain.MovementOut:
			c.Stock = max(c.Stock-m.Quantity, 0)
			if m.ReferenceType != nil && *m.ReferenceType == domain.ReferenceOrderSent {
				c.Reserved = max(c.Reserved-m.Quantity, 0)
			}
		case domain.MovementReserved:
			c.Reserved += m.Quantity
		case domain.MovementReleased:
			c.Reserved = max(c.Reserved-m.Quantity, 0)
		default:
			c.Skipped++
		}
	}
	return c, nil
}

// Check replays one variant and compares the result with its counters.
func (j *ReconcileJob) Check(ctx context.Context, variantID string) (Drift, error) {
	v, err := j.ledger.GetVariant(ctx, variantID)
	if err != nil {
		return Drift{}, err
	}

	expected, err := j.Replay(ctx, variantID)
	if err != nil {
		return Drift{}, err
	}

	return Drift{
		VariantID:        variantID,
		Expected:         expected,
		StockQuantity:    v.StockQuantity,
		ReservedQuantity: v.ReservedQuantity,
	}, nil
}

// Handle processes TaskLedgerReconcile. Drift is reported, never corrected;
// counters stay authoritative until an operator decides otherwise.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding reconcile payload: %w: %w", err, asynq.SkipRetry)
	}

	var errs []error
	for _, id := range payload.VariantIDs {
		drift, err := j.Check(ctx, id)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				j.logger.Warn("reconcile skipped missing variant", zap.String("variantId", id))
				continue
			}
			errs = append(errs, err)
			continue
		}
		j.report(drift, payload.Reason)
	}
	return errors.Join(errs...)
}

func (j *ReconcileJob) report(d Drift, reason string) {
	if !d.Any() {
		j.logger.Info("ledger consistent", zap.String("variantId", d.VariantID), zap.String("reason", reason))
		return
	}

	if d.StockDrifted() {
		j.metrics.ReconcileDrift("stock")
	}
	if d.ReservedDrifted() {
		j.metrics.ReconcileDrift("reserved")
	}
	j.logger.Error("ledger drift detected",
		zap.String("variantId", d.VariantID),
		zap.String("reason", reason),
		zap.Int("stockQuantity", d.StockQuantity),
		zap.Int("expectedStock", d.Expected.Stock),
		zap.Int("reservedQuantity", d.ReservedQuantity),
		zap.Int("expectedReserved", d.Expected.Reserved),
		zap.Int("skippedMovements", d.Expected.Skipped),
	)
}

package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/metrics"
)

type Ledger interface {
	Reserve(ctx context.Context, variantID string, quantity int, ref *domain.Reference) error
	Release(ctx context.Context, variantID string, quantity int, ref *domain.Reference) error
	Consume(ctx context.Context, variantID string, quantity int, ref *domain.Reference) error
}

type OrderStatusRepository interface {
	FindOrderByID(ctx context.Context, id string) (*domain.Order, error)
	CompareAndSetStatus(ctx context.Context, id string, version int, from, to domain.PreparationStatus) (bool, error)
}

// Alerter notifies operators that counters for the given variants may no
// longer match the orders referencing them.
type Alerter interface {
	EnqueueReconcile(ctx context.Context, variantIDs []string, reason string) error
}

// Manager makes the multi-variant reserve, release and consume sequences of
// an order behave as a unit.
type Manager struct {
	ledger             Ledger
	orders             OrderStatusRepository
	alerter            Alerter
	metrics            *metrics.Metrics
	logger             *zap.Logger
	reservationTimeout time.Duration
}

func NewManager(
	ledger Ledger,
	orders OrderStatusRepository,
	alerter Alerter,
	m *metrics.Metrics,
	logger *zap.Logger,
	reservationTimeout time.Duration,
) *Manager {
	return &Manager{
		ledger:             ledger,
		orders:             orders,
		alerter:            alerter,
		metrics:            m,
		logger:             logger,
		reservationTimeout: reservationTimeout,
	}
}

type line struct {
	variantID string
	quantity  int
}

// linesOf sums quantities per variant and sorts by variant id so concurrent
// orders touch rows in the same order.
func linesOf(quantities map[string]int) []line {
	lines := make([]line, 0, len(quantities))
	for variantID, qty := range quantities {
		if qty != 0 {
			lines = append(lines, line{variantID: variantID, quantity: qty})
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].variantID < lines[j].variantID })
	return lines
}

// ReserveForOrder reserves every item of the order. If any reservation fails
// the ones already applied are released again and OrderCreationFailed is
// returned; if that compensation fails too the result is a RollbackError.
//
// The reservation timeout is checked between items. A counter update that has
// started always runs to completion, so every item is either known to be
// reserved or known not to be.
func (m *Manager) ReserveForOrder(ctx context.Context, order *domain.Order) error {
	deadline := ctx
	if m.reservationTimeout > 0 {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(ctx, m.reservationTimeout)
		defer cancel()
	}
	applyCtx := context.WithoutCancel(ctx)

	ref := &domain.Reference{Type: domain.ReferenceOrder, ID: order.ID}
	lines := linesOf(order.ItemQuantities())
	reserved := make([]line, 0, len(lines))

	for _, l := range lines {
		err := deadline.Err()
		if err == nil {
			err = m.ledger.Reserve(applyCtx, l.variantID, l.quantity, ref)
			if isContextError(err) {
				// The update may have committed before the error surfaced.
				m.logger.Warn("reservation outcome unknown, compensating it as applied",
					zap.String("orderId", order.ID),
					zap.String("variantId", l.variantID),
					zap.Error(err),
				)
				reserved = append(reserved, l)
				m.alert(ctx, []string{l.variantID}, "reservation outcome unknown for order "+order.ID)
			}
		}
		if err != nil {
			err = asInvalidVariant(l.variantID, err)
			m.logger.Warn("reservation failed, compensating",
				zap.String("orderId", order.ID),
				zap.String("variantId", l.variantID),
				zap.Int("alreadyReserved", len(reserved)),
				zap.Error(err),
			)

			if rollbackErr := m.compensate(ctx, order.ID, reserved); rollbackErr != nil {
				return rollbackErr
			}
			return apperrors.NewOrderCreationFailedError(fmt.Sprintf("reserving stock for order %s", order.ID), err)
		}
		reserved = append(reserved, l)
	}

	m.logger.Info("order reserved", zap.String("orderId", order.ID), zap.Int("variantCount", len(lines)))
	return nil
}

// ReleaseForOrder releases every item of the order. All items are attempted;
// failures are reported together as a RollbackError.
func (m *Manager) ReleaseForOrder(ctx context.Context, order *domain.Order, refType string) error {
	ref := &domain.Reference{Type: refType, ID: order.ID}
	failed, err := m.releaseAll(context.WithoutCancel(ctx), linesOf(order.ItemQuantities()), ref)
	if err != nil {
		return m.rollbackFailed(ctx, order.ID, failed, err)
	}
	return nil
}

// ConsumeForOrder moves the order into Sent and consumes its items. The move
// is a compare-and-set on the status and version the caller observed, so an
// order is consumed at most once per edge into Sent and always with the items
// it was read with. It reports whether stock was consumed.
func (m *Manager) ConsumeForOrder(ctx context.Context, order *domain.Order) (bool, error) {
	if order.PreparationStatus == domain.StatusSent {
		return false, nil
	}

	ctx = context.WithoutCancel(ctx)
	claimed, err := m.orders.CompareAndSetStatus(ctx, order.ID, order.Version, order.PreparationStatus, domain.StatusSent)
	if err != nil {
		return false, fmt.Errorf("claiming order %s for shipment: %w", order.ID, err)
	}
	if !claimed {
		current, err := m.orders.FindOrderByID(ctx, order.ID)
		if err != nil {
			return false, err
		}
		if current.PreparationStatus == domain.StatusSent {
			return false, nil
		}
		return false, apperrors.NewConcurrencyConflictError(
			fmt.Sprintf("order %s changed while being sent (status %s, version %d)", order.ID, current.PreparationStatus, current.Version),
		)
	}

	ref := &domain.Reference{Type: domain.ReferenceOrderSent, ID: order.ID}
	lines := linesOf(order.ItemQuantities())
	for i, l := range lines {
		if err := m.ledger.Consume(ctx, l.variantID, l.quantity, ref); err != nil {
			err = asInvalidVariant(l.variantID, err)
			remaining := make([]string, 0, len(lines)-i)
			for _, rest := range lines[i:] {
				remaining = append(remaining, rest.variantID)
			}
			m.logger.Error("consumption stopped midway, order stays sent",
				zap.String("orderId", order.ID),
				zap.Strings("unconsumedVariants", remaining),
				zap.Error(err),
			)
			m.alert(ctx, remaining, "consumption failed for order "+order.ID)
			return true, err
		}
	}

	m.logger.Info("order consumed", zap.String("orderId", order.ID), zap.Int("variantCount", len(lines)))
	return true, nil
}

// AdjustForEdit reserves or releases the per-variant difference between the
// quantities before and after an order edit. Like ReserveForOrder it stops
// only between counter updates.
func (m *Manager) AdjustForEdit(ctx context.Context, orderID string, before, after map[string]int) error {
	diff := make(map[string]int, len(before)+len(after))
	for variantID, qty := range after {
		diff[variantID] += qty
	}
	for variantID, qty := range before {
		diff[variantID] -= qty
	}

	applyCtx := context.WithoutCancel(ctx)
	ref := &domain.Reference{Type: domain.ReferenceOrderUpdated, ID: orderID}
	applied := make([]line, 0, len(diff))
	for _, l := range linesOf(diff) {
		err := ctx.Err()
		if err == nil {
			if l.quantity > 0 {
				err = m.ledger.Reserve(applyCtx, l.variantID, l.quantity, ref)
			} else {
				err = m.ledger.Release(applyCtx, l.variantID, -l.quantity, ref)
			}
			if isContextError(err) {
				applied = append(applied, l)
				m.alert(ctx, []string{l.variantID}, "reservation outcome unknown for order "+orderID)
			}
		}
		if err != nil {
			err = asInvalidVariant(l.variantID, err)
			if rollbackErr := m.undoEdit(ctx, orderID, applied); rollbackErr != nil {
				return rollbackErr
			}
			return fmt.Errorf("adjusting reservations for order %s: %w", orderID, err)
		}
		applied = append(applied, l)
	}

	return nil
}

func (m *Manager) compensate(ctx context.Context, orderID string, reserved []line) error {
	if len(reserved) == 0 {
		return nil
	}

	ref := &domain.Reference{Type: domain.ReferenceCompensation, ID: orderID}
	failed, err := m.releaseAll(context.WithoutCancel(ctx), reserved, ref)
	if err != nil {
		return m.rollbackFailed(ctx, orderID, failed, err)
	}
	return nil
}

func (m *Manager) undoEdit(ctx context.Context, orderID string, applied []line) error {
	ctx = context.WithoutCancel(ctx)
	ref := &domain.Reference{Type: domain.ReferenceCompensation, ID: orderID}

	var failed []string
	var errs []error
	for _, l := range applied {
		var err error
		if l.quantity > 0 {
			err = m.ledger.Release(ctx, l.variantID, l.quantity, ref)
		} else {
			err = m.ledger.Reserve(ctx, l.variantID, -l.quantity, ref)
		}
		if err != nil {
			failed = append(failed, l.variantID)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return m.rollbackFailed(ctx, orderID, failed, errors.Join(errs...))
	}
	return nil
}

func (m *Manager) releaseAll(ctx context.Context, lines []line, ref *domain.Reference) ([]string, error) {
	var failed []string
	var errs []error
	for _, l := range lines {
		if err := m.ledger.Release(ctx, l.variantID, l.quantity, ref); err != nil {
			failed = append(failed, l.variantID)
			errs = append(errs, err)
		}
	}
	return failed, errors.Join(errs...)
}

func (m *Manager) rollbackFailed(ctx context.Context, orderID string, variantIDs []string, cause error) error {
	m.metrics.RollbackFailed()
	m.logger.Error("reservation rollback failed, ledger needs reconciliation",
		zap.String("orderId", orderID),
		zap.Strings("variantIds", variantIDs),
		zap.Error(cause),
	)
	m.alert(ctx, variantIDs, "rollback failed for order "+orderID)
	return apperrors.NewRollbackError(variantIDs, cause)
}

func (m *Manager) alert(ctx context.Context, variantIDs []string, reason string) {
	if m.alerter == nil || len(variantIDs) == 0 {
		return
	}
	if err := m.alerter.EnqueueReconcile(context.WithoutCancel(ctx), variantIDs, reason); err != nil {
		m.logger.Error("failed to enqueue ledger reconciliation", zap.Strings("variantIds", variantIDs), zap.Error(err))
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func asInvalidVariant(variantID string, err error) error {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return apperrors.NewInvalidVariantError(variantID)
	}
	return err
}

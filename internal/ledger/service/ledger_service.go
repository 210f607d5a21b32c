package service

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"stockledger/internal/actor"
	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/metrics"
	"stockledger/internal/notify"
)

type VariantRepository interface {
	FindVariantByID(ctx context.Context, id string) (*domain.ProductVariant, error)
	AdjustStock(ctx context.Context, id string, delta int) error
	Reserve(ctx context.Context, id string, quantity int) error
	Release(ctx context.Context, id string, quantity int) error
	Consume(ctx context.Context, id string, quantity int) error
}

type MovementRepository interface {
	AppendMovement(ctx context.Context, m domain.StockMovement) error
	ListMovementsPage(ctx context.Context, variantID string, after *domain.MovementCursor, limit int) ([]domain.StockMovement, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error)
}

const (
	opAdjust  = "adjust"
	opReserve = "reserve"
	opRelease = "release"
	opConsume = "consume"
)

// LedgerService is the only writer of variant counters. Each operation is a
// single atomic storage update followed by a best-effort movement append.
type LedgerService struct {
	variants  VariantRepository
	movements MovementRepository
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	pageSize  int
	clock     func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewLedgerService(
	variants VariantRepository,
	movements MovementRepository,
	publisher notify.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	pageSize int,
) *LedgerService {
	if pageSize <= 0 {
		pageSize = 100
	}
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &LedgerService{
		variants:  variants,
		movements: movements,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		pageSize:  pageSize,
		clock: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (s *LedgerService) GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error) {
	return s.variants.FindVariantByID(ctx, variantID)
}

// AdjustStock is a direct stock edit (restock or manual correction). It never
// lets stock_quantity go below zero.
func (s *LedgerService) AdjustStock(ctx context.Context, variantID string, delta int, reason string) (*domain.ProductVariant, error) {
	if delta == 0 {
		return nil, apperrors.NewInvalidAdjustmentError(variantID, delta, "adjustment delta must not be zero")
	}
	if delta > domain.MaxStockAdjustment || delta < -domain.MaxStockAdjustment {
		return nil, apperrors.NewInvalidAdjustmentError(variantID, delta,
			fmt.Sprintf("adjustment delta must be within ±%d", domain.MaxStockAdjustment))
	}

	err := s.variants.AdjustStock(ctx, variantID, delta)
	s.metrics.LedgerOperation(opAdjust, err)
	if err != nil {
		return nil, err
	}

	movementType, quantity := domain.MovementIn, delta
	if delta < 0 {
		movementType, quantity = domain.MovementOut, -delta
	}
	if reason == "" {
		reason = "Restock"
		if delta < 0 {
			reason = "Adjustment"
		}
	}

	s.record(ctx, domain.NewMovement(variantID, movementType, quantity, nil, reason, actor.FromContext(ctx), s.stamp()))
	s.logger.Info("stock adjusted", zap.String("variantId", variantID), zap.Int("delta", delta))

	return s.variants.FindVariantByID(ctx, variantID)
}

// Reserve promises quantity units to an order. Stock is not checked;
// oversell shows up as negative availability.
func (s *LedgerService) Reserve(ctx context.Context, variantID string, quantity int, ref *domain.Reference) error {
	return s.apply(ctx, opReserve, domain.MovementReserved, variantID, quantity, ref, s.variants.Reserve)
}

// Release returns reserved units, flooring reserved_quantity at zero.
func (s *LedgerService) Release(ctx context.Context, variantID string, quantity int, ref *domain.Reference) error {
	return s.apply(ctx, opRelease, domain.MovementReleased, variantID, quantity, ref, s.variants.Release)
}

// Consume ships quantity units: stock and reserved both drop, each floored at zero.
func (s *LedgerService) Consume(ctx context.Context, variantID string, quantity int, ref *domain.Reference) error {
	return s.apply(ctx, opConsume, domain.MovementOut, variantID, quantity, ref, s.variants.Consume)
}

func (s *LedgerService) apply(
	ctx context.Context,
	operation string,
	movementType domain.MovementType,
	variantID string,
	quantity int,
	ref *domain.Reference,
	update func(ctx context.Context, id string, quantity int) error,
) error {
	if quantity <= 0 {
		return apperrors.NewValidationError("quantity must be positive", apperrors.ValidationDetail{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be greater than zero, got %d", quantity),
		})
	}

	err := update(ctx, variantID, quantity)
	s.metrics.LedgerOperation(operation, err)
	if err != nil {
		return err
	}

	s.record(ctx, domain.NewMovement(variantID, movementType, quantity, ref, reasonFor(movementType, ref), actor.FromContext(ctx), s.stamp()))
	return nil
}

// record appends the movement and announces the change. The counter change
// has already been applied, so failures here are logged and counted only.
func (s *LedgerService) record(ctx context.Context, m domain.StockMovement) {
	ctx = context.WithoutCancel(ctx)

	if err := s.movements.AppendMovement(ctx, m); err != nil {
		s.metrics.MovementAppendFailed()
		s.logger.Error("failed to append stock movement",
			zap.String("variantId", m.ProductVariantID),
			zap.String("movementType", string(m.Type)),
			zap.Int("quantity", m.Quantity),
			zap.Error(err),
		)
	}

	event := notify.Event{
		Type:      notify.EventStockChanged,
		EntityID:  m.ProductVariantID,
		VariantID: m.ProductVariantID,
		At:        m.PerformedAt,
	}
	if m.ReferenceID != nil {
		event.OrderID = *m.ReferenceID
	}
	s.publisher.Publish(ctx, event)
}

// stamp returns strictly increasing movement times so that log order
// follows the order in which this process applied the changes.
func (s *LedgerService) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.clock()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// ListFor yields every movement of a variant in (performed_at, id) order,
// fetching one page at a time. Each range over the sequence starts again
// from the first movement.
func (s *LedgerService) ListFor(ctx context.Context, variantID string) iter.Seq2[domain.StockMovement, error] {
	return func(yield func(domain.StockMovement, error) bool) {
		var cursor *domain.MovementCursor
		for {
			page, err := s.movements.ListMovementsPage(ctx, variantID, cursor, s.pageSize)
			if err != nil {
				yield(domain.StockMovement{}, err)
				return
			}

			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}

			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &domain.MovementCursor{PerformedAt: last.PerformedAt, ID: last.ID}
		}
	}
}

func (s *LedgerService) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	return s.movements.ListMovements(ctx, filter)
}

func reasonFor(movementType domain.MovementType, ref *domain.Reference) string {
	if ref == nil {
		return string(movementType)
	}

	switch ref.Type {
	case domain.ReferenceOrder:
		return "Order " + ref.ID
	case domain.ReferenceOrderCancelled:
		return "Order cancelled: " + ref.ID
	case domain.ReferenceOrderSent:
		return "Order sent: " + ref.ID
	case domain.ReferenceOrderUpdated:
		return "Order updated: " + ref.ID
	case domain.ReferenceCompensation:
		return "Compensation for order " + ref.ID
	}
	return fmt.Sprintf("%s %s", ref.Type, ref.ID)
}

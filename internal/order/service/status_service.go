package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/metrics"
	"stockledger/internal/notify"
)

type OrderRepository interface {
	FindOrderByID(ctx context.Context, id string) (*domain.Order, error)
	CompareAndSetStatus(ctx context.Context, id string, version int, from, to domain.PreparationStatus) (bool, error)
}

type Consumer interface {
	ConsumeForOrder(ctx context.Context, order *domain.Order) (bool, error)
}

// Effect is the ledger side effect attached to a status change.
type Effect int

const (
	EffectNone Effect = iota
	EffectConsume
)

// effectFor is the transition table. Every pair of states is allowed; only
// the edge into Sent touches the ledger.
func effectFor(from, to domain.PreparationStatus) Effect {
	if to == domain.StatusSent && from != domain.StatusSent {
		return EffectConsume
	}
	return EffectNone
}

// maxTransitionAttempts bounds re-reads when an edit bumps the order version
// between the read and the status write.
const maxTransitionAttempts = 3

type StatusService struct {
	orders    OrderRepository
	consumer  Consumer
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewStatusService(
	orders OrderRepository,
	consumer Consumer,
	publisher notify.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *StatusService {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &StatusService{
		orders:    orders,
		consumer:  consumer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Transition moves the order to the given status. Leaving Sent does not
// return stock; entering Sent consumes the order's items. If only the order's
// version moved (its items were edited) the transition is retried on a fresh
// read; if its status moved to anything but the target the result is
// ConcurrencyConflict.
func (s *StatusService) Transition(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, apperrors.NewValidationError("invalid preparation status", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of %s, %s, %s, %s, got %q", domain.StatusPending, domain.StatusPendingDate, domain.StatusPrepared, domain.StatusSent, to),
		})
	}

	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.PreparationStatus

	for attempt := 1; ; attempt++ {
		if order.PreparationStatus == to {
			return order, nil
		}
		if order.PreparationStatus != from {
			return nil, apperrors.NewConcurrencyConflictError(
				fmt.Sprintf("order %s changed from %s to %s concurrently", order.ID, from, order.PreparationStatus),
			)
		}

		if attempt > maxTransitionAttempts {
			return nil, apperrors.NewConcurrencyConflictError(
				fmt.Sprintf("order %s kept changing while moving to %s", order.ID, to),
			)
		}

		changed, err := s.apply(ctx, order, to)
		if err != nil {
			return nil, err
		}
		if changed {
			return s.orders.FindOrderByID(ctx, order.ID)
		}

		s.logger.Debug("order changed during status update, re-reading",
			zap.String("orderId", order.ID),
			zap.Int("attempt", attempt),
		)
		if order, err = s.orders.FindOrderByID(ctx, orderID); err != nil {
			return nil, err
		}
	}
}

// apply performs one guarded write of the transition and reports whether it
// took effect.
func (s *StatusService) apply(ctx context.Context, order *domain.Order, to domain.PreparationStatus) (bool, error) {
	from := order.PreparationStatus

	switch effectFor(from, to) {
	case EffectConsume:
		consumed, err := s.consumer.ConsumeForOrder(ctx, order)
		if consumed {
			s.recordTransition(ctx, order.ID, from, to)
		}
		if _, conflict := apperrors.IsConcurrencyConflictError(err); conflict && !consumed {
			return false, nil
		}
		return consumed, err
	default:
		changed, err := s.orders.CompareAndSetStatus(ctx, order.ID, order.Version, from, to)
		if err != nil {
			return false, fmt.Errorf("updating status of order %s: %w", order.ID, err)
		}
		if changed {
			s.recordTransition(ctx, order.ID, from, to)
		}
		return changed, nil
	}
}

func (s *StatusService) recordTransition(ctx context.Context, orderID string, from, to domain.PreparationStatus) {
	s.metrics.StatusTransition(string(from), string(to))
	s.logger.Info("order status changed",
		zap.String("orderId", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.publisher.Publish(ctx, notify.Event{
		Type:     notify.EventOrderStatusChanged,
		EntityID: orderID,
		OrderID:  orderID,
	})
}

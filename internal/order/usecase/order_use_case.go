package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockledger/internal/domain"
	"stockledger/internal/metrics"
	"stockledger/internal/notify"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	DeleteOrderAtVersion(ctx context.Context, id string, version int) (bool, error)
	UpdateOrderDetails(ctx context.Context, order *domain.Order) (bool, error)
	UpdateTracking(ctx context.Context, id string, tracking domain.Tracking) error
}

type VariantLookup interface {
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error)
}

type ReservationManager interface {
	ReserveForOrder(ctx context.Context, order *domain.Order) error
	ReleaseForOrder(ctx context.Context, order *domain.Order, refType string) error
	AdjustForEdit(ctx context.Context, orderID string, before, after map[string]int) error
}

type StatusTransitioner interface {
	Transition(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error)
}

// OrderUseCase orchestrates order lifecycle operations over the ledger.
type OrderUseCase struct {
	orders           OrderRepository
	variants         VariantLookup
	reservations     ReservationManager
	status           StatusTransitioner
	publisher        notify.Publisher
	metrics          *metrics.Metrics
	logger           *zap.Logger
	maxRetryAttempts int
	sleep            func(ctx context.Context, d time.Duration) error
}

func NewOrderUseCase(
	orders OrderRepository,
	variants VariantLookup,
	reservations ReservationManager,
	status StatusTransitioner,
	publisher notify.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	maxRetryAttempts int,
) *OrderUseCase {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &OrderUseCase{
		orders:           orders,
		variants:         variants,
		reservations:     reservations,
		status:           status,
		publisher:        publisher,
		metrics:          m,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		sleep:            sleepContext,
	}
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.orders.FindOrderByID(ctx, orderID)
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return uc.orders.ListOrders(ctx, filter)
}

func (uc *OrderUseCase) TransitionStatus(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error) {
	return uc.status.Transition(ctx, orderID, to)
}

func (uc *OrderUseCase) publish(ctx context.Context, eventType notify.EventType, orderID string) {
	uc.publisher.Publish(context.WithoutCancel(ctx), notify.Event{
		Type:     eventType,
		EntityID: orderID,
		OrderID:  orderID,
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

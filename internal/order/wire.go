package order

import (
	"go.uber.org/zap"

	"stockledger/internal/config"
	"stockledger/internal/metrics"
	"stockledger/internal/notify"
	"stockledger/internal/order/controller"
	"stockledger/internal/order/service"
	"stockledger/internal/order/usecase"
	"stockledger/internal/reservation"
)

type Repository interface {
	usecase.OrderRepository
	service.OrderRepository
}

type Ledger interface {
	reservation.Ledger
	usecase.VariantLookup
}

// NewModule wires the order lifecycle over an order store and the ledger.
func NewModule(
	orders Repository,
	ledger Ledger,
	alerter reservation.Alerter,
	publisher notify.Publisher,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *controller.OrderController {
	manager := reservation.NewManager(ledger, orders, alerter, m, logger, cfg.Order.ReservationTimeout)
	status := service.NewStatusService(orders, manager, publisher, m, logger)
	uc := usecase.NewOrderUseCase(orders, ledger, manager, status, publisher, m, logger, cfg.Order.MaxRetryAttempts)
	return controller.NewOrderController(uc)
}

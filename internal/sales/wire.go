package sales

import (
	"go.uber.org/zap"

	"stockledger/internal/sales/controller"
	"stockledger/internal/sales/service"
)

func NewModule(repo service.SalesRepository, logger *zap.Logger) *controller.SalesController {
	return controller.NewSalesController(service.NewSalesService(repo, logger))
}

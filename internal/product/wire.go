package product

import (
	"go.uber.org/zap"

	"stockledger/internal/notify"
	"stockledger/internal/product/controller"
	"stockledger/internal/product/usecase"
)

func NewModule(repo usecase.ProductRepository, ledger usecase.StockLedger, publisher notify.Publisher, logger *zap.Logger) *controller.ProductController {
	uc := usecase.NewProductUseCase(repo, ledger, publisher, logger)
	return controller.NewProductController(uc)
}

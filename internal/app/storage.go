package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockledger/internal/config"
	"stockledger/internal/infrastructure/database"
	"stockledger/internal/infrastructure/memory"
	ledgerrepo "stockledger/internal/ledger/repository"
	ledgerservice "stockledger/internal/ledger/service"
	"stockledger/internal/order"
	orderrepo "stockledger/internal/order/repository"
	productrepo "stockledger/internal/product/repository"
	productusecase "stockledger/internal/product/usecase"
	salesrepo "stockledger/internal/sales/repository"
	salesservice "stockledger/internal/sales/service"
)

// Storage groups the repositories of every module over one backend.
type Storage struct {
	Variants  ledgerservice.VariantRepository
	Movements ledgerservice.MovementRepository
	Products  productusecase.ProductRepository
	Orders    order.Repository
	Sales     salesservice.SalesRepository

	db *sqlx.DB
}

// OpenStorage connects the configured backend. SQL backends are migrated
// before use.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Storage, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		store := memory.New()
		return &Storage{
			Variants:  store,
			Movements: store,
			Products:  store,
			Orders:    store,
			Sales:     store,
		}, nil
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	logger.Info("database connected", zap.String("driver", cfg.Driver))

	return &Storage{
		Variants:  ledgerrepo.NewSQLVariantRepository(db),
		Movements: ledgerrepo.NewSQLMovementRepository(db),
		Products:  productrepo.NewSQLProductRepository(db),
		Orders:    orderrepo.NewSQLOrderRepository(db),
		Sales:     salesrepo.NewSQLSalesRepository(db),
		db:        db,
	}, nil
}

// Persistent reports whether the data outlives the process.
func (s *Storage) Persistent() bool {
	return s.db != nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

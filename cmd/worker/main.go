package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"stockledger/internal/app"
	"stockledger/internal/config"
	"stockledger/internal/infrastructure/logger"
	"stockledger/internal/jobs"
	ledgerservice "stockledger/internal/ledger/service"
	"stockledger/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, "stockledger-worker")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Redis.Addr == "" {
		zapLogger.Fatal("REDIS_ADDR is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := app.OpenStorage(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("opening storage", zap.Error(err))
	}
	defer storage.Close()
	if !storage.Persistent() {
		zapLogger.Fatal("the worker needs a shared database, DB_DRIVER=memory is not supported")
	}

	m := metrics.New()
	ledger := ledgerservice.NewLedgerService(storage.Variants, storage.Movements, nil, m, zapLogger, cfg.Ledger.MovementPageSize)

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: cfg.Worker.Concurrency,
		Logger:      zapLogger,
		Reconcile:   jobs.NewReconcileJob(ledger, m, zapLogger),
	})

	if err := worker.Run(ctx); err != nil {
		zapLogger.Fatal("worker stopped with error", zap.Error(err))
	}
}

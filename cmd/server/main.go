package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stockledger/internal/app"
	"stockledger/internal/config"
	"stockledger/internal/infrastructure/logger"
	"stockledger/internal/infrastructure/redis"
	"stockledger/internal/jobs"
	ledgercontroller "stockledger/internal/ledger/controller"
	ledgerservice "stockledger/internal/ledger/service"
	"stockledger/internal/metrics"
	"stockledger/internal/notify"
	"stockledger/internal/order"
	"stockledger/internal/product"
	"stockledger/internal/reservation"
	"stockledger/internal/sales"
	"stockledger/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, "stockledger-api")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := app.OpenStorage(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("opening storage", zap.Error(err))
	}
	defer storage.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}

	var alerter reservation.Alerter = jobs.NewLogAlerter(zapLogger)
	if redisClient != nil {
		defer redisClient.Close()
		jobClient := jobs.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, zapLogger)
		defer jobClient.Close()
		alerter = jobClient
	}

	m := metrics.New()
	publisher := notify.NewPublisher(redisClient, cfg.Redis.NotifyChannel, zapLogger)
	ledger := ledgerservice.NewLedgerService(storage.Variants, storage.Movements, publisher, m, zapLogger, cfg.Ledger.MovementPageSize)

	router := server.NewRouter(server.RouterParams{
		Logger:    zapLogger,
		Metrics:   m,
		RateLimit: cfg.Server.RateLimit,
		Orders:    order.NewModule(storage.Orders, ledger, alerter, publisher, m, cfg, zapLogger),
		Products:  product.NewModule(storage.Products, ledger, publisher, zapLogger),
		Ledger:    ledgercontroller.NewLedgerController(ledger),
		Sales:     sales.NewModule(storage.Sales, zapLogger),
	})

	srv := server.New(cfg.Server, router, zapLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
	zapLogger.Info("server stopped gracefully")
}

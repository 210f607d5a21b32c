package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker wraps the asynq server processing ledger tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *zap.Logger
	Reconcile   *ReconcileJob
}

func NewWorker(cfg WorkerConfig) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueLedger: 1,
		},
		Logger: cfg.Logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLedgerReconcile, cfg.Reconcile.Handle)

	return &Worker{server: srv, mux: mux, logger: cfg.Logger}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info("worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return nil
}

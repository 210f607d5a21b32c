package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Client submits ledger tasks to the queue.
type Client struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewClient(redisOpts asynq.RedisClientOpt, logger *zap.Logger) *Client {
	return &Client{client: asynq.NewClient(redisOpts), logger: logger}
}

// EnqueueReconcile asks the worker to check the given variants.
func (c *Client) EnqueueReconcile(ctx context.Context, variantIDs []string, reason string) error {
	task, err := NewReconcileTask(ReconcilePayload{
		VariantIDs:  variantIDs,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("building reconcile task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueueing reconcile task: %w", err)
	}

	c.logger.Warn("ledger reconciliation requested",
		zap.String("taskId", info.ID),
		zap.Strings("variantIds", variantIDs),
		zap.String("reason", reason),
	)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// LogAlerter stands in for Client when no queue is configured. The request
// is only logged, so an operator has to act on it.
type LogAlerter struct {
	logger *zap.Logger
}

func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) EnqueueReconcile(_ context.Context, variantIDs []string, reason string) error {
	a.logger.Error("ledger reconciliation needed, no job queue configured",
		zap.Strings("variantIds", variantIDs),
		zap.String("reason", reason),
	)
	return nil
}

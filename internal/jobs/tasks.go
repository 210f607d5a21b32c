package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueLedger carries ledger maintenance tasks.
	QueueLedger = "ledger"
	// TaskLedgerReconcile replays the movement log of some variants and
	// reports where it disagrees with their counters.
	TaskLedgerReconcile = "ledger:reconcile"
)

type ReconcilePayload struct {
	VariantIDs  []string  `json:"variant_ids"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body, asynq.Queue(QueueLedger), asynq.MaxRetry(5)), nil
}

package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockClosingWarmup precomputes the cached closing stock report.
	TaskStockClosingWarmup = "stock:closing-warmup"
	// TaskCreditsReconcile compares stored credit balances with bill history.
	TaskCreditsReconcile = "credits:reconcile"
	// TaskIdempotencyCleanup purges expired submission keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// StockWarmupPayload carries no options yet; Reason is logged.
type StockWarmupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// CreditReconcilePayload tunes a reconcile run.
type CreditReconcilePayload struct {
	// Tolerance is the largest difference not reported as drift. Zero means
	// the ledger's pruning threshold.
	Tolerance float64 `json:"tolerance,omitempty"`
}

// IdempotencyCleanupPayload sets how long keys are retained.
type IdempotencyCleanupPayload struct {
	RetentionSeconds int64 `json:"retentionSeconds"`
}

// Retention returns the payload retention as a duration.
func (p IdempotencyCleanupPayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewStockWarmupTask constructs a closing stock warmup task.
func NewStockWarmupTask(reason string) (*asynq.Task, error) {
	return newTask(TaskStockClosingWarmup, StockWarmupPayload{Reason: reason})
}

// NewCreditReconcileTask constructs a credit reconcile task.
func NewCreditReconcileTask(tolerance float64) (*asynq.Task, error) {
	return newTask(TaskCreditsReconcile, CreditReconcilePayload{Tolerance: tolerance})
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{RetentionSeconds: int64(retention / time.Second)})
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

// decodePayload reads t's payload into dest. Empty payloads keep dest as is.
func decodePayload(t *asynq.Task, dest any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return asynq.SkipRetry
	}
	return nil
}

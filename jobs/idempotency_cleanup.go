package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// CleanupFunc deletes idempotency keys older than the given age and returns
// how many were removed.
type CleanupFunc func(ctx context.Context, olderThan time.Duration) (int64, error)

// IdempotencyCleanupJob purges expired submission keys.
type IdempotencyCleanupJob struct {
	Cleanup   CleanupFunc
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   Recorder
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
// retention is used when the task payload does not set one.
func NewIdempotencyCleanupJob(cleanup CleanupFunc, retention time.Duration, logger *slog.Logger, metrics Recorder) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Cleanup: cleanup, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Cleanup == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	defer func() { recorderOrNop(j.Metrics).JobRun(TaskIdempotencyCleanup, resultErr) }()

	retention := payload.Retention()
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		return asynq.SkipRetry
	}
	removed, err := j.Cleanup(ctx, retention)
	logger := jobLogger(j.Logger, TaskIdempotencyCleanup)
	if err != nil {
		logger.Error("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	logger.Info("idempotency keys purged", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return nil
}

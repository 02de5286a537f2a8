package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/stock"
)

// StockWarmer rebuilds the cached closing stock report.
type StockWarmer interface {
	Warm(ctx context.Context) (stock.Report, error)
}

// StockWarmupJob keeps the closing stock cache hot between writes.
type StockWarmupJob struct {
	Stock   StockWarmer
	Logger  *slog.Logger
	Metrics Recorder
	Timeout time.Duration
}

// NewStockWarmupJob wires dependencies for the warmup handler.
func NewStockWarmupJob(warmer StockWarmer, logger *slog.Logger, metrics Recorder) *StockWarmupJob {
	return &StockWarmupJob{Stock: warmer, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// Handle processes TaskStockClosingWarmup tasks.
func (j *StockWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Stock == nil {
		return errors.New("stock warmup: handler not configured")
	}
	var payload StockWarmupPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	defer func() { recorderOrNop(j.Metrics).JobRun(TaskStockClosingWarmup, resultErr) }()

	logger := jobLogger(j.Logger, TaskStockClosingWarmup)
	if payload.Reason != "" {
		logger = logger.With(slog.String("reason", payload.Reason))
	}
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := j.Stock.Warm(ctx)
	if err != nil {
		logger.Error("warm closing stock", slog.Any("error", err))
		return err
	}
	logger.Info("closing stock warmed",
		slog.Int("rows", len(report.Rows)),
		slog.Int("quantity", report.TotalQuantity),
		slog.Duration("duration", time.Since(start)))
	return nil
}

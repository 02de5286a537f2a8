package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pos/internal/backup"
	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/ids"
	"github.com/odyssey-erp/odyssey-pos/internal/reports"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
	"github.com/odyssey-erp/odyssey-pos/migrations"
)

// Services is the wired domain layer shared by the server and the worker.
type Services struct {
	Billing *billing.Service
	Stock   *stock.Service
	Reports *reports.Service
	Backup  *backup.Service

	// Snapshots reads bills and credits from one consistent view.
	Snapshots backup.Repository
	// CleanupIdempotency purges submission keys older than the given age.
	CleanupIdempotency func(ctx context.Context, olderThan time.Duration) (int64, error)
	// StockCache is nil-safe and bypassed when Redis is unavailable.
	StockCache *cache.Versioned
	Redis      *redis.Client
	Checks     map[string]HealthCheck

	closers []func()
}

// Close releases pools and clients in reverse order of creation.
func (s *Services) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// BuildServices connects the configured store and cache and wires every
// domain service. Redis is optional: without it closing stock is computed on
// each request.
func BuildServices(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	loc, err := cfg.ReportLocation()
	if err != nil {
		return nil, err
	}
	gen, err := ids.New(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("app: id generator: %w", err)
	}
	svcs := &Services{Checks: map[string]HealthCheck{}}

	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, closing stock cache disabled", slog.Any("error", err))
		} else {
			svcs.Redis = client
			svcs.closers = append(svcs.closers, func() {
				if err := client.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			})
			svcs.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
	svcs.StockCache = cache.NewVersioned(svcs.Redis, "pos:stock", cfg.StockCacheTTL)
	closing := stock.NewCache(svcs.StockCache)

	var (
		billRepo   billing.Repository
		stockRepo  stock.Repository
		backupRepo backup.Repository
	)
	switch cfg.StoreDriver {
	case StoreMemory:
		store := memory.New()
		billRepo, stockRepo, backupRepo = store, store, store
		svcs.CleanupIdempotency = store.CleanupIdempotencyKeys
		logger.Warn("using in-memory store, data is lost on restart")
	case StorePostgres:
		pool, err := db.New(ctx, db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
		if err != nil {
			svcs.Close()
			return nil, err
		}
		svcs.closers = append(svcs.closers, pool.Close)
		if cfg.PGMigrate {
			applied, err := db.Migrate(ctx, pool, migrations.FS)
			if err != nil {
				svcs.Close()
				return nil, err
			}
			if len(applied) > 0 {
				logger.Info("schema migrated", slog.Any("files", applied))
			}
		}
		svcs.Checks["postgres"] = pool.Ping
		billRepo = billing.NewRepository(pool)
		stockRepo = stock.NewRepository(pool)
		backupRepo = backup.NewRepository(pool)
		svcs.CleanupIdempotency = shared.NewIdempotencyStore(pool).Cleanup
	default:
		svcs.Close()
		return nil, errors.New("app: unknown store driver " + cfg.StoreDriver)
	}

	svcs.Billing = billing.NewService(billRepo, gen, billing.ServiceConfig{
		PersistTimeout: cfg.PersistTimeout,
		Logger:         logger,
		Metrics:        metrics,
		Notifier:       closing,
	})
	svcs.Stock = stock.NewService(stockRepo, svcs.Billing, gen, closing, logger)
	svcs.Reports = reports.NewService(svcs.Billing, loc)
	svcs.Backup = backup.NewService(backupRepo, closing, logger, cfg.BackupTimeout)
	svcs.Snapshots = backupRepo
	return svcs, nil
}

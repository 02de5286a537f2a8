package stock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// BillSource supplies the bill history netted against purchases.
type BillSource interface {
	List(ctx context.Context, filter billing.ListFilter) ([]billing.Bill, error)
}

// IDGenerator issues purchase ids.
type IDGenerator interface {
	Next() string
}

// Service records purchases and serves closing stock.
type Service struct {
	repo      Repository
	bills     BillSource
	ids       IDGenerator
	cache     *Cache
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// NewService builds Service. cache may be nil.
func NewService(repo Repository, bills BillSource, ids IDGenerator, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewCache(nil)
	}
	return &Service{
		repo:      repo,
		bills:     bills,
		ids:       ids,
		cache:     cache,
		logger:    logger,
		validator: shared.NewValidator(),
		now:       time.Now,
	}
}

// RecordPurchase validates and appends a purchase. Purchases are never
// updated afterwards.
func (s *Service) RecordPurchase(ctx context.Context, in PurchaseInput) (Purchase, error) {
	if err := s.validator.Struct(in); err != nil {
		return Purchase{}, shared.ValidationErrorFrom(err)
	}
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	p := Purchase{
		ID:       s.ids.Next(),
		Date:     date.UTC(),
		Supplier: strings.TrimSpace(in.Supplier),
		Items:    make([]PurchasedItem, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		p.Items = append(p.Items, PurchasedItem{
			ID:       id,
			Name:     strings.TrimSpace(item.Name),
			Code:     strings.TrimSpace(item.Code),
			Size:     strings.TrimSpace(item.Size),
			Quantity: item.Quantity,
			Value:    item.Value,
		})
	}
	if err := s.repo.InsertPurchase(ctx, p); err != nil {
		return Purchase{}, shared.NewPersistenceError("stock: record purchase", err)
	}
	s.logger.Info("purchase recorded",
		slog.String("purchase_id", p.ID),
		slog.String("supplier", p.Supplier),
		slog.Int("lines", len(p.Items)))
	s.invalidate(ctx)
	return p, nil
}

// ListPurchases returns purchases inside filter, oldest first.
func (s *Service) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, filter)
}

// ClosingStock returns the current closing stock report, cached until the
// next bill or purchase write.
func (s *Service) ClosingStock(ctx context.Context) (Report, error) {
	return s.cache.ClosingStock(ctx, s.buildReport)
}

// Warm rebuilds the cached closing stock report.
func (s *Service) Warm(ctx context.Context) (Report, error) {
	report, err := s.ClosingStock(ctx)
	if err != nil {
		return Report{}, err
	}
	s.logger.Debug("closing stock warmed", slog.Int("rows", len(report.Rows)))
	return report, nil
}

func (s *Service) buildReport(ctx context.Context) (Report, error) {
	purchases, err := s.repo.ListPurchases(ctx, PurchaseFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("stock: list purchases: %w", err)
	}
	bills, err := s.bills.List(ctx, billing.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("stock: list bills: %w", err)
	}
	rows := ClosingStock(purchases, bills)
	qty, value := Totals(rows)
	return Report{Rows: rows, TotalQuantity: qty, TotalValue: value, GeneratedAt: s.now().UTC()}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate closing stock cache", slog.Any("error", err))
	}
}

// Package backup exports and restores the bill, credit and purchase
// collections as one JSON document.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/credits"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
)

// Snapshot is the backup document.
type Snapshot struct {
	Bills     []billing.Bill   `json:"bills" validate:"dive"`
	Credits   credits.Credits  `json:"credits" validate:"dive,keys,required,endkeys"`
	Purchases []stock.Purchase `json:"purchases" validate:"dive"`
}

// Counts summarises a snapshot.
type Counts struct {
	Bills     int `json:"bills"`
	Credits   int `json:"credits"`
	Purchases int `json:"purchases"`
}

// Counts returns the size of each collection.
func (s Snapshot) Counts() Counts {
	return Counts{Bills: len(s.Bills), Credits: len(s.Credits), Purchases: len(s.Purchases)}
}

// Repository reads and replaces all collections.
type Repository interface {
	Export(ctx context.Context) (Snapshot, error)
	// Replace swaps every collection for the snapshot in one transaction.
	Replace(ctx context.Context, s Snapshot) error
}

// Invalidator is told when the imported data replaced derived state.
type Invalidator interface {
	BillsChanged(ctx context.Context) error
}

// Service exports and imports backups.
type Service struct {
	repo        Repository
	invalidator Invalidator
	validator   *validator.Validate
	logger      *slog.Logger
	timeout     time.Duration
}

// NewService builds Service. invalidator may be nil.
func NewService(repo Repository, invalidator Invalidator, logger *slog.Logger, timeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		validator:   newValidator(),
		logger:      logger,
		timeout:     timeout,
	}
}

func newValidator() *validator.Validate {
	v := shared.NewValidator()
	v.RegisterStructValidationMapRules(map[string]string{
		"ID":              "required",
		"CustomerKey":     "required",
		"Items":           "required,min=1,dive",
		"Date":            "required",
		"TransactionType": "oneof=Sale Exchange Return",
		"PaymentMethod":   "oneof=Cash Card",
		"CreditApplied":   "gte=0",
		"CreditGenerated": "gte=0",
	}, billing.Bill{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Name":               "required",
		"MRP":                "gte=0",
		"Quantity":           "ne=0",
		"DiscountPercentage": "gte=0,lte=100",
		"NetValue":           "gte=0",
	}, billing.LineItem{})
	v.RegisterStructValidationMapRules(map[string]string{
		"ID":    "required",
		"Date":  "required",
		"Items": "required,min=1,dive",
	}, stock.Purchase{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Code":     "required",
		"Size":     "required",
		"Quantity": "gt=0",
		"Value":    "gte=0",
	}, stock.PurchasedItem{})
	return v
}

// Validate checks the structure of a snapshot before anything is written.
func (s *Service) Validate(snap Snapshot) error {
	verr := &shared.ValidationError{}
	if err := s.validator.Struct(snap); err != nil {
		converted := shared.ValidationErrorFrom(err)
		fieldErr, ok := converted.(*shared.ValidationError)
		if !ok {
			return converted
		}
		verr.Fields = append(verr.Fields, fieldErr.Fields...)
	}
	seenBills := make(map[string]struct{}, len(snap.Bills))
	for i, b := range snap.Bills {
		if _, dup := seenBills[b.ID]; dup && b.ID != "" {
			verr.Add(fmt.Sprintf("bills[%d].id", i), fmt.Sprintf("Bill id %s appears more than once.", b.ID))
		}
		seenBills[b.ID] = struct{}{}
	}
	seenPurchases := make(map[string]struct{}, len(snap.Purchases))
	for i, p := range snap.Purchases {
		if _, dup := seenPurchases[p.ID]; dup && p.ID != "" {
			verr.Add(fmt.Sprintf("purchases[%d].id", i), fmt.Sprintf("Purchase id %s appears more than once.", p.ID))
		}
		seenPurchases[p.ID] = struct{}{}
	}
	for key, balance := range snap.Credits {
		if math.IsNaN(balance) || math.IsInf(balance, 0) {
			verr.Add("credits["+key+"]", "Credit balance must be a finite number.")
		}
	}
	return verr.OrNil()
}

// Export returns every collection.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	snap, err := s.repo.Export(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("backup: export: %w", err)
	}
	if snap.Bills == nil {
		snap.Bills = []billing.Bill{}
	}
	if snap.Credits == nil {
		snap.Credits = credits.Credits{}
	}
	if snap.Purchases == nil {
		snap.Purchases = []stock.Purchase{}
	}
	return snap, nil
}

// Import validates the snapshot and replaces all stored data with it. An
// invalid snapshot leaves the store untouched.
func (s *Service) Import(ctx context.Context, snap Snapshot) (Counts, error) {
	if err := s.Validate(snap); err != nil {
		s.logger.Warn("backup rejected", slog.Any("error", err))
		return Counts{}, err
	}
	if snap.Credits == nil {
		snap.Credits = credits.Credits{}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Replace(ctx, snap); err != nil {
		return Counts{}, shared.NewPersistenceError("backup: import", err)
	}
	counts := snap.Counts()
	s.logger.Info("backup imported",
		slog.Int("bills", counts.Bills),
		slog.Int("credits", counts.Credits),
		slog.Int("purchases", counts.Purchases))
	if s.invalidator != nil {
		if err := s.invalidator.BillsChanged(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("invalidate after import", slog.Any("error", err))
		}
	}
	return counts, nil
}

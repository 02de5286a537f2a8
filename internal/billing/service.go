package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/credits"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// IDGenerator issues new bill ids.
type IDGenerator interface {
	Next() string
}

// ChangeNotifier is told when bill history changes so derived views can be
// invalidated.
type ChangeNotifier interface {
	BillsChanged(ctx context.Context) error
}

// MetricsRecorder receives finalize outcomes.
type MetricsRecorder interface {
	BillFinalized(txType string)
	FinalizeFailed(stage string)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// PersistTimeout bounds the store transaction. Zero means 10s.
	PersistTimeout time.Duration
	Logger         *slog.Logger
	Metrics        MetricsRecorder
	Notifier       ChangeNotifier
}

// Service finalizes, updates and deletes bills together with their credit
// effect.
type Service struct {
	repo           Repository
	ids            IDGenerator
	logger         *slog.Logger
	metrics        MetricsRecorder
	notifier       ChangeNotifier
	persistTimeout time.Duration
	now            func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, ids IDGenerator, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		repo:           repo,
		ids:            ids,
		logger:         logger,
		metrics:        cfg.Metrics,
		notifier:       cfg.Notifier,
		persistTimeout: timeout,
		now:            time.Now,
	}
}

// Finalize validates a draft, settles it against the customer's credit and
// persists bill and balance in one transaction. On update the stored bill's
// credit effect is not reversed first; the new application is made on top of
// the current balance. On any error nothing is committed and the draft can be
// resubmitted.
func (s *Service) Finalize(ctx context.Context, draft Draft, isUpdate bool) (FinalizeResult, error) {
	stage := StateValidating
	fail := func(err error) (FinalizeResult, error) {
		s.logger.Warn("bill finalize failed",
			slog.String("stage", string(stage)),
			slog.String("bill_id", draft.ID),
			slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.FinalizeFailed(string(stage))
		}
		return FinalizeResult{State: StateDraft}, err
	}

	if isUpdate && strings.TrimSpace(draft.ID) == "" {
		return fail(ErrMissingID)
	}
	items, err := validateDraft(draft)
	if err != nil {
		return fail(err)
	}

	stage = StateComputing
	total := BillTotal(items)
	creditToApply := ParseCreditAmount(draft.CreditToApply)
	txType := draft.TransactionType
	if txType == "" {
		txType = TransactionSale
	}
	payment := draft.PaymentMethod
	if payment == "" {
		payment = PaymentCash
	}
	date := draft.Date
	if date.IsZero() {
		date = s.now()
	}
	bill := Bill{
		ID:                  strings.TrimSpace(draft.ID),
		CustomerKey:         strings.TrimSpace(draft.MobileNumber),
		CustomerName:        strings.TrimSpace(draft.CustomerName),
		Items:               items,
		Date:                date.UTC(),
		TransactionType:     txType,
		PaymentMethod:       payment,
		CreditApplied:       creditToApply,
		CustomInvoiceNumber: strings.TrimSpace(draft.CustomInvoiceNumber),
		ShowroomBrand:       draft.ShowroomBrand,
		Address:             draft.Address,
		GSTNumber:           draft.GSTNumber,
	}
	if txType.CarriesReturns() {
		bill.OriginalBillID = originOf(items, draft.OriginalBillID)
	}
	if !isUpdate {
		bill.ID = s.ids.Next()
	}

	stage = StatePersisting
	var app credits.Application
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var previous Bill
		if isUpdate {
			var err error
			previous, err = tx.GetBillForUpdate(ctx, bill.ID)
			if err != nil {
				return err
			}
		} else if draft.IdempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, draft.IdempotencyKey); err != nil {
				return err
			}
		}

		balance, err := tx.CreditBalanceForUpdate(ctx, bill.CustomerKey)
		if err != nil {
			return err
		}
		app = credits.Apply(balance, credits.ApplyInput{
			CustomerKey:             bill.CustomerKey,
			PreviousCreditApplied:   previous.CreditApplied,
			PreviousCreditGenerated: previous.CreditGenerated,
			CreditApplied:           creditToApply,
			BillTotal:               total,
		})
		bill.CreditGenerated = app.CreditGenerated
		if app.FinalPayable <= 0 {
			bill.PaymentMethod = PaymentCash
		}

		if isUpdate {
			err = tx.ReplaceBill(ctx, bill)
		} else {
			err = tx.InsertBill(ctx, bill)
		}
		if err != nil {
			return err
		}
		return tx.SetCreditBalance(ctx, bill.CustomerKey, app.NewBalance)
	})
	if err != nil {
		return fail(persistenceError("billing: finalize", err))
	}

	if isUpdate && app.PriorEffect != 0 {
		s.logger.Warn("bill update applied credit without reversing prior effect",
			slog.String("bill_id", bill.ID),
			slog.Float64("prior_effect", app.PriorEffect))
	}
	s.logger.Info("bill finalized",
		slog.String("bill_id", bill.ID),
		slog.String("type", string(bill.TransactionType)),
		slog.Bool("update", isUpdate),
		slog.Float64("total", total),
		slog.Float64("credit_applied", bill.CreditApplied),
		slog.Float64("credit_generated", bill.CreditGenerated))
	if s.metrics != nil {
		s.metrics.BillFinalized(string(bill.TransactionType))
	}
	s.notifyChanged(ctx)

	return FinalizeResult{
		Bill:            bill,
		Summary:         bill.Summary(),
		PreviousBalance: app.PreviousBalance,
		NewBalance:      app.NewBalance,
		State:           StateFinalized,
	}, nil
}

// Delete removes a bill and reverses its credit effect in the same
// transaction. A balance that decays below the prune threshold is removed.
func (s *Service) Delete(ctx context.Context, id string) (DeleteResult, error) {
	var res DeleteResult
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bill, err := tx.GetBillForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteBill(ctx, id); err != nil {
			return err
		}
		res.Bill = bill
		current, err := tx.CreditBalanceForUpdate(ctx, bill.CustomerKey)
		if err != nil {
			return err
		}
		res.NewBalance = current
		// Bills that neither used nor produced credit leave the ledger alone.
		if bill.CreditApplied <= 0 && bill.CreditGenerated <= 0 {
			return nil
		}
		balance, prune := credits.Reverse(current, bill.CreditApplied, bill.CreditGenerated)
		res.NewBalance = balance
		res.Pruned = prune
		if prune {
			return tx.DeleteCreditBalance(ctx, bill.CustomerKey)
		}
		return tx.SetCreditBalance(ctx, bill.CustomerKey, balance)
	})
	if err != nil {
		s.logger.Warn("bill delete failed", slog.String("bill_id", id), slog.Any("error", err))
		return DeleteResult{}, persistenceError("billing: delete", err)
	}
	s.logger.Info("bill deleted",
		slog.String("bill_id", id),
		slog.Float64("balance", res.NewBalance),
		slog.Bool("pruned", res.Pruned))
	s.notifyChanged(ctx)
	return res, nil
}

// LinkReturn loads the original bill and clones the selected lines as
// returned lines.
func (s *Service) LinkReturn(ctx context.Context, originalBillID string, lineItemIDs []string) (ReturnSelection, error) {
	if len(lineItemIDs) == 0 {
		return ReturnSelection{}, shared.NewValidationError("itemIds", "Select at least one item to return.")
	}
	original, err := s.repo.GetBill(ctx, originalBillID)
	if err != nil {
		return ReturnSelection{}, fmt.Errorf("billing: load original bill: %w", err)
	}
	sel := LinkReturn(original, lineItemIDs)
	if len(sel.Items) == 0 {
		return ReturnSelection{}, shared.NewValidationError("itemIds", "None of the selected items belong to this bill.")
	}
	return sel, nil
}

// Get returns a bill by id.
func (s *Service) Get(ctx context.Context, id string) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

// List returns bills matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Bill, error) {
	return s.repo.ListBills(ctx, filter)
}

// Credits returns the current credit ledger snapshot.
func (s *Service) Credits(ctx context.Context) (credits.Credits, error) {
	return s.repo.Credits(ctx)
}

// CreditBalance returns the balance for one customer, zero when absent.
func (s *Service) CreditBalance(ctx context.Context, customerKey string) (float64, error) {
	all, err := s.repo.Credits(ctx)
	if err != nil {
		return 0, err
	}
	return all[customerKey], nil
}

func (s *Service) notifyChanged(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BillsChanged(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("notify bill change", slog.Any("error", err))
	}
}

// ParseCreditAmount reads the credit-to-apply field. Anything that is not a
// finite non-negative number counts as zero.
func ParseCreditAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func validateDraft(draft Draft) ([]LineItem, error) {
	verr := &shared.ValidationError{}
	if strings.TrimSpace(draft.CustomerName) == "" || strings.TrimSpace(draft.MobileNumber) == "" || len(draft.Items) == 0 {
		verr.Add("bill", "Customer Name, Mobile Number, and at least one item are required.")
		return nil, verr
	}
	if draft.TransactionType != "" && !draft.TransactionType.Valid() {
		verr.Add("transactionType", fmt.Sprintf("Unknown transaction type %q.", draft.TransactionType))
	}
	if draft.PaymentMethod != "" && !draft.PaymentMethod.Valid() {
		verr.Add("paymentMethod", fmt.Sprintf("Unknown payment method %q.", draft.PaymentMethod))
	}

	items := make([]LineItem, len(draft.Items))
	seen := make(map[string]struct{}, len(draft.Items))
	hasReturn := false
	for i, item := range draft.Items {
		field := fmt.Sprintf("items[%d]", i)
		// Returns select lines by id, so every line needs its own.
		if _, dup := seen[item.ID]; strings.TrimSpace(item.ID) == "" || dup {
			item.ID = uuid.NewString()
		}
		seen[item.ID] = struct{}{}
		if strings.TrimSpace(item.Name) == "" {
			verr.Add(field+".name", "Item name is required.")
		}
		if item.Quantity == 0 {
			verr.Add(field+".quantity", "Quantity must not be zero.")
		}
		if err := item.Reprice(item.MRP, item.DiscountPercentage); err != nil {
			var itemErr *shared.ValidationError
			if errors.As(err, &itemErr) {
				for _, f := range itemErr.Fields {
					verr.Add(field+"."+f.Field, f.Message)
				}
			}
		}
		if item.IsReturn() {
			hasReturn = true
		}
		items[i] = item
	}
	if draft.TransactionType.CarriesReturns() && !hasReturn {
		verr.Add("items", fmt.Sprintf("A %s must include at least one returned item.", draft.TransactionType))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return items, nil
}

func persistenceError(op string, err error) error {
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrDuplicate) {
		return err
	}
	return shared.NewPersistenceError(op, err)
}

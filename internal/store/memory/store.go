// Package memory is an in-process store for bills, credits and purchases.
// Transactions stage their writes on copies and publish them on success, so
// a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/backup"
	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/credits"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/ids"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
)

// Store implements the billing, stock and backup repositories.
type Store struct {
	mu        sync.RWMutex
	ledger    *credits.Ledger
	bills     map[string]billing.Bill
	purchases []stock.Purchase
	keys      map[string]time.Time
	now       func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		ledger: credits.NewLedger(nil),
		bills:  make(map[string]billing.Bill),
		keys:   make(map[string]time.Time),
		now:    time.Now,
	}
}

type tx struct {
	store  *Store
	ledger *credits.Ledger
	bills  map[string]billing.Bill
	keys   map[string]time.Time
}

// WithTx runs fn against staged copies and commits them when fn succeeds
// and ctx is still live. Transactions run one at a time.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, billing.TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &tx{
		store:  s,
		ledger: s.ledger.Clone(),
		bills:  make(map[string]billing.Bill, len(s.bills)),
		keys:   make(map[string]time.Time, len(s.keys)),
	}
	for id, b := range s.bills {
		staged.bills[id] = b
	}
	for k, at := range s.keys {
		staged.keys[k] = at
	}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: commit: %w", err)
	}
	s.bills = staged.bills
	s.keys = staged.keys
	s.ledger.Restore(staged.ledger.Snapshot())
	return nil
}

func (s *Store) GetBill(ctx context.Context, id string) (billing.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[id]
	if !ok {
		return billing.Bill{}, billing.ErrNotFound
	}
	return b, nil
}

// ListBills returns matching bills, newest first.
func (s *Store) ListBills(ctx context.Context, filter billing.ListFilter) ([]billing.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Bill, 0, len(s.bills))
	for _, b := range s.bills {
		if filter.Match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return ids.Compare(out[i].ID, out[j].ID) > 0
	})
	return out, nil
}

func (s *Store) Credits(ctx context.Context) (credits.Credits, error) {
	return s.ledger.Snapshot(), nil
}

func (t *tx) GetBillForUpdate(ctx context.Context, id string) (billing.Bill, error) {
	b, ok := t.bills[id]
	if !ok {
		return billing.Bill{}, billing.ErrNotFound
	}
	return b, nil
}

func (t *tx) InsertBill(ctx context.Context, bill billing.Bill) error {
	if _, exists := t.bills[bill.ID]; exists {
		return fmt.Errorf("memory: bill %s: %w", bill.ID, shared.ErrDuplicate)
	}
	t.bills[bill.ID] = bill
	return nil
}

func (t *tx) ReplaceBill(ctx context.Context, bill billing.Bill) error {
	if _, ok := t.bills[bill.ID]; !ok {
		return billing.ErrNotFound
	}
	t.bills[bill.ID] = bill
	return nil
}

func (t *tx) DeleteBill(ctx context.Context, id string) error {
	if _, ok := t.bills[id]; !ok {
		return billing.ErrNotFound
	}
	delete(t.bills, id)
	return nil
}

func (t *tx) CreditBalanceForUpdate(ctx context.Context, key string) (float64, error) {
	balance, _ := t.ledger.Balance(key)
	return balance, nil
}

func (t *tx) SetCreditBalance(ctx context.Context, key string, balance float64) error {
	t.ledger.Set(key, balance)
	return nil
}

func (t *tx) DeleteCreditBalance(ctx context.Context, key string) error {
	t.ledger.Delete(key)
	return nil
}

func (t *tx) ClaimIdempotencyKey(ctx context.Context, key string) error {
	if _, ok := t.keys[key]; ok {
		return billing.ErrDuplicateSubmission
	}
	t.keys[key] = t.store.now()
	return nil
}

// CleanupIdempotencyKeys forgets keys claimed before now-olderThan.
func (s *Store) CleanupIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan)
	var removed int64
	for k, at := range s.keys {
		if at.Before(cutoff) {
			delete(s.keys, k)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) InsertPurchase(ctx context.Context, p stock.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.purchases {
		if existing.ID == p.ID {
			return fmt.Errorf("memory: purchase %s: %w", p.ID, shared.ErrDuplicate)
		}
	}
	s.purchases = append(s.purchases, p)
	return nil
}

// ListPurchases returns matching purchases, oldest first.
func (s *Store) ListPurchases(ctx context.Context, filter stock.PurchaseFilter) ([]stock.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stock.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return ids.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

// Export copies every collection.
func (s *Store) Export(ctx context.Context) (backup.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := backup.Snapshot{
		Bills:     make([]billing.Bill, 0, len(s.bills)),
		Credits:   s.ledger.Snapshot(),
		Purchases: append([]stock.Purchase(nil), s.purchases...),
	}
	for _, b := range s.bills {
		snap.Bills = append(snap.Bills, b)
	}
	sort.Slice(snap.Bills, func(i, j int) bool {
		if !snap.Bills[i].Date.Equal(snap.Bills[j].Date) {
			return snap.Bills[i].Date.Before(snap.Bills[j].Date)
		}
		return ids.Compare(snap.Bills[i].ID, snap.Bills[j].ID) < 0
	})
	return snap, nil
}

// Replace swaps every collection at once.
func (s *Store) Replace(ctx context.Context, snap backup.Snapshot) error {
	bills := make(map[string]billing.Bill, len(snap.Bills))
	for _, b := range snap.Bills {
		if _, dup := bills[b.ID]; dup {
			return fmt.Errorf("memory: bill %s: %w", b.ID, shared.ErrDuplicate)
		}
		bills[b.ID] = b
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = bills
	s.purchases = append([]stock.Purchase(nil), snap.Purchases...)
	s.ledger.Restore(snap.Credits)
	return nil
}

package credits

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConsumesCredit(t *testing.T) {
	res := Apply(800, ApplyInput{CustomerKey: "9876543210", CreditApplied: 500, BillTotal: 1800})
	assert.InDelta(t, 1300, res.FinalPayable, 1e-9)
	assert.InDelta(t, 0, res.CreditGenerated, 1e-9)
	assert.InDelta(t, 300, res.NewBalance, 1e-9)
	assert.InDelta(t, 800, res.PreviousBalance, 1e-9)
}

func TestApplyGeneratesCreditWhenPayableNegative(t *testing.T) {
	res := Apply(600, ApplyInput{CustomerKey: "9876543210", CreditApplied: 500, BillTotal: 200})
	assert.InDelta(t, -300, res.FinalPayable, 1e-9)
	assert.InDelta(t, 300, res.CreditGenerated, 1e-9)
	assert.InDelta(t, 400, res.NewBalance, 1e-9)
}

func TestApplyReturnOnlyBill(t *testing.T) {
	res := Apply(0, ApplyInput{CustomerKey: "1", BillTotal: -1500})
	assert.InDelta(t, 1500, res.CreditGenerated, 1e-9)
	assert.InDelta(t, 1500, res.NewBalance, 1e-9)
}

func TestApplyDoesNotClampOverApplication(t *testing.T) {
	res := Apply(100, ApplyInput{CustomerKey: "1", CreditApplied: 400, BillTotal: 1000})
	assert.InDelta(t, -300, res.NewBalance, 1e-9)
}

func TestApplyReportsPriorEffect(t *testing.T) {
	res := Apply(0, ApplyInput{CustomerKey: "1", PreviousCreditApplied: 200, PreviousCreditGenerated: 50, BillTotal: 10})
	assert.InDelta(t, -150, res.PriorEffect, 1e-9)
}

func TestReversePrunesNoise(t *testing.T) {
	balance, prune := Reverse(500.0004, 0, 500)
	assert.True(t, prune)
	assert.InDelta(t, 0.0004, balance, 1e-9)

	balance, prune = Reverse(0, 500, 0)
	assert.False(t, prune)
	assert.InDelta(t, 500, balance, 1e-9)

	_, prune = Reverse(100, 0, 300)
	assert.False(t, prune, "a real negative balance is kept")
}

func TestLedgerApplyWritesZeroBalance(t *testing.T) {
	l := NewLedger(Credits{"a": 500})
	res := l.Apply(ApplyInput{CustomerKey: "a", CreditApplied: 500, BillTotal: 900})
	assert.InDelta(t, 0, res.NewBalance, 1e-9)
	balance, ok := l.Balance("a")
	require.True(t, ok, "non-delete path keeps zero entries")
	assert.InDelta(t, 0, balance, 1e-9)
}

func TestLedgerFinalizeThenDeleteRoundTrip(t *testing.T) {
	l := NewLedger(Credits{"a": 750})
	res := l.Apply(ApplyInput{CustomerKey: "a", CreditApplied: 500, BillTotal: 200})
	l.Reverse("a", 500, res.CreditGenerated)
	balance, ok := l.Balance("a")
	require.True(t, ok)
	assert.InDelta(t, 750, balance, PruneThreshold)
}

func TestLedgerReverseRemovesEntry(t *testing.T) {
	l := NewLedger(nil)
	res := l.Apply(ApplyInput{CustomerKey: "a", BillTotal: -300})
	l.Reverse("a", 0, res.CreditGenerated)
	_, ok := l.Balance("a")
	assert.False(t, ok)
}

func TestLedgerSnapshotIsIndependent(t *testing.T) {
	l := NewLedger(Credits{"a": 1})
	snap := l.Snapshot()
	snap["a"] = 99
	balance, _ := l.Balance("a")
	assert.InDelta(t, 1, balance, 1e-9)

	clone := l.Clone()
	clone.Set("a", 5)
	balance, _ = l.Balance("a")
	assert.InDelta(t, 1, balance, 1e-9)
}

func TestLedgerConcurrentApply(t *testing.T) {
	l := NewLedger(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Apply(ApplyInput{CustomerKey: "a", BillTotal: -10})
		}()
	}
	wg.Wait()
	balance, _ := l.Balance("a")
	assert.InDelta(t, 500, balance, 1e-9)
}

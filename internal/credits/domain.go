package credits

import "math"

// PruneThreshold is the magnitude below which a reversed balance is treated
// as float drift and removed from the ledger.
const PruneThreshold = 0.001

// Credits maps a customer key (mobile number) to its store-credit balance.
type Credits map[string]float64

// Clone returns an independent copy.
func (c Credits) Clone() Credits {
	out := make(Credits, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ApplyInput carries the values used to settle one bill against the ledger.
// PreviousCreditApplied and PreviousCreditGenerated describe the stored bill
// on an update; they are reported back but do not alter the computation.
type ApplyInput struct {
	CustomerKey             string
	PreviousCreditApplied   float64
	PreviousCreditGenerated float64
	CreditApplied           float64
	BillTotal               float64
}

// Application is the outcome of settling a bill.
type Application struct {
	PreviousBalance float64
	NewBalance      float64
	FinalPayable    float64
	CreditGenerated float64
	// PriorEffect is the ledger effect of the stored bill on an update that
	// was not reversed before the new application.
	PriorEffect float64
}

// Apply settles a bill against the current balance.
func Apply(currentBalance float64, in ApplyInput) Application {
	finalPayable := in.BillTotal - in.CreditApplied
	generated := 0.0
	if finalPayable < 0 {
		generated = -finalPayable
	}
	return Application{
		PreviousBalance: currentBalance,
		NewBalance:      currentBalance - in.CreditApplied + generated,
		FinalPayable:    finalPayable,
		CreditGenerated: generated,
		PriorEffect:     in.PreviousCreditGenerated - in.PreviousCreditApplied,
	}
}

// Reverse undoes a deleted bill's effect. prune reports that the resulting
// balance is noise and the entry should be removed.
func Reverse(currentBalance, creditApplied, creditGenerated float64) (balance float64, prune bool) {
	balance = currentBalance + creditApplied - creditGenerated
	return balance, math.Abs(balance) < PruneThreshold
}

package credits

import "sync"

// Ledger owns the customer credit table. All mutation goes through its
// methods, one writer at a time.
type Ledger struct {
	mu       sync.RWMutex
	balances Credits
}

// NewLedger builds a ledger seeded with snapshot. The snapshot is copied.
func NewLedger(snapshot Credits) *Ledger {
	if snapshot == nil {
		return &Ledger{balances: make(Credits)}
	}
	return &Ledger{balances: snapshot.Clone()}
}

// Balance returns the balance for key and whether an entry exists.
func (l *Ledger) Balance(key string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.balances[key]
	return v, ok
}

// Apply settles a bill and writes the new balance unconditionally, even when
// it is exactly zero.
func (l *Ledger) Apply(in ApplyInput) Application {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := Apply(l.balances[in.CustomerKey], in)
	l.balances[in.CustomerKey] = res.NewBalance
	return res
}

// Reverse undoes a bill's effect, removing the entry when it decays to noise.
func (l *Ledger) Reverse(key string, creditApplied, creditGenerated float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, prune := Reverse(l.balances[key], creditApplied, creditGenerated)
	if prune {
		delete(l.balances, key)
		return balance
	}
	l.balances[key] = balance
	return balance
}

// Set overwrites a single balance.
func (l *Ledger) Set(key string, balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[key] = balance
}

// Delete removes an entry.
func (l *Ledger) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.balances, key)
}

// Snapshot returns a copy of the whole table.
func (l *Ledger) Snapshot() Credits {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances.Clone()
}

// Restore replaces the whole table.
func (l *Ledger) Restore(snapshot Credits) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if snapshot == nil {
		l.balances = make(Credits)
		return
	}
	l.balances = snapshot.Clone()
}

// Clone returns an independent ledger with the same balances.
func (l *Ledger) Clone() *Ledger {
	return NewLedger(l.Snapshot())
}

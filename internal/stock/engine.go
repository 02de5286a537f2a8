package stock

import (
	"sort"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/ids"
)

type stockKey struct {
	code string
	size string
}

type accumulator struct {
	name       string
	quantity   int
	cost       float64
	supplier   string
	date       time.Time
	purchaseID string
	seen       bool
}

// newer reports whether a purchase dated at with id should replace the
// accumulator's last known values. Equal dates go to the higher id.
func (a *accumulator) newer(at time.Time, id string) bool {
	if !a.seen {
		return true
	}
	if at.Equal(a.date) {
		return ids.Compare(id, a.purchaseID) >= 0
	}
	return at.After(a.date)
}

type mrpMark struct {
	mrp    float64
	date   time.Time
	billID string
}

// ClosingStock nets purchased quantities against billed quantities per code
// and size. Returned lines carry negative quantities and add stock back.
// Sold codes that were never purchased contribute nothing. Rows with no
// stock on hand are dropped. The result does not depend on input order.
func ClosingStock(purchases []Purchase, bills []billing.Bill) []ClosingStockRow {
	acc := make(map[stockKey]*accumulator)
	for _, p := range purchases {
		for _, item := range p.Items {
			k := stockKey{code: item.Code, size: item.Size}
			a, ok := acc[k]
			if !ok {
				a = &accumulator{}
				acc[k] = a
			}
			a.quantity += item.Quantity
			if a.newer(p.Date, p.ID) {
				a.name = item.Name
				a.cost = item.Value
				a.supplier = p.Supplier
				a.date = p.Date
				a.purchaseID = p.ID
				a.seen = true
			}
		}
	}

	mrps := make(map[string]mrpMark)
	for _, b := range bills {
		for _, item := range b.Items {
			if a, ok := acc[stockKey{code: item.Code, size: item.Size}]; ok {
				a.quantity -= item.Quantity
			}
			if item.Code == "" {
				continue
			}
			mark, ok := mrps[item.Code]
			if !ok || b.Date.After(mark.date) || (b.Date.Equal(mark.date) && ids.Compare(b.ID, mark.billID) >= 0) {
				mrps[item.Code] = mrpMark{mrp: item.MRP, date: b.Date, billID: b.ID}
			}
		}
	}

	rows := make([]ClosingStockRow, 0, len(acc))
	for k, a := range acc {
		if a.quantity <= 0 {
			continue
		}
		rows = append(rows, ClosingStockRow{
			Code:             k.code,
			Size:             k.size,
			Name:             a.name,
			QuantityOnHand:   a.quantity,
			LastKnownMRP:     mrps[k.code].mrp,
			LastKnownCost:    a.cost,
			LastSupplier:     a.supplier,
			LastPurchaseDate: a.date,
			TotalValueAtCost: float64(a.quantity) * a.cost,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Size < rows[j].Size
	})
	return rows
}

// Totals sums on-hand quantity and value at cost.
func Totals(rows []ClosingStockRow) (quantity int, value float64) {
	for _, r := range rows {
		quantity += r.QuantityOnHand
		value += r.TotalValueAtCost
	}
	return quantity, value
}

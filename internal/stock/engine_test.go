package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
)

var (
	day1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	day3 = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
)

func purchase(id string, at time.Time, supplier string, items ...PurchasedItem) Purchase {
	return Purchase{ID: id, Date: at, Supplier: supplier, Items: items}
}

func bill(id string, at time.Time, items ...billing.LineItem) billing.Bill {
	return billing.Bill{ID: id, Date: at, Items: items}
}

func TestClosingStockNetsSales(t *testing.T) {
	purchases := []Purchase{
		purchase("1", day1, "Acme", PurchasedItem{Name: "Top", Code: "TOP01", Size: "M", Quantity: 10, Value: 400}),
	}
	bills := []billing.Bill{
		bill("10", day2, billing.LineItem{Code: "TOP01", Size: "M", MRP: 999, Quantity: 3}),
	}

	rows := ClosingStock(purchases, bills)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, 7, row.QuantityOnHand)
	assert.Equal(t, "Top", row.Name)
	assert.InDelta(t, 999, row.LastKnownMRP, 1e-9)
	assert.InDelta(t, 400, row.LastKnownCost, 1e-9)
	assert.Equal(t, "Acme", row.LastSupplier)
	assert.Equal(t, day1, row.LastPurchaseDate)
	assert.InDelta(t, 2800, row.TotalValueAtCost, 1e-9)
}

func TestClosingStockReturnsAddBack(t *testing.T) {
	purchases := []Purchase{
		purchase("1", day1, "", PurchasedItem{Code: "A", Size: "S", Quantity: 5, Value: 10}),
	}
	bills := []billing.Bill{
		bill("10", day2, billing.LineItem{Code: "A", Size: "S", Quantity: 4}),
		bill("11", day3, billing.LineItem{Code: "A", Size: "S", Quantity: -2}),
	}
	rows := ClosingStock(purchases, bills)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].QuantityOnHand)
}

func TestClosingStockDropsEmptyAndNegativeRows(t *testing.T) {
	purchases := []Purchase{
		purchase("1", day1, "", PurchasedItem{Code: "A", Size: "S", Quantity: 2, Value: 10}),
		purchase("2", day1, "", PurchasedItem{Code: "B", Size: "S", Quantity: 2, Value: 10}),
	}
	bills := []billing.Bill{
		bill("10", day2,
			billing.LineItem{Code: "A", Size: "S", Quantity: 2},
			billing.LineItem{Code: "B", Size: "S", Quantity: 5},
			billing.LineItem{Code: "GHOST", Size: "L", Quantity: 1},
		),
	}
	rows := ClosingStock(purchases, bills)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestClosingStockLatestPurchaseWins(t *testing.T) {
	purchases := []Purchase{
		purchase("3", day3, "Late", PurchasedItem{Name: "New name", Code: "A", Size: "M", Quantity: 1, Value: 30}),
		purchase("1", day1, "Early", PurchasedItem{Name: "Old name", Code: "A", Size: "M", Quantity: 1, Value: 10}),
	}
	rows := ClosingStock(purchases, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].QuantityOnHand)
	assert.Equal(t, "Late", rows[0].LastSupplier)
	assert.Equal(t, "New name", rows[0].Name)
	assert.InDelta(t, 60, rows[0].TotalValueAtCost, 1e-9)
}

func TestClosingStockTieBreaksOnHighestID(t *testing.T) {
	a := purchase("9", day1, "Nine", PurchasedItem{Code: "A", Size: "M", Quantity: 1, Value: 9})
	b := purchase("10", day1, "Ten", PurchasedItem{Code: "A", Size: "M", Quantity: 1, Value: 10})

	for _, order := range [][]Purchase{{a, b}, {b, a}} {
		rows := ClosingStock(order, nil)
		require.Len(t, rows, 1)
		assert.Equal(t, "Ten", rows[0].LastSupplier)
		assert.InDelta(t, 10, rows[0].LastKnownCost, 1e-9)
	}
}

func TestClosingStockMRPFromLatestBill(t *testing.T) {
	purchases := []Purchase{
		purchase("1", day1, "", PurchasedItem{Code: "A", Size: "M", Quantity: 10, Value: 1}),
	}
	early := bill("10", day2, billing.LineItem{Code: "A", Size: "M", MRP: 100, Quantity: 1})
	late := bill("11", day3, billing.LineItem{Code: "A", Size: "L", MRP: 120, Quantity: 1})
	sameDay := bill("12", day3, billing.LineItem{Code: "A", Size: "S", MRP: 130, Quantity: 1})

	for _, order := range [][]billing.Bill{{early, late, sameDay}, {sameDay, late, early}} {
		rows := ClosingStock(purchases, order)
		require.Len(t, rows, 1)
		assert.InDelta(t, 130, rows[0].LastKnownMRP, 1e-9)
		assert.Equal(t, 9, rows[0].QuantityOnHand)
	}
}

func TestClosingStockSortedByCodeAndSize(t *testing.T) {
	purchases := []Purchase{
		purchase("1", day1, "",
			PurchasedItem{Code: "B", Size: "M", Quantity: 1},
			PurchasedItem{Code: "A", Size: "S", Quantity: 1},
			PurchasedItem{Code: "A", Size: "L", Quantity: 1},
		),
	}
	rows := ClosingStock(purchases, nil)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A/L", "A/S", "B/M"}, []string{
		rows[0].Code + "/" + rows[0].Size,
		rows[1].Code + "/" + rows[1].Size,
		rows[2].Code + "/" + rows[2].Size,
	})

	qty, value := Totals([]ClosingStockRow{{QuantityOnHand: 2, TotalValueAtCost: 5}, {QuantityOnHand: 3, TotalValueAtCost: 7.5}})
	assert.Equal(t, 5, qty)
	assert.InDelta(t, 12.5, value, 1e-9)
}

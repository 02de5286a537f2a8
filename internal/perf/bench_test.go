package perf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/ids"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
)

// history builds a year of synthetic purchases and bills over 200 SKUs.
func history(purchases, bills int) ([]stock.Purchase, []billing.Bill) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ps := make([]stock.Purchase, 0, purchases)
	for i := 0; i < purchases; i++ {
		items := make([]stock.PurchasedItem, 0, 5)
		for j := 0; j < 5; j++ {
			items = append(items, stock.PurchasedItem{
				ID:       fmt.Sprintf("p%d-%d", i, j),
				Name:     "Item",
				Code:     fmt.Sprintf("SKU%03d", (i*5+j)%200),
				Size:     []string{"S", "M", "L"}[j%3],
				Quantity: 20,
				Value:    float64(100 + j),
			})
		}
		ps = append(ps, stock.Purchase{ID: fmt.Sprint(i + 1), Date: start.Add(time.Duration(i) * time.Hour), Items: items})
	}
	bs := make([]billing.Bill, 0, bills)
	for i := 0; i < bills; i++ {
		qty := 1
		if i%10 == 0 {
			qty = -1
		}
		bs = append(bs, billing.Bill{
			ID:          fmt.Sprint(i + 1),
			CustomerKey: fmt.Sprintf("98%08d", i%500),
			Date:        start.Add(time.Duration(i) * 30 * time.Minute),
			Items: []billing.LineItem{{
				ID:       fmt.Sprintf("b%d", i),
				Code:     fmt.Sprintf("SKU%03d", i%200),
				Size:     []string{"S", "M", "L"}[i%3],
				MRP:      499,
				Quantity: qty,
				NetValue: 499,
			}},
		})
	}
	return ps, bs
}

func TestClosingStockLatencyTarget(t *testing.T) {
	if testing.Short() {
		t.Skip("latency sampling skipped in short mode")
	}
	purchases, bills := history(2000, 10000)
	samples := make([]time.Duration, 0, 10)
	for i := 0; i < 10; i++ {
		start := time.Now()
		rows := stock.ClosingStock(purchases, bills)
		samples = append(samples, time.Since(start))
		if len(rows) == 0 {
			t.Fatal("expected closing stock rows")
		}
	}
	if p95 := percentile95(samples); p95 > 500*time.Millisecond {
		t.Fatalf("closing stock latency regression: p95=%s threshold=%s", p95, 500*time.Millisecond)
	}
}

func BenchmarkClosingStock(b *testing.B) {
	purchases, bills := history(2000, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stock.ClosingStock(purchases, bills)
	}
}

func BenchmarkFinalizeMemoryStore(b *testing.B) {
	gen, err := ids.New(9)
	if err != nil {
		b.Fatal(err)
	}
	svc := billing.NewService(memory.New(), gen, billing.ServiceConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()
	draft := billing.Draft{
		CustomerName: "Bench",
		Items: []billing.LineItem{
			{ID: "l1", Code: "SKU001", Name: "Tee", Size: "M", MRP: 499, Quantity: 2, DiscountPercentage: 5},
			{ID: "l2", Code: "SKU002", Name: "Cap", Size: "F", MRP: 199, Quantity: 1},
		},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		draft.MobileNumber = fmt.Sprintf("98%08d", i%100)
		if _, err := svc.Finalize(ctx, draft, false); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSplitTax(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = billing.SplitTax(float64(i%10000) + 0.5).Rounded()
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

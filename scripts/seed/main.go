package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.StoreDriver = app.StorePostgres
	cfg.PGMigrate = true

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svcs, err := app.BuildServices(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer svcs.Close()

	base := time.Now().UTC().AddDate(0, 0, -14).Truncate(24 * time.Hour)

	fmt.Println("→ Seeding purchases...")
	if err := seedPurchases(ctx, svcs.Stock, base); err != nil {
		log.Fatalf("seed purchases: %v", err)
	}

	fmt.Println("→ Seeding bills...")
	if err := seedBills(ctx, svcs.Billing, base); err != nil {
		log.Fatalf("seed bills: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedPurchases(ctx context.Context, svc *stock.Service, base time.Time) error {
	purchases := []stock.PurchaseInput{
		{
			Date:     base,
			Supplier: "Anand Textiles",
			Items: []stock.PurchaseItemInput{
				{Name: "Cotton Kurta", Code: "KUR01", Size: "M", Quantity: 20, Value: 450},
				{Name: "Cotton Kurta", Code: "KUR01", Size: "L", Quantity: 15, Value: 470},
				{Name: "Silk Dupatta", Code: "DUP02", Size: "Free", Quantity: 30, Value: 300},
			},
		},
		{
			Date:     base.AddDate(0, 0, 3),
			Supplier: "Mehta Garments",
			Items: []stock.PurchaseItemInput{
				{Name: "Denim Jeans", Code: "JNS05", Size: "32", Quantity: 12, Value: 900},
				{Name: "Cotton Kurta", Code: "KUR01", Size: "M", Quantity: 10, Value: 460},
			},
		},
	}
	for _, in := range purchases {
		if _, err := svc.RecordPurchase(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func seedBills(ctx context.Context, svc *billing.Service, base time.Time) error {
	sale, err := svc.Finalize(ctx, billing.Draft{
		CustomerName:  "Priya Sharma",
		MobileNumber:  "9820012345",
		Date:          base.AddDate(0, 0, 5),
		PaymentMethod: billing.PaymentCard,
		Items: []billing.LineItem{
			{ID: "seed-1", Code: "KUR01", Name: "Cotton Kurta", Size: "M", MRP: 1200, Quantity: 2, DiscountPercentage: 10},
			{ID: "seed-2", Code: "DUP02", Name: "Silk Dupatta", Size: "Free", MRP: 799, Quantity: 1},
		},
	}, false)
	if err != nil {
		return err
	}

	sel, err := svc.LinkReturn(ctx, sale.Bill.ID, []string{"seed-2"})
	if err != nil {
		return err
	}
	_, err = svc.Finalize(ctx, billing.Draft{
		CustomerName:    "Priya Sharma",
		MobileNumber:    "9820012345",
		Date:            base.AddDate(0, 0, 7),
		TransactionType: billing.TransactionReturn,
		OriginalBillID:  sale.Bill.ID,
		Items:           sel.Items,
	}, false)
	if err != nil {
		return err
	}

	_, err = svc.Finalize(ctx, billing.Draft{
		CustomerName:  "Rahul Verma",
		MobileNumber:  "9833098765",
		Date:          base.AddDate(0, 0, 8),
		CreditToApply: "0",
		Items: []billing.LineItem{
			{ID: "seed-3", Code: "JNS05", Name: "Denim Jeans", Size: "32", MRP: 1999, Quantity: 1, DiscountPercentage: 5},
		},
	}, false)
	return err
}

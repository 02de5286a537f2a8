package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/credits"
)

// Querier is satisfied by pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ExportBills reads every stored bill, oldest first.
func ExportBills(ctx context.Context, q Querier) ([]Bill, error) {
	rows, err := q.Query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY bill_date, length(id), id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bills := make([]Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

// ExportCredits reads the whole credit ledger.
func ExportCredits(ctx context.Context, q Querier) (credits.Credits, error) {
	rows, err := q.Query(ctx, `SELECT customer_key, balance FROM customer_credits`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(credits.Credits)
	for rows.Next() {
		var key string
		var balance float64
		if err := rows.Scan(&key, &balance); err != nil {
			return nil, err
		}
		out[key] = balance
	}
	return out, rows.Err()
}

// ImportBills bulk loads bills with COPY. The caller owns the transaction.
func ImportBills(ctx context.Context, tx pgx.Tx, bills []Bill) (int64, error) {
	rows := make([][]any, 0, len(bills))
	for _, b := range bills {
		items, err := json.Marshal(b.Items)
		if err != nil {
			return 0, fmt.Errorf("billing: encode items of %s: %w", b.ID, err)
		}
		var original *string
		if b.OriginalBillID != "" {
			original = &b.OriginalBillID
		}
		rows = append(rows, []any{
			b.ID, b.CustomerKey, b.CustomerName, items, b.Date, string(b.TransactionType),
			string(b.PaymentMethod), b.CreditApplied, b.CreditGenerated, original,
			b.CustomInvoiceNumber, b.ShowroomBrand, b.Address, b.GSTNumber,
		})
	}
	return tx.CopyFrom(ctx, pgx.Identifier{"bills"}, []string{
		"id", "customer_key", "customer_name", "items", "bill_date", "transaction_type",
		"payment_method", "credit_applied", "credit_generated", "original_bill_id",
		"custom_invoice_number", "showroom_brand", "address", "gst_number",
	}, pgx.CopyFromRows(rows))
}

// ImportCredits bulk loads the credit ledger with COPY.
func ImportCredits(ctx context.Context, tx pgx.Tx, ledger credits.Credits) (int64, error) {
	rows := make([][]any, 0, len(ledger))
	for key, balance := range ledger {
		rows = append(rows, []any{key, balance})
	}
	return tx.CopyFrom(ctx, pgx.Identifier{"customer_credits"}, []string{"customer_key", "balance"}, pgx.CopyFromRows(rows))
}

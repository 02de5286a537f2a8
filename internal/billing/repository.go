package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/credits"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Repository abstracts bill and credit storage for the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBill(ctx context.Context, id string) (Bill, error)
	ListBills(ctx context.Context, filter ListFilter) ([]Bill, error)
	Credits(ctx context.Context) (credits.Credits, error)
}

// TxRepository exposes the writes that must commit together.
type TxRepository interface {
	GetBillForUpdate(ctx context.Context, id string) (Bill, error)
	InsertBill(ctx context.Context, bill Bill) error
	ReplaceBill(ctx context.Context, bill Bill) error
	DeleteBill(ctx context.Context, id string) error
	CreditBalanceForUpdate(ctx context.Context, customerKey string) (float64, error)
	SetCreditBalance(ctx context.Context, customerKey string, balance float64) error
	DeleteCreditBalance(ctx context.Context, customerKey string) error
	ClaimIdempotencyKey(ctx context.Context, key string) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository persists bills and credits in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
	db   dbtx
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, db: pool}
}

type pgTx struct {
	tx pgx.Tx
}

// WithTx runs fn inside one repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

const billColumns = `id, customer_key, customer_name, items, bill_date, transaction_type, payment_method,
	credit_applied, credit_generated, COALESCE(original_bill_id, ''), custom_invoice_number,
	showroom_brand, address, gst_number`

func (r *PGRepository) GetBill(ctx context.Context, id string) (Bill, error) {
	return getBill(ctx, r.db, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
}

func (r *PGRepository) ListBills(ctx context.Context, filter ListFilter) ([]Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills
		WHERE ($1::timestamptz IS NULL OR bill_date >= $1)
		  AND ($2::timestamptz IS NULL OR bill_date <= $2)
		  AND ($3 = '' OR customer_key = $3)
		ORDER BY bill_date DESC, length(id) DESC, id DESC`
	rows, err := r.db.Query(ctx, query, nullableTime(filter.From), nullableTime(filter.To), filter.CustomerKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func (r *PGRepository) Credits(ctx context.Context) (credits.Credits, error) {
	return ExportCredits(ctx, r.db)
}

func (t *pgTx) GetBillForUpdate(ctx context.Context, id string) (Bill, error) {
	return getBill(ctx, t.tx, `SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, id)
}

func (t *pgTx) InsertBill(ctx context.Context, bill Bill) error {
	items, err := json.Marshal(bill.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO bills (id, customer_key, customer_name, items, bill_date, transaction_type,
		payment_method, credit_applied, credit_generated, original_bill_id, custom_invoice_number,
		showroom_brand, address, gst_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14)`,
		bill.ID, bill.CustomerKey, bill.CustomerName, items, bill.Date, string(bill.TransactionType),
		string(bill.PaymentMethod), bill.CreditApplied, bill.CreditGenerated, bill.OriginalBillID,
		bill.CustomInvoiceNumber, bill.ShowroomBrand, bill.Address, bill.GSTNumber)
	if shared.IsUniqueViolation(err) {
		return fmt.Errorf("billing: bill %s: %w", bill.ID, shared.ErrDuplicate)
	}
	return err
}

func (t *pgTx) ReplaceBill(ctx context.Context, bill Bill) error {
	items, err := json.Marshal(bill.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE bills SET customer_key = $2, customer_name = $3, items = $4, bill_date = $5,
		transaction_type = $6, payment_method = $7, credit_applied = $8, credit_generated = $9,
		original_bill_id = NULLIF($10, ''), custom_invoice_number = $11, showroom_brand = $12,
		address = $13, gst_number = $14, updated_at = NOW()
		WHERE id = $1`,
		bill.ID, bill.CustomerKey, bill.CustomerName, items, bill.Date, string(bill.TransactionType),
		string(bill.PaymentMethod), bill.CreditApplied, bill.CreditGenerated, bill.OriginalBillID,
		bill.CustomInvoiceNumber, bill.ShowroomBrand, bill.Address, bill.GSTNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteBill(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) CreditBalanceForUpdate(ctx context.Context, customerKey string) (float64, error) {
	var balance float64
	err := t.tx.QueryRow(ctx, `SELECT balance FROM customer_credits WHERE customer_key = $1 FOR UPDATE`, customerKey).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func (t *pgTx) SetCreditBalance(ctx context.Context, customerKey string, balance float64) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO customer_credits (customer_key, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (customer_key) DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()`,
		customerKey, balance)
	return err
}

func (t *pgTx) DeleteCreditBalance(ctx context.Context, customerKey string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM customer_credits WHERE customer_key = $1`, customerKey)
	return err
}

func (t *pgTx) ClaimIdempotencyKey(ctx context.Context, key string) error {
	err := shared.NewIdempotencyStore(t.tx).CheckAndInsert(ctx, key, "billing")
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		return ErrDuplicateSubmission
	}
	return err
}

func getBill(ctx context.Context, q dbtx, query, id string) (Bill, error) {
	bill, err := scanBill(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrNotFound
	}
	return bill, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (Bill, error) {
	var (
		bill    Bill
		items   []byte
		txType  string
		payment string
	)
	err := row.Scan(&bill.ID, &bill.CustomerKey, &bill.CustomerName, &items, &bill.Date, &txType, &payment,
		&bill.CreditApplied, &bill.CreditGenerated, &bill.OriginalBillID, &bill.CustomInvoiceNumber,
		&bill.ShowroomBrand, &bill.Address, &bill.GSTNumber)
	if err != nil {
		return Bill{}, err
	}
	if err := json.Unmarshal(items, &bill.Items); err != nil {
		return Bill{}, fmt.Errorf("billing: decode items of %s: %w", bill.ID, err)
	}
	bill.TransactionType = TransactionType(txType)
	bill.PaymentMethod = PaymentMethod(payment)
	return bill, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

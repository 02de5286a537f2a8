package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Repository stores purchases.
type Repository interface {
	InsertPurchase(ctx context.Context, p Purchase) error
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error)
}

// PGRepository persists purchases in PostgreSQL with items as JSONB.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) InsertPurchase(ctx context.Context, p Purchase) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("stock: encode items: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO purchases (id, purchase_date, supplier, items, created_at)
		VALUES ($1, $2, $3, $4, NOW())`, p.ID, p.Date, p.Supplier, items)
	if shared.IsUniqueViolation(err) {
		return fmt.Errorf("stock: purchase %s: %w", p.ID, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("stock: insert purchase: %w", err)
	}
	return nil
}

func (r *PGRepository) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error) {
	return listPurchases(ctx, r.pool, filter)
}

// Querier is satisfied by pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ExportPurchases reads every purchase through q, oldest first.
func ExportPurchases(ctx context.Context, q Querier) ([]Purchase, error) {
	return listPurchases(ctx, q, PurchaseFilter{})
}

func listPurchases(ctx context.Context, q Querier, filter PurchaseFilter) ([]Purchase, error) {
	rows, err := q.Query(ctx, `SELECT id, purchase_date, supplier, items FROM purchases
		WHERE ($1::timestamptz IS NULL OR purchase_date >= $1)
		  AND ($2::timestamptz IS NULL OR purchase_date <= $2)
		ORDER BY purchase_date, length(id), id`, nullableTime(filter.From), nullableTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Purchase, 0)
	for rows.Next() {
		var (
			p   Purchase
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.Date, &p.Supplier, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &p.Items); err != nil {
			return nil, fmt.Errorf("stock: decode items of %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ImportPurchases bulk loads purchases with COPY. The caller owns the
// transaction.
func ImportPurchases(ctx context.Context, tx pgx.Tx, purchases []Purchase) (int64, error) {
	rows := make([][]any, 0, len(purchases))
	for _, p := range purchases {
		items, err := json.Marshal(p.Items)
		if err != nil {
			return 0, fmt.Errorf("stock: encode items of %s: %w", p.ID, err)
		}
		rows = append(rows, []any{p.ID, p.Date, p.Supplier, items})
	}
	return tx.CopyFrom(ctx, pgx.Identifier{"purchases"}, []string{"id", "purchase_date", "supplier", "items"}, pgx.CopyFromRows(rows))
}

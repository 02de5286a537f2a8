package backup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/stock"
)

// PGRepository reads and replaces collections in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Export reads all three collections from one consistent snapshot.
func (r *PGRepository) Export(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := db.WithReadOnlyTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		if snap.Bills, err = billing.ExportBills(ctx, tx); err != nil {
			return fmt.Errorf("bills: %w", err)
		}
		if snap.Credits, err = billing.ExportCredits(ctx, tx); err != nil {
			return fmt.Errorf("credits: %w", err)
		}
		if snap.Purchases, err = stock.ExportPurchases(ctx, tx); err != nil {
			return fmt.Errorf("purchases: %w", err)
		}
		return nil
	})
	return snap, err
}

// Replace truncates and bulk loads every collection in one transaction.
func (r *PGRepository) Replace(ctx context.Context, snap Snapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE bills, customer_credits, purchases`); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		if _, err := billing.ImportBills(ctx, tx, snap.Bills); err != nil {
			return fmt.Errorf("bills: %w", err)
		}
		if _, err := billing.ImportCredits(ctx, tx, snap.Credits); err != nil {
			return fmt.Errorf("credits: %w", err)
		}
		if _, err := stock.ImportPurchases(ctx, tx, snap.Purchases); err != nil {
			return fmt.Errorf("purchases: %w", err)
		}
		return nil
	})
}

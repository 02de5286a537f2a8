// Package stock records purchases and reconciles closing stock against bill
// history.
package stock

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// PurchasedItem is one received line on a purchase.
type PurchasedItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	Value    float64 `json:"value"`
}

// Purchase is an append-only receipt of goods from a supplier.
type Purchase struct {
	ID       string          `json:"id"`
	Date     time.Time       `json:"date"`
	Supplier string          `json:"supplier,omitempty"`
	Items    []PurchasedItem `json:"items"`
}

// ClosingStockRow is the on-hand position of one code and size. It is
// derived on demand and never stored.
type ClosingStockRow struct {
	Code             string    `json:"code"`
	Size             string    `json:"size"`
	Name             string    `json:"name"`
	QuantityOnHand   int       `json:"quantityOnHand"`
	LastKnownMRP     float64   `json:"lastKnownMrp"`
	LastKnownCost    float64   `json:"lastKnownCost"`
	LastSupplier     string    `json:"lastSupplier,omitempty"`
	LastPurchaseDate time.Time `json:"lastPurchaseDate"`
	TotalValueAtCost float64   `json:"totalValueAtCost"`
}

// Report bundles closing stock rows with their totals.
type Report struct {
	Rows          []ClosingStockRow `json:"rows"`
	TotalQuantity int               `json:"totalQuantity"`
	TotalValue    float64           `json:"totalValue"`
	GeneratedAt   time.Time         `json:"generatedAt"`
}

// PurchaseInput is a purchase submitted for recording.
type PurchaseInput struct {
	Date     time.Time           `json:"date"`
	Supplier string              `json:"supplier" validate:"max=200"`
	Items    []PurchaseItemInput `json:"items" validate:"required,min=1,dive"`
}

// PurchaseItemInput is one line of a PurchaseInput.
type PurchaseItemInput struct {
	ID       string  `json:"id"`
	Name     string  `json:"name" validate:"required,max=200"`
	Code     string  `json:"code" validate:"required,max=64"`
	Size     string  `json:"size" validate:"required,max=32"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Value    float64 `json:"value" validate:"gte=0"`
}

// PurchaseFilter narrows purchase listings. Zero values disable a bound.
type PurchaseFilter struct {
	From time.Time
	To   time.Time
}

// Match reports whether p falls inside the filter.
func (f PurchaseFilter) Match(p Purchase) bool {
	if !f.From.IsZero() && p.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && p.Date.After(f.To) {
		return false
	}
	return true
}

// ErrPurchaseNotFound indicates the purchase does not exist.
var ErrPurchaseNotFound = fmt.Errorf("stock: purchase %w", shared.ErrNotFound)

package billing

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// TransactionType enumerates the kinds of bill.
type TransactionType string

const (
	// TransactionSale is a plain sale.
	TransactionSale TransactionType = "Sale"
	// TransactionExchange mixes returned and newly sold lines.
	TransactionExchange TransactionType = "Exchange"
	// TransactionReturn only gives goods back.
	TransactionReturn TransactionType = "Return"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionSale, TransactionExchange, TransactionReturn:
		return true
	}
	return false
}

// CarriesReturns reports whether bills of this type must hold negative lines.
func (t TransactionType) CarriesReturns() bool {
	return t == TransactionExchange || t == TransactionReturn
}

// PaymentMethod enumerates how the payable was settled.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// State tracks a bill through finalization.
type State string

const (
	StateDraft      State = "DRAFT"
	StateValidating State = "VALIDATING"
	StateComputing  State = "COMPUTING"
	StatePersisting State = "PERSISTING"
	StateFinalized  State = "FINALIZED"
	StateFailed     State = "FAILED"
)

// LineItem is one line on a bill. Quantity is negative for returned goods.
type LineItem struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code,omitempty"`
	Name               string  `json:"name"`
	Size               string  `json:"size"`
	MRP                float64 `json:"mrp"`
	Quantity           int     `json:"quantity"`
	DiscountPercentage float64 `json:"discountPercentage"`
	NetValue           float64 `json:"netValue"`
	// OriginBillID is set on lines cloned from an earlier bill for a return.
	OriginBillID string `json:"originBillId,omitempty"`
}

// IsReturn reports whether the line gives goods back.
func (li LineItem) IsReturn() bool {
	return li.Quantity < 0
}

// Bill is a finalized sale, return or exchange.
type Bill struct {
	ID                  string          `json:"id"`
	CustomerKey         string          `json:"customerKey"`
	CustomerName        string          `json:"customerName"`
	Items               []LineItem      `json:"items"`
	Date                time.Time       `json:"date"`
	TransactionType     TransactionType `json:"transactionType"`
	PaymentMethod       PaymentMethod   `json:"paymentMethod"`
	CreditApplied       float64         `json:"creditApplied"`
	CreditGenerated     float64         `json:"creditGenerated"`
	OriginalBillID      string          `json:"originalBillId,omitempty"`
	CustomInvoiceNumber string          `json:"customInvoiceNumber,omitempty"`
	ShowroomBrand       string          `json:"showroomBrand,omitempty"`
	Address             string          `json:"address,omitempty"`
	GSTNumber           string          `json:"gstNumber,omitempty"`
}

// Total is the signed sum of line totals.
func (b Bill) Total() float64 {
	return BillTotal(b.Items)
}

// FinalPayable is the total after credit; negative when credit was generated.
func (b Bill) FinalPayable() float64 {
	return b.Total() - b.CreditApplied
}

// InvoiceNumber is the number printed on the bill.
func (b Bill) InvoiceNumber() string {
	if b.CustomInvoiceNumber != "" {
		return b.CustomInvoiceNumber
	}
	return b.ID
}

// Summary derives the printed totals of the bill.
func (b Bill) Summary() Summary {
	total := b.Total()
	payable := total - b.CreditApplied
	amount := payable
	if amount < 0 {
		amount = 0
	}
	return Summary{
		GrandTotal:      total,
		CreditApplied:   b.CreditApplied,
		CreditGenerated: b.CreditGenerated,
		FinalPayable:    payable,
		AmountPayable:   amount,
		Tax:             SplitTax(total),
	}
}

// Summary holds the computed totals shown on a printed bill.
type Summary struct {
	GrandTotal      float64  `json:"grandTotal"`
	CreditApplied   float64  `json:"creditApplied"`
	CreditGenerated float64  `json:"creditGenerated"`
	FinalPayable    float64  `json:"finalPayable"`
	AmountPayable   float64  `json:"amountPayable"`
	Tax             TaxSplit `json:"tax"`
}

// Draft is an editable bill submitted for finalization.
type Draft struct {
	ID                  string
	CustomerName        string
	MobileNumber        string
	Items               []LineItem
	Date                time.Time
	TransactionType     TransactionType
	PaymentMethod       PaymentMethod
	CreditToApply       string
	OriginalBillID      string
	CustomInvoiceNumber string
	ShowroomBrand       string
	Address             string
	GSTNumber           string
	IdempotencyKey      string
}

// ListFilter narrows bill listings. Zero values disable a bound.
type ListFilter struct {
	From        time.Time
	To          time.Time
	CustomerKey string
}

// Match reports whether b falls inside the filter.
func (f ListFilter) Match(b Bill) bool {
	if !f.From.IsZero() && b.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && b.Date.After(f.To) {
		return false
	}
	if f.CustomerKey != "" && b.CustomerKey != f.CustomerKey {
		return false
	}
	return true
}

// FinalizeResult is returned from a successful finalize.
type FinalizeResult struct {
	Bill            Bill    `json:"bill"`
	Summary         Summary `json:"summary"`
	PreviousBalance float64 `json:"previousBalance"`
	NewBalance      float64 `json:"newBalance"`
	State           State   `json:"state"`
}

// DeleteResult is returned from a successful delete.
type DeleteResult struct {
	Bill       Bill    `json:"bill"`
	NewBalance float64 `json:"newBalance"`
	Pruned     bool    `json:"pruned"`
}

var (
	// ErrNotFound indicates the bill does not exist.
	ErrNotFound = fmt.Errorf("billing: bill %w", shared.ErrNotFound)
	// ErrDuplicateSubmission rejects a create replayed with the same key.
	ErrDuplicateSubmission = fmt.Errorf("billing: submission already processed: %w", shared.ErrDuplicate)
	// ErrMissingID rejects an update without a bill id.
	ErrMissingID = shared.NewValidationError("id", "Bill id is required for an update.")
)

// Package reports derives item-wise, bill-wise, period and customer credit
// reports from bill history.
package reports

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Grouping selects the period of a summary report.
type Grouping string

const (
	GroupDay   Grouping = "day"
	GroupWeek  Grouping = "week"
	GroupMonth Grouping = "month"
)

// ParseGrouping validates a grouping name. Empty means day.
func ParseGrouping(v string) (Grouping, error) {
	switch g := Grouping(v); g {
	case "":
		return GroupDay, nil
	case GroupDay, GroupWeek, GroupMonth:
		return g, nil
	}
	return "", shared.NewValidationError("groupBy", fmt.Sprintf("Unknown grouping %q; use day, week or month.", v))
}

// Filter narrows the bills feeding a report.
type Filter struct {
	From  time.Time
	To    time.Time
	Query string
}

// ItemRow is one bill line with its tax split.
type ItemRow struct {
	Date               time.Time `json:"date"`
	BillNo             string    `json:"billNo"`
	BillID             string    `json:"billId"`
	Customer           string    `json:"customer"`
	ItemDetails        string    `json:"itemDetails"`
	Quantity           int       `json:"quantity"`
	MRP                float64   `json:"mrp"`
	DiscountPercentage float64   `json:"discountPercentage"`
	NetValue           float64   `json:"netValue"`
	PreTax             float64   `json:"preTax"`
	CGST               float64   `json:"cgst"`
	SGST               float64   `json:"sgst"`
}

// ItemTotals sums an item report.
type ItemTotals struct {
	Quantity int     `json:"quantity"`
	MRP      float64 `json:"mrp"`
	NetValue float64 `json:"netValue"`
	PreTax   float64 `json:"preTax"`
	CGST     float64 `json:"cgst"`
	SGST     float64 `json:"sgst"`
	Display  string  `json:"display"`
}

// ItemReport is the item-wise sales report.
type ItemReport struct {
	Rows   []ItemRow  `json:"rows"`
	Totals ItemTotals `json:"totals"`
}

// BillRow is one bill with its payable split by payment method.
type BillRow struct {
	Date            time.Time `json:"date"`
	BillNo          string    `json:"billNo"`
	BillID          string    `json:"billId"`
	Customer        string    `json:"customer"`
	TransactionType string    `json:"transactionType"`
	CardPayment     float64   `json:"cardPayment"`
	CashPayment     float64   `json:"cashPayment"`
	CreditApplied   float64   `json:"creditApplied"`
	CreditGenerated float64   `json:"creditGenerated"`
	TotalAmount     float64   `json:"totalAmount"`
}

// BillTotals sums a bill report.
type BillTotals struct {
	Bills       int     `json:"bills"`
	CardPayment float64 `json:"cardPayment"`
	CashPayment float64 `json:"cashPayment"`
	TotalAmount float64 `json:"totalAmount"`
	Display     string  `json:"display"`
}

// BillReport is the bill-wise sales report.
type BillReport struct {
	Rows   []BillRow  `json:"rows"`
	Totals BillTotals `json:"totals"`
}

// SummaryRow aggregates the bills of one period.
type SummaryRow struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Bills     int       `json:"bills"`
	Total     float64   `json:"total"`
	Display   string    `json:"display"`
}

// SummaryReport is the period sales summary, newest period first.
type SummaryReport struct {
	GroupBy Grouping     `json:"groupBy"`
	Rows    []SummaryRow `json:"rows"`
}

// CreditRow is one customer's outstanding store credit.
type CreditRow struct {
	CustomerName string  `json:"customerName"`
	MobileNumber string  `json:"mobileNumber"`
	Credit       float64 `json:"credit"`
	Display      string  `json:"display"`
	// LastBillNo is the newest bill that used or produced credit.
	LastBillNo string `json:"lastBillNo"`
}

// CreditReport lists customer credits, largest first.
type CreditReport struct {
	Rows  []CreditRow `json:"rows"`
	Total float64     `json:"total"`
}

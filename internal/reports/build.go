package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/credits"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/ids"
)

const notAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with English thousands grouping and two
// decimals.
func FormatAmount(v float64) string {
	return printer.Sprintf("%.2f", billing.Round2(v))
}

func customerLabel(b billing.Bill) string {
	return fmt.Sprintf("%s (%s)", b.CustomerName, b.CustomerKey)
}

func matches(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// BuildItemReport flattens bill lines, sorted by bill number.
func BuildItemReport(bills []billing.Bill, query string) ItemReport {
	rows := make([]ItemRow, 0)
	var totals ItemTotals
	for _, b := range bills {
		for _, item := range b.Items {
			code := item.Code
			if code == "" {
				code = notAvailable
			}
			row := ItemRow{
				Date:               b.Date,
				BillNo:             b.InvoiceNumber(),
				BillID:             b.ID,
				Customer:           customerLabel(b),
				ItemDetails:        fmt.Sprintf("%s (%s / %s)", item.Name, code, item.Size),
				Quantity:           item.Quantity,
				DiscountPercentage: item.DiscountPercentage,
			}
			if !matches(query, row.BillNo, row.Customer, row.ItemDetails) {
				continue
			}
			net := billing.LineTotal(item)
			mrp := item.MRP * float64(item.Quantity)
			tax := billing.SplitTax(net)

			totals.Quantity += item.Quantity
			totals.MRP += mrp
			totals.NetValue += net
			totals.PreTax += tax.PreTax
			totals.CGST += tax.CGST
			totals.SGST += tax.SGST

			tax = tax.Rounded()
			row.MRP = billing.Round2(mrp)
			row.NetValue = billing.Round2(net)
			row.PreTax, row.CGST, row.SGST = tax.PreTax, tax.CGST, tax.SGST
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return ids.Compare(rows[i].BillNo, rows[j].BillNo) < 0 })
	totals.Display = FormatAmount(totals.NetValue)
	totals.MRP = billing.Round2(totals.MRP)
	totals.NetValue = billing.Round2(totals.NetValue)
	totals.PreTax = billing.Round2(totals.PreTax)
	totals.CGST = billing.Round2(totals.CGST)
	totals.SGST = billing.Round2(totals.SGST)
	return ItemReport{Rows: rows, Totals: totals}
}

// BuildBillReport lists one row per bill, sorted by bill number. The payable
// after credit is attributed to the bill's payment method and never goes
// below zero.
func BuildBillReport(bills []billing.Bill, query string) BillReport {
	rows := make([]BillRow, 0, len(bills))
	var totals BillTotals
	for _, b := range bills {
		row := BillRow{
			Date:            b.Date,
			BillNo:          b.InvoiceNumber(),
			BillID:          b.ID,
			Customer:        customerLabel(b),
			TransactionType: string(b.TransactionType),
			CreditApplied:   b.CreditApplied,
			CreditGenerated: b.CreditGenerated,
		}
		if !matches(query, row.BillNo, row.Customer) {
			continue
		}
		summary := b.Summary()
		switch b.PaymentMethod {
		case billing.PaymentCard:
			row.CardPayment = summary.AmountPayable
		case billing.PaymentCash:
			row.CashPayment = summary.AmountPayable
		}
		row.TotalAmount = summary.GrandTotal

		totals.Bills++
		totals.CardPayment += row.CardPayment
		totals.CashPayment += row.CashPayment
		totals.TotalAmount += row.TotalAmount

		row.CardPayment = billing.Round2(row.CardPayment)
		row.CashPayment = billing.Round2(row.CashPayment)
		row.TotalAmount = billing.Round2(row.TotalAmount)
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return ids.Compare(rows[i].BillNo, rows[j].BillNo) < 0 })
	totals.Display = FormatAmount(totals.TotalAmount)
	totals.CardPayment = billing.Round2(totals.CardPayment)
	totals.CashPayment = billing.Round2(totals.CashPayment)
	totals.TotalAmount = billing.Round2(totals.TotalAmount)
	return BillReport{Rows: rows, Totals: totals}
}

// periodBounds returns the first and last day of the period holding t.
// Weeks start on Sunday.
func periodBounds(t time.Time, g Grouping) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch g {
	case GroupWeek:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 6)
	case GroupMonth:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return start, start.AddDate(0, 1, -1)
	}
	return day, day
}

// BuildSummary groups bill totals by period in loc, newest period first.
func BuildSummary(bills []billing.Bill, g Grouping, loc *time.Location) SummaryReport {
	if loc == nil {
		loc = time.UTC
	}
	byStart := make(map[time.Time]*SummaryRow)
	for _, b := range bills {
		start, end := periodBounds(b.Date.In(loc), g)
		row, ok := byStart[start]
		if !ok {
			row = &SummaryRow{StartDate: start, EndDate: end}
			byStart[start] = row
		}
		row.Bills++
		row.Total += b.Total()
	}
	rows := make([]SummaryRow, 0, len(byStart))
	for _, row := range byStart {
		row.Display = FormatAmount(row.Total)
		row.Total = billing.Round2(row.Total)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartDate.After(rows[j].StartDate) })
	return SummaryReport{GroupBy: g, Rows: rows}
}

// BuildCreditReport joins the ledger with the customer name and the newest
// bill that used or produced credit.
func BuildCreditReport(ledger credits.Credits, bills []billing.Bill, query string) CreditReport {
	type lastSeen struct {
		name string
		bill *billing.Bill
	}
	seen := make(map[string]*lastSeen)
	for i := range bills {
		b := &bills[i]
		entry, ok := seen[b.CustomerKey]
		if !ok {
			entry = &lastSeen{name: b.CustomerName}
			seen[b.CustomerKey] = entry
		}
		if b.CreditApplied <= 0 && b.CreditGenerated <= 0 {
			continue
		}
		if entry.bill == nil || b.Date.After(entry.bill.Date) {
			entry.bill = b
		}
	}

	report := CreditReport{Rows: make([]CreditRow, 0, len(ledger))}
	for mobile, balance := range ledger {
		row := CreditRow{
			CustomerName: notAvailable,
			MobileNumber: mobile,
			Credit:       billing.Round2(balance),
			Display:      FormatAmount(balance),
			LastBillNo:   notAvailable,
		}
		if entry, ok := seen[mobile]; ok {
			row.CustomerName = entry.name
			if entry.bill != nil {
				row.LastBillNo = entry.bill.InvoiceNumber()
			}
		}
		if !matches(query, row.CustomerName, row.MobileNumber, row.LastBillNo) {
			continue
		}
		report.Total += balance
		report.Rows = append(report.Rows, row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Credit != report.Rows[j].Credit {
			return report.Rows[i].Credit > report.Rows[j].Credit
		}
		return report.Rows[i].MobileNumber < report.Rows[j].MobileNumber
	})
	report.Total = billing.Round2(report.Total)
	return report
}

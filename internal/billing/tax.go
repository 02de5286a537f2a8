package billing

import "github.com/shopspring/decimal"

// TaxRate is the combined GST rate embedded in every price.
const TaxRate = 0.05

// TaxSplit breaks a tax-inclusive amount into its components.
type TaxSplit struct {
	PreTax float64 `json:"preTax"`
	CGST   float64 `json:"cgst"`
	SGST   float64 `json:"sgst"`
}

// SplitTax derives the pre-tax value and two equal tax halves from a
// tax-inclusive total. Negative totals produce negative components.
func SplitTax(grandTotal float64) TaxSplit {
	preTax := grandTotal / (1 + TaxRate)
	half := (grandTotal - preTax) / 2
	return TaxSplit{PreTax: preTax, CGST: half, SGST: half}
}

// Total sums the components back.
func (t TaxSplit) Total() float64 {
	return t.PreTax + t.CGST + t.SGST
}

// Rounded returns the split rounded to two decimals for display.
func (t TaxSplit) Rounded() TaxSplit {
	return TaxSplit{PreTax: Round2(t.PreTax), CGST: Round2(t.CGST), SGST: Round2(t.SGST)}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

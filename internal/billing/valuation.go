package billing

import (
	"math"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Valuate returns the unit price after discount.
func Valuate(mrp, discountPercentage float64) (float64, error) {
	verr := &shared.ValidationError{}
	if math.IsNaN(mrp) || mrp <= 0 {
		verr.Add("mrp", "MRP must be a positive number.")
	}
	if math.IsNaN(discountPercentage) || discountPercentage < 0 || discountPercentage > 100 {
		verr.Add("discountPercentage", "Discount must be between 0 and 100.")
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}
	return mrp * (1 - discountPercentage/100), nil
}

// LineTotal is the signed value of a line; returns come out negative.
func LineTotal(item LineItem) float64 {
	return item.NetValue * float64(item.Quantity)
}

// BillTotal sums every line total.
func BillTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += LineTotal(item)
	}
	return total
}

// Reprice updates MRP and discount and recomputes the net value.
func (li *LineItem) Reprice(mrp, discountPercentage float64) error {
	net, err := Valuate(mrp, discountPercentage)
	if err != nil {
		return err
	}
	li.MRP = mrp
	li.DiscountPercentage = discountPercentage
	li.NetValue = net
	return nil
}

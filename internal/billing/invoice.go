package billing

import (
	"fmt"
	"regexp"
	"strconv"
)

var trailingDigits = regexp.MustCompile(`^(.*?)(\d+)$`)

// NextInvoiceNumber increments the trailing number of a custom invoice
// number, keeping its zero padding. Numbers without trailing digits are
// returned unchanged.
func NextInvoiceNumber(last string) string {
	if last == "" {
		return "1"
	}
	m := trailingDigits.FindStringSubmatch(last)
	if m == nil {
		return last
	}
	n, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return last
	}
	return fmt.Sprintf("%s%0*d", m[1], len(m[2]), n+1)
}

package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestValuate(t *testing.T) {
	net, err := Valuate(1000, 10)
	require.NoError(t, err)
	require.InDelta(t, 900, net, 1e-9)

	net, err = Valuate(250, 100)
	require.NoError(t, err)
	require.Zero(t, net)

	item := LineItem{Quantity: 2}
	require.NoError(t, item.Reprice(1000, 10))
	require.InDelta(t, 1800, LineTotal(item), 1e-9)
}

func TestValuateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		mrp   float64
		disc  float64
		field string
	}{
		{"zero mrp", 0, 0, "mrp"},
		{"negative mrp", -5, 0, "mrp"},
		{"nan mrp", math.NaN(), 0, "mrp"},
		{"negative discount", 100, -1, "discountPercentage"},
		{"discount over 100", 100, 100.5, "discountPercentage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Valuate(tc.mrp, tc.disc)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
		})
	}
}

func TestBillTotalIsSigned(t *testing.T) {
	items := []LineItem{
		{NetValue: 900, Quantity: 2},
		{NetValue: 500, Quantity: -1},
	}
	require.InDelta(t, 1300, BillTotal(items), 1e-9)
	require.Zero(t, BillTotal(nil))
}

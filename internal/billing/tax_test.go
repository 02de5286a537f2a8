package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitTax(t *testing.T) {
	split := SplitTax(1050)
	require.InDelta(t, 1000, split.PreTax, 1e-9)
	require.InDelta(t, 25, split.CGST, 1e-9)
	require.InDelta(t, 25, split.SGST, 1e-9)
	require.InDelta(t, 1050, split.Total(), 1e-9)
}

func TestSplitTaxNegativeTotal(t *testing.T) {
	split := SplitTax(-210)
	require.InDelta(t, -200, split.PreTax, 1e-9)
	require.InDelta(t, -5, split.CGST, 1e-9)
	require.Equal(t, split.CGST, split.SGST)
}

func TestSplitTaxRounded(t *testing.T) {
	split := SplitTax(1800).Rounded()
	require.Equal(t, 1714.29, split.PreTax)
	require.Equal(t, 42.86, split.CGST)
	require.Equal(t, 42.86, split.SGST)
	require.Equal(t, 0.01, Round2(0.005))
	require.Equal(t, -0.01, Round2(-0.005))
}

func TestSplitTaxComponentsSumToTotal(t *testing.T) {
	cases := []struct {
		name  string
		total float64
	}{
		{"zero", 0},
		{"whole", 1800},
		{"fractional", 1234.56},
		{"return", -857.14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := SplitTax(tc.total)
			require.InDelta(t, tc.total, split.Total(), 1e-9)
			require.Equal(t, split.CGST, split.SGST)
		})
	}

	require.Equal(t, TaxSplit{}, SplitTax(0))
	require.Equal(t, TaxSplit{}, SplitTax(0).Rounded())
}

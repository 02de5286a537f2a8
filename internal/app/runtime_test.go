package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefreshTestMode(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{" TRUE ", true},
		{"0", false},
		{"false", false},
		{"yes", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Setenv(testModeEnv, tc.value)
		RefreshTestMode()
		require.Equal(t, tc.want, InTestMode(), "value %q", tc.value)
	}
}

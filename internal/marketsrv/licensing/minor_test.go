package licensing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100},
		{"2.5", 250},
		{"19.99", 1999},
		{"0.01", 1},
		{"0.005", 1},
		{"0.004", 0},
		{"0.0049", 0},
		{"0.125", 13},
		{"0.124", 12},
		{"10.999", 1100},
		{".5", 50},
		{"3.", 300},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := MinorUnits(tt.in)
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorUnitsDeterministic(t *testing.T) {
	a, err := MinorUnits("0.125")
	require.Nil(t, err)
	b, err := MinorUnits("0.125")
	require.Nil(t, err)
	assert.Equal(t, a, b)
}

func TestMinorUnitsRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", ".", "abc", "1.2.3", "1,50", "-1", "1e3"} {
		t.Run(in, func(t *testing.T) {
			_, err := MinorUnits(in)
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestMinorUnitsRejectsOverflowingInput(t *testing.T) {
	// The first two parse as int64 but would overflow once scaled to
	// minor units; the last does not even fit in int64.
	for _, in := range []string{"92233720368547758.08", "9223372036854775807", "9999999999999999999"} {
		t.Run(in, func(t *testing.T) {
			_, err := MinorUnits(in)
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

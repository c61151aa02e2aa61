package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		percent float64
		want    string
	}{
		{"integer up", "100", 10, "110"},
		{"integer floors", "99", 10, "108"},
		{"integer to zero", "10", -99, "0"},
		{"integer one at minimum", "1", -99, "0"},
		{"integer exact product", "100", 15, "115"},
		{"integer max percent", "7", 500, "42"},
		{"decimal keeps one digit", "10.00", 10, "11.0"},
		{"decimal halves", "10.5", -50, "5.25"},
		{"decimal bread", "2.50", 10, "2.75"},
		{"decimal trims zeros", "1.00", 10, "1.1"},
		{"decimal rounds to cents", "1.99", 33, "2.65"},
		{"decimal fractional percent", "8.00", 12.5, "9.0"},
		{"decimal at minimum", "0.50", -99, "0.0"},
		{"zero percent integer", "42", 0, "42"},
		{"zero percent decimal", "10.00", 0, "10.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adjust(tt.price, tt.percent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjustSentinel(t *testing.T) {
	for _, p := range []float64{-99, -50, -1, 0, 5, 100, 500, -100, 1000} {
		got, err := Adjust(Sentinel, p)
		require.NoError(t, err)
		assert.Equal(t, "-1", got)
	}
}

// Ties round half to even on the exact decimal value.
func TestAdjustTieBreak(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"12.345", "12.34"},
		{"12.355", "12.36"},
		{"2.675", "2.68"},
		{"2.665", "2.66"},
		{"0.005", "0.0"},
		{"0.015", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got, err := Adjust(tt.price, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// 1.25 * 1.1 = 1.375 -> 1.38, 1.35 * 1.1 = 1.485 -> 1.48
	got, err := Adjust("1.25", 10)
	require.NoError(t, err)
	assert.Equal(t, "1.38", got)

	got, err = Adjust("1.35", 10)
	require.NoError(t, err)
	assert.Equal(t, "1.48", got)
}

func TestAdjustNeverNegativeInRange(t *testing.T) {
	for _, price := range []string{"1", "2", "99", "1000", "0.01", "1.00", "0"} {
		got, err := Adjust(price, MinPercent)
		require.NoError(t, err)
		p, err := Parse(got)
		require.NoError(t, err)
		assert.False(t, p.Amount().IsNegative(), "%s -> %s", price, got)
	}
}

func TestAdjustFloorIsMathematical(t *testing.T) {
	// Outside the bulk range the transform still computes; floor goes down.
	got, err := Adjust("10", -105)
	require.NoError(t, err)
	assert.Equal(t, "-1", got)

	got, err = Adjust("3", -150)
	require.NoError(t, err)
	assert.Equal(t, "-2", got)
}

func TestAdjustInvalid(t *testing.T) {
	for _, price := range []string{"", "abc", "1.2.3", "12a", "nan"} {
		t.Run(price, func(t *testing.T) {
			got, err := Adjust(price, 10)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPrice))
			assert.Equal(t, price, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"-1", Unlimited},
		{"-1.0", Decimal},
		{"-2", Integer},
		{"15", Integer},
		{"0.75", Decimal},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.kind, p.Kind(), tt.in)
	}
}

func TestCompounding(t *testing.T) {
	price := "100"
	for i := 0; i < 2; i++ {
		var err error
		price, err = Adjust(price, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, "121", price)
}

func TestCheckPercent(t *testing.T) {
	for _, p := range []float64{MinPercent, 0, 5, MaxPercent} {
		assert.NoError(t, CheckPercent(p))
	}
	for _, p := range []float64{-100, -99.5, 500.1, 1000} {
		err := CheckPercent(p)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPercentOutOfRange)
	}
}

package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    decimal.Decimal
		expected Cents
	}{
		{
			name:     "two decimal places",
			input:    decimal.NewFromFloat(899.99),
			expected: 89999,
		},
		{
			name:     "whole amount",
			input:    decimal.NewFromInt(150),
			expected: 15000,
		},
		{
			name:     "single decimal place",
			input:    decimal.NewFromFloat(0.5),
			expected: 50,
		},
		{
			name:     "zero",
			input:    decimal.Zero,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, err := FromDecimal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cents)
		})
	}
}

func TestFromDecimal_SubCentRejected(t *testing.T) {
	input, err := decimal.NewFromString("125.001")
	require.NoError(t, err)

	_, err = FromDecimal(input)
	assert.Error(t, err)
}

func TestDecimalRoundTrip(t *testing.T) {
	original, err := decimal.NewFromString("1299.99")
	require.NoError(t, err)

	cents, err := FromDecimal(original)
	require.NoError(t, err)
	assert.True(t, cents.Decimal().Equal(original))
	assert.Equal(t, "1299.99", cents.String())
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "150.00", Cents(15000).String())
	assert.Equal(t, "-12.50", Cents(-1250).String())
}

package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		expected string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 6, "1500000"},
		{"0.000001", 6, "1"},
		{"42", 0, "42"},
		{"0", 18, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amount, err := ParseAmount(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount.String())
		})
	}
}

func TestParseAmountRejects(t *testing.T) {
	_, err := ParseAmount("-1", 18)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseAmount("0.0000001", 6)
	assert.ErrorIs(t, err, ErrTooPrecise)

	_, err = ParseAmount("one", 6)
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatAmount(big.NewInt(1_500_000), 6))
	assert.Equal(t, "987", FormatAmount(big.NewInt(987), 0))
	assert.Equal(t, "0.000000000000000001", FormatAmount(big.NewInt(1), 18))
	assert.Equal(t, "0", FormatAmount(nil, 18))
}

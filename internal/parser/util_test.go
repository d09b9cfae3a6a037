package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"25.99", "25.99", false},
		{"1,234.56", "1234.56", false},
		{"₹1,234.56", "1234.56", false},
		{"Rs. 12,00,000.00", "1200000", false},
		{"-25.99", "-25.99", false},
		{"0.00", "0", false},
		{"", "0", false},
		{"-", "0", false},
		{" 25.99 ", "25.99", false},
		{"1,234.\n56", "1234.56", false},
		{"N/A", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assertAmount(t, tt.expected, got)
		})
	}
}

func TestAmountOrZero(t *testing.T) {
	assert.True(t, amountOrZero("garbage").IsZero())
	assertAmount(t, "10.50", amountOrZero("10.50"))
}

func TestParseBalance(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"1,234.56 Cr", "1234.56", false},
		{"1,234.56 Dr", "-1234.56", false},
		{"500.00", "500", false},
		{"Dr", "", true},
		{"abc Cr", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBalance(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assertAmount(t, tt.expected, got)
		})
	}
}

func TestCellAt(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", cellAt(row, 1))
	assert.Equal(t, "", cellAt(row, 2))
	assert.Equal(t, "", cellAt(row, -1))
}

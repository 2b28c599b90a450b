package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single ticker",
			input:    "SPY",
			expected: []string{"SPY"},
		},
		{
			name:     "two tickers",
			input:    "SPY, QQQ",
			expected: []string{"SPY", "QQQ"},
		},
		{
			name:     "varied spacing",
			input:    "SPY,  GLD , TLT",
			expected: []string{"SPY", "GLD", "TLT"},
		},
		{
			name:     "no spaces after comma",
			input:    "XLE,XLF",
			expected: []string{"XLE", "XLF"},
		},
		{
			name:     "trailing comma",
			input:    "VNQ,",
			expected: []string{"VNQ"},
		},
		{
			name:     "leading comma",
			input:    ",EEM",
			expected: []string{"EEM"},
		},
		{
			name:     "only spaces",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "comma only",
			input:    ",",
			expected: nil,
		},
		{
			name:     "multiple commas",
			input:    ",,IWM,,DIA,,",
			expected: []string{"IWM", "DIA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCSV(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseCSV_PreservesInput(t *testing.T) {
	input := "SPY, QQQ"
	originalInput := input

	_ = ParseCSV(input)

	assert.Equal(t, originalInput, input, "input should not be modified")
}

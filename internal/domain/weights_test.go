package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightVector_Valid(t *testing.T) {
	w := WeightVector{"SPY": 0.6, "QQQ": 0.4}
	assert.True(t, w.Valid())

	negative := WeightVector{"SPY": 1.2, "QQQ": -0.2}
	assert.False(t, negative.Valid())

	short := WeightVector{"SPY": 0.5, "QQQ": 0.4}
	assert.False(t, short.Valid())
}

func TestWeightVector_Tickers_Sorted(t *testing.T) {
	w := WeightVector{"XLK": 0.3, "GLD": 0.5, "QQQ": 0.2}
	assert.Equal(t, []string{"GLD", "QQQ", "XLK"}, w.Tickers())
}

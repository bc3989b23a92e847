package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 50.0, Percent(1, 2))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 0.0, Percent(0, 0), "zero denominator must yield 0, not NaN")
	assert.Equal(t, 0.0, Percent(5, 0))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.23, RoundFloat(1.234, 2))
	assert.Equal(t, 1.24, RoundFloat(1.236, 2))
	assert.Equal(t, -2.5, RoundFloat(-2.499, 1))
}

func TestMinInt(t *testing.T) {
	assert.Equal(t, 1, MinInt(1, 2))
	assert.Equal(t, 1, MinInt(2, 1))
	assert.Equal(t, -3, MinInt(-3, 0))
}

package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		x, lo, hi float64
		want      float64
	}{
		{name: "Inside range", x: 5, lo: 0, hi: 10, want: 5},
		{name: "Below range", x: -3, lo: 0, hi: 10, want: 0},
		{name: "Above range", x: 42, lo: 0, hi: 10, want: 10},
		{name: "At lower bound", x: 0, lo: 0, hi: 10, want: 0},
		{name: "At upper bound", x: 10, lo: 0, hi: 10, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.x, tt.lo, tt.hi))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 123.46, Round2(123.456))
	assert.Equal(t, 123.45, Round2(123.454))
	assert.Equal(t, 0.0, Round2(0))
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.1235, Round4(0.12349))
	assert.Equal(t, 1.0, Round4(1.00001))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.True(t, IsFinite(-12.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "Single value", values: []float64{7}, want: 7},
		{name: "Odd count", values: []float64{3200, 18, 1100}, want: 1100},
		{name: "Does not mutate input order dependence", values: []float64{5, 1, 9}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.values))
		})
	}
}

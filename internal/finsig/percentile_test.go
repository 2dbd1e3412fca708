package finsig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileRank(t *testing.T) {
	tests := []struct {
		name         string
		value        float64
		distribution []float64
		want         float64
	}{
		{"minimum gets 0", 1, []float64{1, 2, 3, 4, 5}, 0},
		{"maximum gets 100", 5, []float64{1, 2, 3, 4, 5}, 100},
		{"median", 3, []float64{1, 2, 3, 4, 5}, 50},
		{"single value distribution", 7, []float64{7}, 50},
		{"tied values share the midrank", 2, []float64{1, 2, 2, 3}, 50},
		{"negative changes rank normally", -10, []float64{-10, -5, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentileRank(tt.value, tt.distribution)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPercentileRank_Bounds(t *testing.T) {
	distribution := []float64{-8.2, -1.5, 0, 0.4, 3.3, 12.9}
	for _, v := range distribution {
		got := percentileRank(v, distribution)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

func TestZScore(t *testing.T) {
	// flat series has no information
	assert.Equal(t, 0.0, zScore([]float64{3, 3, 3, 3}))
	assert.Equal(t, 0.0, zScore(nil))

	// last value at the mean scores zero
	assert.InDelta(t, 0.0, zScore([]float64{1, 3, 2}), 1e-9)

	// last value above the mean scores positive
	assert.Greater(t, zScore([]float64{1, 2, 3, 4, 10}), 0.0)
	// and below, negative
	assert.Less(t, zScore([]float64{10, 4, 3, 2, 1}), 0.0)
}

func TestClip(t *testing.T) {
	assert.Equal(t, -1.0, clip(-3, -1, 1))
	assert.Equal(t, 1.0, clip(2.5, -1, 1))
	assert.Equal(t, 0.3, clip(0.3, -1, 1))
}

package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStd(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.Equal(t, 7.0, Mean([]float64{8, 6, 7}))
	assert.InDelta(t, 1.0, SampleStd([]float64{8, 6, 7}), 1e-12)
	assert.Equal(t, 0.0, SampleStd([]float64{10}))
	assert.Equal(t, 0.0, SampleStd(nil))
}

func TestMedian(t *testing.T) {
	values := []float64{10, 4, 8, 6}
	assert.Equal(t, 7.0, Median(values))
	assert.Equal(t, []float64{10, 4, 8, 6}, values, "input must not be reordered")
	assert.Equal(t, 5.0, Median([]float64{9, 5, 1}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestRound(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{2.675, 2, 2.67},
		{0.125, 2, 0.12},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{7.75, 1, 7.8},
		{1.0 / 6, 4, 0.1667},
		{-1.005, 2, -1.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.x, tt.places), "Round(%v, %d)", tt.x, tt.places)
	}
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

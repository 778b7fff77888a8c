package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func res(values []float64, conversions int) []Result {
	out := make([]Result, len(values))
	for i, v := range values {
		out[i] = Result{Value: v, Converted: i < conversions}
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := summarize(nil)
		assert.Equal(t, 0, s.Count)
		assert.Zero(t, s.Mean)
	})

	t.Run("single value", func(t *testing.T) {
		s := summarize(res([]float64{4}, 1))
		assert.Equal(t, 4.0, s.Mean)
		assert.Equal(t, 4.0, s.Median)
		assert.Zero(t, s.StdDev)
		assert.Equal(t, 1.0, s.ConversionRate)
	})

	t.Run("known distribution", func(t *testing.T) {
		s := summarize(res([]float64{1, 2, 3, 4, 5}, 2))
		assert.Equal(t, 3.0, s.Mean)
		assert.Equal(t, 3.0, s.Median)
		assert.Equal(t, 2.0, s.P25)
		assert.Equal(t, 4.0, s.P75)
		assert.InDelta(t, 4.8, s.P95, 1e-9)
		assert.InDelta(t, math.Sqrt(2.5), s.StdDev, 1e-9)
		assert.InDelta(t, 0.4, s.ConversionRate, 1e-9)
	})
}

func TestTwoProportionZ(t *testing.T) {
	t.Run("identical proportions", func(t *testing.T) {
		assert.InDelta(t, 0, twoProportionZ(50, 100, 50, 100), 1e-9)
	})

	t.Run("clear lift is positive", func(t *testing.T) {
		z := twoProportionZ(90, 100, 50, 100)
		assert.Greater(t, z, 5.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		z1 := twoProportionZ(60, 100, 40, 100)
		z2 := twoProportionZ(40, 100, 60, 100)
		assert.InDelta(t, z1, -z2, 1e-9)
	})
}

func TestTwoTailedP(t *testing.T) {
	assert.InDelta(t, 1.0, twoTailedP(0), 1e-9)
	assert.InDelta(t, 0.05, twoTailedP(1.959964), 1e-4)
	assert.Less(t, twoTailedP(5), 1e-5)
	// Two-tailed: sign does not matter.
	assert.InDelta(t, twoTailedP(2), twoTailedP(-2), 1e-12)
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.8413, normalCDF(1), 1e-4)
	assert.InDelta(t, 0.9772, normalCDF(2), 1e-4)
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	assert.Equal(t, 10.0, percentile(values, 0))
	assert.Equal(t, 40.0, percentile(values, 1))
	assert.Equal(t, 25.0, percentile(values, 0.5))
}

package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pts(years []int, prod []float64, area []float64) []SeriesPoint {
	out := make([]SeriesPoint, len(years))
	for i := range years {
		out[i] = SeriesPoint{Year: years[i], Production: prod[i], Area: area[i]}
	}
	return out
}

func TestForecast_Empty(t *testing.T) {
	p, a := Forecast(nil, 2020)
	assert.Equal(t, 0.0, p)
	assert.Equal(t, 0.0, a)
}

func TestForecast_SinglePointIgnoresTarget(t *testing.T) {
	series := pts([]int{2010}, []float64{500}, []float64{100})
	for _, target := range []int{2005, 2010, 2030} {
		p, a := Forecast(series, target)
		assert.InDelta(t, 510.0, p, 1e-9, "target %d", target)
		assert.InDelta(t, 101.0, a, 1e-9, "target %d", target)
	}
}

func TestForecast_FitNotInterpolation(t *testing.T) {
	// Fitted line: y = 25(x-2001) + 150.
	series := pts([]int{2000, 2001, 2002}, []float64{100, 200, 150}, []float64{10, 10, 10})

	p, _ := Forecast(series, 2000)
	assert.InDelta(t, 125.0, p, 1e-6, "observed year returns the fitted value")

	p, a := Forecast(series, 2002)
	assert.InDelta(t, 175.0, p, 1e-6, "last observed year still goes through regression")
	assert.NotEqual(t, 150.0, p)
	assert.InDelta(t, 10.0, a, 1e-6)
}

func TestForecast_Extrapolates(t *testing.T) {
	series := pts([]int{2010, 2011, 2012, 2013}, []float64{100, 110, 120, 130}, []float64{50, 50, 60, 60})
	p, a := Forecast(series, 2016)
	assert.InDelta(t, 160.0, p, 1e-6)
	// Area fit: slope 4, mean 55 at 2011.5 -> 55 + 4*4.5 = 73.
	assert.InDelta(t, 73.0, a, 1e-6)
}

func TestForecast_ClampsNegative(t *testing.T) {
	series := pts([]int{2000, 2001}, []float64{100, 50}, []float64{10, 5})
	p, a := Forecast(series, 2010)
	assert.Equal(t, 0.0, p)
	assert.Equal(t, 0.0, a)
}

func TestForecast_UnsortedInput(t *testing.T) {
	sorted := pts([]int{2000, 2001, 2002}, []float64{100, 200, 150}, []float64{1, 2, 3})
	shuffled := []SeriesPoint{sorted[2], sorted[0], sorted[1]}
	p1, a1 := Forecast(sorted, 2005)
	p2, a2 := Forecast(shuffled, 2005)
	assert.InDelta(t, p1, p2, 1e-9)
	assert.InDelta(t, a1, a2, 1e-9)
	assert.Equal(t, 2002, shuffled[0].Year, "input slice is not reordered")
}

func TestForecast_SameYearFallsBackToMean(t *testing.T) {
	series := pts([]int{2005, 2005}, []float64{100, 300}, []float64{10, 30})
	p, a := Forecast(series, 2009)
	assert.InDelta(t, 200.0, p, 1e-9)
	assert.InDelta(t, 20.0, a, 1e-9)
}

func TestFitLine(t *testing.T) {
	slope, intercept, ok := FitLine([]float64{1, 2, 3}, []float64{3, 5, 7})
	assert.True(t, ok)
	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 1.0, intercept, 1e-12)

	_, _, ok = FitLine([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestForecastSeries_YieldGuard(t *testing.T) {
	series := pts([]int{2000, 2001}, []float64{100, 120}, []float64{0, 0})
	fr := ForecastSeries(series, 2003)
	assert.Greater(t, fr.Production, 0.0)
	assert.Equal(t, 0.0, fr.Area)
	assert.Equal(t, 0.0, fr.Yield)
	assert.False(t, math.IsNaN(fr.Yield))
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name string
		prod []float64
		want TrendLabel
	}{
		{"single point", []float64{100}, TrendStable},
		{"doubling", []float64{100, 100, 200, 200}, TrendIncreasing},
		{"halving", []float64{200, 100}, TrendDecreasing},
		{"within deadband", []float64{100, 105, 108}, TrendStable},
		{"from zero", []float64{0, 50}, TrendIncreasing},
		{"all zero", []float64{0, 0, 0}, TrendStable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			years := make([]int, len(tc.prod))
			area := make([]float64, len(tc.prod))
			for i := range years {
				years[i] = 2000 + i
			}
			assert.Equal(t, tc.want, Trend(pts(years, tc.prod, area)))
		})
	}
}

func TestYield(t *testing.T) {
	assert.Equal(t, 2.5, Yield(250, 100))
	assert.Equal(t, 0.0, Yield(250, 0))
	assert.Equal(t, 0.0, Yield(250, -1))
}

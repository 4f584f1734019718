package analyzer

import "sort"

// Growth factors applied when a series has a single observation.
const (
	SinglePointProductionGrowth = 1.02
	SinglePointAreaGrowth       = 1.01
)

// TrendLabel describes the direction of a production series.
type TrendLabel string

const (
	TrendIncreasing TrendLabel = "increasing"
	TrendDecreasing TrendLabel = "decreasing"
	TrendStable     TrendLabel = "stable"
)

// trendDeadband is the relative change between half-means below which a
// series is considered stable.
const trendDeadband = 0.10

// ForecastResult is the projection of one series to a target year.
type ForecastResult struct {
	Production float64    `json:"predicted_production"`
	Area       float64    `json:"predicted_area"`
	Yield      float64    `json:"predicted_yield"`
	Trend      TrendLabel `json:"trend"`
}

// Forecast projects production and area to the target start year. Points
// are expected in ascending year order; an unordered slice is sorted on a copy.
//
// An empty series yields zeros. A single point is scaled by the single-point
// growth factors whatever the target. Otherwise independent least-squares
// lines are fitted for production and area and evaluated at the target, with
// negative results clamped to 0.
func Forecast(points []SeriesPoint, target int) (production, area float64) {
	switch len(points) {
	case 0:
		return 0, 0
	case 1:
		return points[0].Production * SinglePointProductionGrowth,
			points[0].Area * SinglePointAreaGrowth
	}

	sorted := points
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Year < points[j].Year }) {
		sorted = make([]SeriesPoint, len(points))
		copy(sorted, points)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	}

	xs := make([]float64, len(sorted))
	prod := make([]float64, len(sorted))
	areas := make([]float64, len(sorted))
	for i, p := range sorted {
		xs[i] = float64(p.Year)
		prod[i] = p.Production
		areas[i] = p.Area
	}

	x := float64(target)
	production = clampZero(evalLine(xs, prod, x))
	area = clampZero(evalLine(xs, areas, x))
	return production, area
}

// ForecastSeries projects a series and derives yield and trend.
func ForecastSeries(points []SeriesPoint, target int) ForecastResult {
	production, area := Forecast(points, target)
	return ForecastResult{
		Production: production,
		Area:       area,
		Yield:      Yield(production, area),
		Trend:      Trend(points),
	}
}

// FitLine returns the ordinary least-squares slope and intercept for the
// points (xs[i], ys[i]). ok is false when the fit is undefined: fewer than two
// points or all x values equal.
func FitLine(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, 0, false
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

// evalLine evaluates the fitted line at x. When every x is identical the
// fit is undefined and the mean of ys stands in.
func evalLine(xs, ys []float64, x float64) float64 {
	slope, intercept, ok := FitLine(xs, ys)
	if !ok {
		return mean(ys)
	}
	return slope*x + intercept
}

// Trend labels a series by comparing the mean production of its first half
// with that of its second half. The first half holds floor(n/2) points.
func Trend(points []SeriesPoint) TrendLabel {
	n := len(points)
	if n < 2 {
		return TrendStable
	}

	sorted := make([]SeriesPoint, n)
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	split := n / 2
	var first, second float64
	for i, p := range sorted {
		if i < split {
			first += p.Production
		} else {
			second += p.Production
		}
	}
	avgFirst := first / float64(split)
	avgSecond := second / float64(n-split)

	if avgFirst == 0 {
		if avgSecond > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}

	change := (avgSecond - avgFirst) / avgFirst
	switch {
	case change > trendDeadband:
		return TrendIncreasing
	case change < -trendDeadband:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Yield returns production per hectare, or 0 when area is not positive.
func Yield(production, area float64) float64 {
	if area <= 0 {
		return 0
	}
	return production / area
}

func clampZero(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

package trend

import (
	"sort"

	"tally/internal/core"
)

// Direction is the fitted movement of one category's net across the
// analyzed buckets: cents gained or lost per period, with the R² telling
// how well a straight line explains the series.
type Direction struct {
	Category       core.CategoryID
	SlopeCentsFit  float64
	R2             float64
	PeriodsCovered int
}

// Directions fits a regression line per category over the net series the
// points carry, in their bucket order. Categories appearing in fewer than
// two buckets are skipped; one observation has no direction. Output is
// sorted by category id.
func Directions(points []Point) []Direction {
	series := make(map[core.CategoryID][]float64)
	for _, p := range points {
		series[p.Category] = append(series[p.Category], float64(p.CurrentNet))
	}

	out := make([]Direction, 0, len(series))
	for cat, values := range series {
		if len(values) < 2 {
			continue
		}
		slope, r2 := Regression(values)
		out = append(out, Direction{
			Category:       cat,
			SlopeCentsFit:  slope,
			R2:             r2,
			PeriodsCovered: len(values),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Regression fits an ordinary least-squares line over values indexed
// 0..n-1 and returns the slope (cents per period) with the R² goodness of
// fit. Fewer than two values fit nothing: slope 0, R² 0.
func Regression(values []float64) (slope, r2 float64) {
	n := float64(len(values))
	if n < 2 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range values {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		// A flat series is fit perfectly by the flat line.
		return slope, 1
	}
	return slope, 1 - ssRes/ssTot
}

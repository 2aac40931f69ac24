// Package compare computes per-keyword comparison statistics over trend series.
package compare

import (
	"math"
	"sort"

	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
)

// slopeEpsilon absorbs floating point noise so flat series read as stable.
const slopeEpsilon = 1e-9

// Stats are the comparison statistics of one keyword.
type Stats struct {
	Keyword        string               `json:"keyword"`
	Points         int                  `json:"points"`
	TotalVolume    float64              `json:"total_volume"`
	PeakValue      float64              `json:"peak_value"`
	MinValue       float64              `json:"min_value"`
	Average        float64              `json:"average"`
	StdDev         float64              `json:"std_dev"`
	TrendSlope     float64              `json:"trend_slope"`
	TrendDirection types.TrendDirection `json:"trend_direction"`
	Volatility     float64              `json:"volatility"`
	PeakRatio      float64              `json:"peak_ratio"`
	Consistency    float64              `json:"consistency"`
}

// Compute derives Stats from values. An empty series yields zero statistics
// and a stable direction.
func Compute(keyword string, values []float64) Stats {
	s := Stats{Keyword: keyword, Points: len(values), TrendDirection: types.DirectionStable}
	if len(values) == 0 {
		return s
	}

	s.PeakValue, s.MinValue = values[0], values[0]
	for _, v := range values {
		s.TotalVolume += v
		s.PeakValue = math.Max(s.PeakValue, v)
		s.MinValue = math.Min(s.MinValue, v)
	}
	n := float64(len(values))
	s.Average = s.TotalVolume / n

	var sq float64
	var above int
	for _, v := range values {
		d := v - s.Average
		sq += d * d
		if v > s.Average {
			above++
		}
	}
	s.StdDev = math.Sqrt(sq / n)
	s.Consistency = float64(above) / n

	if s.Average > 0 {
		s.Volatility = s.StdDev / s.Average
		s.PeakRatio = s.PeakValue / s.Average
	}

	s.TrendSlope = LinearSlope(values)
	s.TrendDirection = Direction(s.TrendSlope)
	return s
}

// Direction maps a slope to rising, falling or stable.
func Direction(slope float64) types.TrendDirection {
	switch {
	case slope > slopeEpsilon:
		return types.DirectionRising
	case slope < -slopeEpsilon:
		return types.DirectionFalling
	default:
		return types.DirectionStable
	}
}

// LinearSlope is the least-squares slope of y against its index.
func LinearSlope(y []float64) float64 {
	n := float64(len(y))
	if n < 2 {
		return 0
	}
	xMean := (n - 1) / 2
	var ySum float64
	for _, v := range y {
		ySum += v
	}
	yMean := ySum / n
	var num, den float64
	for i, yi := range y {
		xi := float64(i)
		num += (xi - xMean) * (yi - yMean)
		den += (xi - xMean) * (xi - xMean)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Compare computes Stats for each keyword in order. Keywords without a
// series in set are reported with empty statistics.
func Compare(keywords []string, set map[string]model.TrendSeries) []Stats {
	out := make([]Stats, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, Compute(k, set[k].Observations()))
	}
	return out
}

// Ordering keys for Rank.
const (
	ByTotalVolume = "total_volume"
	ByPeakValue   = "peak_value"
	ByVolatility  = "volatility"
)

// Rank sorts stats in place, highest first, by the given key. Ties keep
// their input order. Unknown keys leave the slice untouched.
func Rank(stats []Stats, by string) {
	var key func(Stats) float64
	switch by {
	case ByTotalVolume:
		key = func(s Stats) float64 { return s.TotalVolume }
	case ByPeakValue:
		key = func(s Stats) float64 { return s.PeakValue }
	case ByVolatility:
		key = func(s Stats) float64 { return s.Volatility }
	default:
		return
	}
	sort.SliceStable(stats, func(i, j int) bool { return key(stats[i]) > key(stats[j]) })
}

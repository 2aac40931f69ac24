// Package pattern classifies the shape of a trend series and quantifies the
// growth and volatility signals shown next to it.
//
// All functions are pure and deterministic. Division by zero is guarded
// (zero first value, zero mean, zero variance); no other input is rejected.
package pattern

import (
	"math"

	"github.com/okian/trendscope/internal/domain/model"
)

// TrendType is the categorical shape of a series.
type TrendType string

// Trend types, in classification precedence order.
const (
	Volatile    TrendType = "volatile"
	Exponential TrendType = "exponential"
	Linear      TrendType = "linear"
	Seasonal    TrendType = "seasonal"
	Stable      TrendType = "stable"
)

// Classification thresholds.
const (
	volatileThreshold    = 0.5
	exponentialThreshold = 50.0
	linearThreshold      = 10.0

	minSeasonalPoints     = 12
	seasonalCorrThreshold = 0.3
)

// seasonalLags are the periods probed for seasonality: weekly and monthly on daily data.
var seasonalLags = [...]int{7, 30}

// Summary is the derived, never persisted annotation of a series.
type Summary struct {
	TrendType  TrendType `json:"trend_type"`
	GrowthRate float64   `json:"growth_rate"`
	Volatility float64   `json:"volatility"`
	// SeasonalStrength is set only when TrendType is Seasonal. Range [0,1].
	SeasonalStrength *float64 `json:"seasonal_strength,omitempty"`
}

// IsSeasonal reports whether a seasonal strength is attached.
func (s Summary) IsSeasonal() bool { return s.SeasonalStrength != nil }

// Analyze classifies values.
func Analyze(values []float64) Summary {
	if len(values) < 2 {
		return Summary{TrendType: Stable}
	}

	s := Summary{
		GrowthRate: GrowthRate(values),
		Volatility: Volatility(values),
	}

	switch {
	case s.Volatility > volatileThreshold:
		s.TrendType = Volatile
	case math.Abs(s.GrowthRate) > exponentialThreshold:
		s.TrendType = Exponential
	case math.Abs(s.GrowthRate) > linearThreshold:
		s.TrendType = Linear
	case IsSeasonal(values):
		s.TrendType = Seasonal
		strength := SeasonalStrength(values)
		s.SeasonalStrength = &strength
	default:
		s.TrendType = Stable
	}
	return s
}

// AnalyzeSeries classifies the observations of a fetched series.
func AnalyzeSeries(series model.TrendSeries) Summary {
	return Analyze(series.Observations())
}

// GrowthRate is the percentage change from the first to the last value.
// It is 0 for fewer than two values or when the first value is 0.
func GrowthRate(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	first, last := values[0], values[len(values)-1]
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// Volatility is the coefficient of variation: population standard deviation
// over the mean. It is 0 when the mean is 0.
func Volatility(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	return math.Sqrt(variance(values, m)) / m
}

// IsSeasonal reports whether the weekly or monthly autocorrelation of values
// exceeds the seasonality threshold in absolute value.
func IsSeasonal(values []float64) bool {
	if len(values) < minSeasonalPoints {
		return false
	}
	m := mean(values)
	if variance(values, m) == 0 {
		return false
	}

	var best float64
	for _, lag := range seasonalLags {
		if len(values) < 2*lag {
			continue
		}
		if c := math.Abs(autocorrelation(values, m, lag)); c > best {
			best = c
		}
	}
	return best > seasonalCorrThreshold
}

// Autocorrelation returns the normalized autocorrelation of values at lag.
// It is 0 when lag is out of range or the series has zero variance.
func Autocorrelation(values []float64, lag int) float64 {
	if lag <= 0 || lag >= len(values) {
		return 0
	}
	return autocorrelation(values, mean(values), lag)
}

func autocorrelation(values []float64, m float64, lag int) float64 {
	var num, den float64
	for i, v := range values {
		d := v - m
		den += d * d
		if i+lag < len(values) {
			num += d * (values[i+lag] - m)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// SeasonalStrength is the mean absolute deviation over the mean, capped at 1.
// It is 0 when the mean is 0.
func SeasonalStrength(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	var dev float64
	for _, v := range values {
		dev += math.Abs(v - m)
	}
	return math.Min(dev/float64(len(values))/m, 1)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance around m.
func variance(values []float64, m float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// Package model contains the typed records exchanged with the trends API.
package model

import (
	"fmt"

	"github.com/okian/trendscope/internal/domain/types"
)

// SearchRequest is the body of POST /trends/search.
type SearchRequest struct {
	Keywords  []string        `json:"keywords"`
	Timeframe types.Timeframe `json:"timeframe"`
	Geo       types.Geo       `json:"geo"`
}

// TrendSeries is a keyword's time-ordered sequence of search-interest observations.
type TrendSeries struct {
	Keyword string `json:"keyword,omitempty"`
	// Values is the canonical observation sequence.
	Values []float64 `json:"values,omitempty"`
	// SearchVolume is an older name for the same sequence, read only when Values is absent.
	SearchVolume []float64 `json:"search_volume,omitempty"`
	// Timestamps, when present, are aligned with the observations.
	Timestamps []string   `json:"timestamps,omitempty"`
	Analytics  *Analytics `json:"analytics,omitempty"`
}

// Observations returns Values, or SearchVolume when Values is empty.
func (s TrendSeries) Observations() []float64 {
	if len(s.Values) > 0 {
		return s.Values
	}
	return s.SearchVolume
}

// Validate checks that timestamps, when present, align with observations.
func (s TrendSeries) Validate() error {
	if len(s.Timestamps) > 0 && len(s.Timestamps) != len(s.Observations()) {
		return fmt.Errorf("%w: %q has %d timestamps for %d observations",
			ErrMisalignedSeries, s.Keyword, len(s.Timestamps), len(s.Observations()))
	}
	return nil
}

// Analytics is the server-computed feature summary attached to a series.
type Analytics struct {
	AvgInterest    float64              `json:"avg_interest"`
	MaxInterest    float64              `json:"max_interest"`
	MinInterest    float64              `json:"min_interest"`
	Volatility     float64              `json:"volatility"`
	TrendDirection types.TrendDirection `json:"trend_direction"`
	TrendStrength  float64              `json:"trend_strength"`
}

// SearchResponse maps each keyword to its series.
type SearchResponse map[string]TrendSeries

// PublicTrend is the payload of GET /trends/public/{keyword}.
type PublicTrend struct {
	Keyword    string          `json:"keyword"`
	Values     []float64       `json:"values"`
	Timeframe  types.Timeframe `json:"timeframe"`
	Geo        types.Geo       `json:"geo"`
	Timestamp  string          `json:"timestamp,omitempty"`
	MLInsights *MLInsights     `json:"ml_insights,omitempty"`
}

// Series converts the public payload into a TrendSeries.
func (p PublicTrend) Series() TrendSeries {
	return TrendSeries{Keyword: p.Keyword, Values: p.Values}
}

// MLInsights is the optional feature block of a public trend.
type MLInsights struct {
	AvgInterest    float64              `json:"avg_interest"`
	Volatility     float64              `json:"volatility"`
	TrendDirection types.TrendDirection `json:"trend_direction"`
}

// InsightsRequest is the body of POST /trends/insights.
type InsightsRequest struct {
	Keywords  []string        `json:"keywords"`
	Timeframe types.Timeframe `json:"timeframe"`
}

// Insight is a server-produced annotation over a keyword's series.
type Insight struct {
	Type        types.InsightType `json:"type"`
	Keyword     string            `json:"keyword"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	Confidence  float64           `json:"confidence"`
	DetectedAt  *Time             `json:"detected_at,omitempty"`
}

// PredictRequest is the body of POST /trends/predict.
type PredictRequest struct {
	Keyword string `json:"keyword"`
}

// Features is the per-keyword feature vector used by the ML models.
type Features struct {
	Keyword     string  `json:"keyword"`
	AvgInterest float64 `json:"avg_interest"`
	MaxInterest float64 `json:"max_interest"`
	MinInterest float64 `json:"min_interest"`
	StdInterest float64 `json:"std_interest"`
	TrendSlope  float64 `json:"trend_slope"`
	Volatility  float64 `json:"volatility"`
	PeakRatio   float64 `json:"peak_ratio"`
	Consistency float64 `json:"consistency"`
}

// PredictionResult is the ensemble outcome. Error is set instead of the
// category fields when the models could not produce a prediction.
type PredictionResult struct {
	PredictedCategory     string             `json:"predicted_category,omitempty"`
	Confidence            float64            `json:"confidence,omitempty"`
	IndividualPredictions map[string]string  `json:"individual_predictions,omitempty"`
	IndividualConfidences map[string]float64 `json:"individual_confidences,omitempty"`
	Error                 string             `json:"error,omitempty"`
}

// Prediction is the payload of POST /trends/predict.
type Prediction struct {
	Keyword    string           `json:"keyword"`
	Features   *Features        `json:"features,omitempty"`
	Prediction PredictionResult `json:"prediction"`
	Timestamp  string           `json:"timestamp,omitempty"`
}

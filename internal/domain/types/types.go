// Package types contains common types used across the application
package types

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxSearchKeywords is the largest keyword set the search endpoint accepts.
const MaxSearchKeywords = 5

// Timeframe is an enumerated relative date range bounding a trend series.
type Timeframe string

// Supported timeframes.
const (
	TimeframeHour     Timeframe = "now 1-H"
	Timeframe4Hours   Timeframe = "now 4-H"
	TimeframeDay      Timeframe = "now 1-d"
	TimeframeWeek     Timeframe = "now 7-d"
	TimeframeMonth    Timeframe = "today 1-m"
	Timeframe3Months  Timeframe = "today 3-m"
	Timeframe12Months Timeframe = "today 12-m"
	Timeframe5Years   Timeframe = "today 5-y"
	TimeframeAll      Timeframe = "all"
)

// Timeframes lists every supported timeframe, shortest first.
func Timeframes() []Timeframe {
	return []Timeframe{
		TimeframeHour, Timeframe4Hours, TimeframeDay, TimeframeWeek,
		TimeframeMonth, Timeframe3Months, Timeframe12Months, Timeframe5Years, TimeframeAll,
	}
}

// Valid reports whether t is one of the supported timeframes.
func (t Timeframe) Valid() bool {
	for _, v := range Timeframes() {
		if v == t {
			return true
		}
	}
	return false
}

// ParseTimeframe validates s. Surrounding whitespace is ignored.
func ParseTimeframe(s string) (Timeframe, error) {
	t := Timeframe(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeframe, s)
	}
	return t, nil
}

// Geo is a region code. The empty Geo means worldwide.
type Geo string

// Worldwide samples interest from every region.
const Worldwide Geo = ""

var geoPattern = regexp.MustCompile(`^[A-Z]{2}(-[A-Z0-9]{1,3})?$`)

// Valid reports whether g is worldwide or a country code with an optional subdivision.
func (g Geo) Valid() bool {
	return g == Worldwide || geoPattern.MatchString(string(g))
}

// ParseGeo normalizes s to upper case and validates it.
func ParseGeo(s string) (Geo, error) {
	g := Geo(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGeo, s)
	}
	return g, nil
}

// String renders worldwide explicitly for display.
func (g Geo) String() string {
	if g == Worldwide {
		return "worldwide"
	}
	return string(g)
}

// TrendDirection is the sign of a series' least-squares slope.
type TrendDirection string

// Trend directions.
const (
	DirectionRising  TrendDirection = "rising"
	DirectionFalling TrendDirection = "falling"
	DirectionStable  TrendDirection = "stable"
)

// ParseTrendDirection accepts one of the three direction labels.
func ParseTrendDirection(s string) (TrendDirection, error) {
	switch d := TrendDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionRising, DirectionFalling, DirectionStable:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// InsightType labels a server-produced annotation over a series.
type InsightType string

// Insight types.
const (
	InsightSpike       InsightType = "spike"
	InsightDip         InsightType = "dip"
	InsightSeasonal    InsightType = "seasonal"
	InsightCorrelation InsightType = "correlation"
	InsightAnomaly     InsightType = "anomaly"
)

// NormalizeKeywords trims keywords, drops blanks and duplicates (keeping the
// first occurrence) and enforces the 1..MaxSearchKeywords bound.
func NormalizeKeywords(keywords []string) ([]string, error) {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one keyword is required", ErrInvalidKeywords)
	}
	if len(out) > MaxSearchKeywords {
		return nil, fmt.Errorf("%w: at most %d keywords allowed, got %d", ErrInvalidKeywords, MaxSearchKeywords, len(out))
	}
	return out, nil
}

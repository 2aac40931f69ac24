// Package export writes and reads the client-side exports: the JSON
// analysis export and the CSV keyword comparison.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/pattern"
	"github.com/okian/trendscope/internal/domain/types"
)

// FormatVersion is bumped when the JSON layout changes incompatibly.
const FormatVersion = 1

// TrendPattern is the pattern summary of one keyword.
type TrendPattern struct {
	Keyword string `json:"keyword"`
	pattern.Summary
}

// AnalysisExport is the JSON analysis export.
type AnalysisExport struct {
	Version    int             `json:"version"`
	Title      string          `json:"title"`
	ExportedAt time.Time       `json:"exported_at"`
	Timeframe  types.Timeframe `json:"timeframe"`
	Geo        types.Geo       `json:"geo"`
	Keywords   []string        `json:"keywords"`
	Statistics []compare.Stats `json:"statistics"`
	Patterns   []TrendPattern  `json:"patterns"`
	Insights   []model.Insight `json:"insights"`
}

// Pattern returns the pattern summary recorded for keyword.
func (e AnalysisExport) Pattern(keyword string) (pattern.Summary, bool) {
	for _, p := range e.Patterns {
		if p.Keyword == keyword {
			return p.Summary, true
		}
	}
	return pattern.Summary{}, false
}

// Ordered returns the keywords of series, those named in preferred first
// and in that order, the rest sorted.
func Ordered(preferred []string, series model.SearchResponse) []string {
	out := make([]string, 0, len(series))
	seen := make(map[string]struct{}, len(series))
	for _, k := range preferred {
		if _, ok := series[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	rest := make([]string, 0, len(series)-len(out))
	for k := range series {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// TopInsights returns the n most confident insights, keeping input order
// among equals. n <= 0 keeps all of them.
func TopInsights(insights []model.Insight, n int) []model.Insight {
	out := append([]model.Insight(nil), insights...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// BuildAnalysis assembles an export from a search and its insights.
func BuildAnalysis(title string, req model.SearchRequest, series model.SearchResponse, insights []model.Insight, topN int) AnalysisExport {
	keywords := Ordered(req.Keywords, series)
	e := AnalysisExport{
		Version:    FormatVersion,
		Title:      title,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Timeframe:  req.Timeframe,
		Geo:        req.Geo,
		Keywords:   keywords,
		Statistics: compare.Compare(keywords, series),
		Patterns:   make([]TrendPattern, 0, len(keywords)),
		Insights:   TopInsights(insights, topN),
	}
	for _, k := range keywords {
		e.Patterns = append(e.Patterns, TrendPattern{Keyword: k, Summary: pattern.AnalyzeSeries(series[k])})
	}
	return e
}

// WriteJSON writes e as indented JSON.
func WriteJSON(w io.Writer, e AnalysisExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("write analysis export: %w", err)
	}
	return nil
}

// ReadJSON reads an export written by WriteJSON.
func ReadJSON(r io.Reader) (AnalysisExport, error) {
	var e AnalysisExport
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return AnalysisExport{}, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	if e.Version == 0 || e.Version > FormatVersion {
		return AnalysisExport{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidExport, e.Version)
	}
	return e, nil
}

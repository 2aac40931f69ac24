package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/pattern"
	"github.com/okian/trendscope/internal/domain/types"
	"github.com/okian/trendscope/internal/export"
	"github.com/okian/trendscope/pkg/logger"
	"github.com/okian/trendscope/pkg/metrics"
)

// Form names guarded against duplicate submission.
const (
	formSearch   = "trends.search"
	formPredict  = "trends.predict"
	formInsights = "trends.insights"
	formPublic   = "trends.public"
)

// SearchQuery is the user's search form. Empty timeframe and geo fall back
// to the configured defaults; Worldwide must be asked for explicitly.
type SearchQuery struct {
	Keywords  []string
	Timeframe string
	Geo       string
	Worldwide bool
}

// TrendReport is a search result annotated on the client.
type TrendReport struct {
	Request  model.SearchRequest        `json:"request"`
	Keywords []string                   `json:"keywords"`
	Series   model.SearchResponse       `json:"series"`
	Patterns map[string]pattern.Summary `json:"patterns"`
	Stats    []compare.Stats            `json:"stats"`
	Cached   bool                       `json:"cached"`
}

// PublicReport is a public trend with its client-side pattern summary.
type PublicReport struct {
	Trend   model.PublicTrend `json:"trend"`
	Pattern pattern.Summary   `json:"pattern"`
}

func (s *Service) searchRequest(q SearchQuery) (model.SearchRequest, error) {
	keywords, err := types.NormalizeKeywords(q.Keywords)
	if err != nil {
		return model.SearchRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	req := model.SearchRequest{Keywords: keywords, Timeframe: s.defaultTimeframe, Geo: s.defaultGeo}
	if q.Timeframe != "" {
		if req.Timeframe, err = types.ParseTimeframe(q.Timeframe); err != nil {
			return model.SearchRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	switch {
	case q.Worldwide:
		req.Geo = types.Worldwide
	case q.Geo != "":
		if req.Geo, err = types.ParseGeo(q.Geo); err != nil {
			return model.SearchRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return req, nil
}

// Search fetches and annotates the series of up to five keywords. Identical
// searches are answered from the cache until it expires.
func (s *Service) Search(ctx context.Context, q SearchQuery) (TrendReport, error) {
	req, err := s.searchRequest(q)
	if err != nil {
		return TrendReport{}, err
	}
	return s.search(ctx, req)
}

func (s *Service) search(ctx context.Context, req model.SearchRequest) (TrendReport, error) {
	if s.cache != nil {
		if series, ok := s.cache.Get(req); ok {
			r := s.annotate(ctx, req, series)
			r.Cached = true
			return r, nil
		}
	}

	series, err := guarded(ctx, s, formSearch, func() (model.SearchResponse, error) {
		return s.api.Search(ctx, req)
	})
	if err != nil {
		return TrendReport{}, err
	}
	if s.cache != nil {
		s.cache.Add(req, series)
	}
	return s.annotate(ctx, req, series), nil
}

// annotate runs the pattern analyzer and comparison over every series.
func (s *Service) annotate(ctx context.Context, req model.SearchRequest, series model.SearchResponse) TrendReport {
	keywords := export.Ordered(req.Keywords, series)
	r := TrendReport{
		Request:  req,
		Keywords: keywords,
		Series:   series,
		Patterns: make(map[string]pattern.Summary, len(series)),
		Stats:    compare.Compare(keywords, series),
	}
	for _, k := range keywords {
		ts := series[k]
		if err := ts.Validate(); err != nil {
			s.logger.Warn(ctx, "ignoring misaligned timestamps", logger.String("keyword", k), logger.Error(err))
		}
		sum := pattern.AnalyzeSeries(ts)
		metrics.RecordPattern(string(sum.TrendType))
		r.Patterns[k] = sum
	}
	return r
}

// Compare searches and returns comparison statistics ranked by the given
// key; an empty key keeps the keyword order.
func (s *Service) Compare(ctx context.Context, q SearchQuery, by string) ([]compare.Stats, error) {
	switch by {
	case "", compare.ByTotalVolume, compare.ByPeakValue, compare.ByVolatility:
	default:
		return nil, fmt.Errorf("%w: unknown ranking %q", ErrInvalidInput, by)
	}
	r, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	stats := append([]compare.Stats(nil), r.Stats...)
	compare.Rank(stats, by)
	return stats, nil
}

// Predict asks the ML ensemble to categorize one keyword.
func (s *Service) Predict(ctx context.Context, keyword string) (model.Prediction, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return model.Prediction{}, fmt.Errorf("%w: keyword is required", ErrInvalidInput)
	}
	if err := s.requireAuth(ctx); err != nil {
		return model.Prediction{}, err
	}
	return guarded(ctx, s, formPredict, func() (model.Prediction, error) {
		return s.api.Predict(ctx, keyword)
	})
}

// Insights returns the server's insights over keywords. An empty timeframe
// uses the configured insights default.
func (s *Service) Insights(ctx context.Context, keywords []string, timeframe string) ([]model.Insight, error) {
	ks, err := types.NormalizeKeywords(keywords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	req := model.InsightsRequest{Keywords: ks, Timeframe: s.insightsTimeframe}
	if timeframe != "" {
		if req.Timeframe, err = types.ParseTimeframe(timeframe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if err := s.requireAuth(ctx); err != nil {
		return nil, err
	}
	return guarded(ctx, s, formInsights, func() ([]model.Insight, error) {
		return s.api.Insights(ctx, req)
	})
}

// PublicTrend fetches one keyword without a session and annotates it.
func (s *Service) PublicTrend(ctx context.Context, keyword string, q SearchQuery, includeML bool) (PublicReport, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return PublicReport{}, fmt.Errorf("%w: keyword is required", ErrInvalidInput)
	}
	q.Keywords = []string{keyword}
	req, err := s.searchRequest(q)
	if err != nil {
		return PublicReport{}, err
	}
	pt, err := guarded(ctx, s, formPublic, func() (model.PublicTrend, error) {
		return s.api.PublicTrend(ctx, keyword, req.Timeframe, req.Geo, includeML)
	})
	if err != nil {
		return PublicReport{}, err
	}
	sum := pattern.AnalyzeSeries(pt.Series())
	metrics.RecordPattern(string(sum.TrendType))
	return PublicReport{Trend: pt, Pattern: sum}, nil
}

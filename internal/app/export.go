package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/trendscope/internal/domain/compare"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/export"
	"github.com/okian/trendscope/pkg/logger"
	"github.com/okian/trendscope/pkg/metrics"
)

// Export formats for metrics.
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// ExportAnalysis searches q, collects insights when a session is held, and
// writes the JSON analysis export to w.
func (s *Service) ExportAnalysis(ctx context.Context, w io.Writer, title string, q SearchQuery) (export.AnalysisExport, error) {
	report, err := s.Search(ctx, q)
	if err != nil {
		return export.AnalysisExport{}, err
	}

	var insights []model.Insight
	if s.session.IsAuthenticated(ctx) {
		insights, err = s.Insights(ctx, report.Request.Keywords, string(report.Request.Timeframe))
		if err != nil && !errors.Is(err, ErrNotAuthenticated) {
			return export.AnalysisExport{}, err
		}
	} else {
		s.logger.Info(ctx, "not logged in, exporting without insights")
	}

	if strings.TrimSpace(title) == "" {
		title = strings.Join(report.Keywords, " vs ")
	}
	e := export.BuildAnalysis(title, report.Request, report.Series, insights, s.topInsights)
	if err := export.WriteJSON(w, e); err != nil {
		return export.AnalysisExport{}, fmt.Errorf("export analysis: %w", err)
	}
	metrics.RecordExport(formatJSON)
	s.logger.Debug(ctx, "analysis exported",
		logger.Int("keywords", len(e.Keywords)),
		logger.Int("insights", len(e.Insights)))
	return e, nil
}

// ExportComparison searches q and writes the comparison CSV to w, ranked by
// the given key.
func (s *Service) ExportComparison(ctx context.Context, w io.Writer, q SearchQuery, by string) ([]compare.Stats, error) {
	stats, err := s.Compare(ctx, q, by)
	if err != nil {
		return nil, err
	}
	if err := export.WriteComparisonCSV(w, stats); err != nil {
		return nil, fmt.Errorf("export comparison: %w", err)
	}
	metrics.RecordExport(formatCSV)
	return stats, nil
}

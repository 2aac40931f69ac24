package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/trendscope/internal/domain/model"
)

// filterQuery renders f as the GET /analyses query string.
func filterQuery(f model.AnalysisFilter) url.Values {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.UTC().Format(time.RFC3339))
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("offset", strconv.Itoa(f.Offset))
	return q
}

// ListAnalyses lists stored analyses. The filter is normalized before sending.
func (c *Client) ListAnalyses(ctx context.Context, f model.AnalysisFilter) (model.AnalysisPage, error) {
	f = f.Normalize()
	env, err := send[[]model.Analysis](ctx, c, call{
		method:   http.MethodGet,
		segments: []string{"analyses"},
		query:    filterQuery(f),
	})
	if err != nil {
		return model.AnalysisPage{}, err
	}

	page := model.AnalysisPage{Offset: f.Offset, Limit: f.Limit}
	if env.Data != nil {
		page.Analyses = *env.Data
	}
	page.Count = len(page.Analyses)
	if md := env.Metadata; md != nil {
		if md.Count > 0 {
			page.Count = md.Count
		}
		if md.Limit > 0 {
			page.Limit = md.Limit
		}
		page.Offset = md.Offset
	}
	return page, nil
}

// GetAnalysis fetches one stored analysis with its full results.
func (c *Client) GetAnalysis(ctx context.Context, id int64) (model.Analysis, error) {
	return fetch[model.Analysis](ctx, c, call{
		method:   http.MethodGet,
		segments: []string{"analyses", idSegment(id)},
	})
}

// Dashboard returns the per-user counts, recent analyses and ML status.
func (c *Client) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	return fetch[model.DashboardStats](ctx, c, call{
		method:   http.MethodGet,
		segments: []string{"stats", "dashboard"},
	})
}

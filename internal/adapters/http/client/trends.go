package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
)

// Search fetches the series of up to five keywords.
func (c *Client) Search(ctx context.Context, req model.SearchRequest) (model.SearchResponse, error) {
	return fetch[model.SearchResponse](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"trends", "search"},
		body:     req,
	})
}

// Predict asks the ML ensemble to categorize keyword.
func (c *Client) Predict(ctx context.Context, keyword string) (model.Prediction, error) {
	return fetch[model.Prediction](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"trends", "predict"},
		body:     model.PredictRequest{Keyword: keyword},
	})
}

// Insights returns the server's annotations over the keywords' series.
func (c *Client) Insights(ctx context.Context, req model.InsightsRequest) ([]model.Insight, error) {
	return fetch[[]model.Insight](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"trends", "insights"},
		body:     req,
	})
}

// PublicTrend fetches one keyword without authentication.
func (c *Client) PublicTrend(ctx context.Context, keyword string, timeframe types.Timeframe, geo types.Geo, includeML bool) (model.PublicTrend, error) {
	q := url.Values{}
	if timeframe != "" {
		q.Set("timeframe", string(timeframe))
	}
	if geo != types.Worldwide {
		q.Set("geo", string(geo))
	}
	q.Set("include_ml", strconv.FormatBool(includeML))
	return fetch[model.PublicTrend](ctx, c, call{
		method:   http.MethodGet,
		segments: []string{"trends", "public", keyword},
		query:    q,
	})
}

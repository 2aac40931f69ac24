package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/trendscope/internal/domain/model"
)

func idSegment(id int64) string { return strconv.FormatInt(id, 10) }

// ListWatchlists lists the caller's active watchlists, most recently updated first.
func (c *Client) ListWatchlists(ctx context.Context) ([]model.Watchlist, error) {
	return fetch[[]model.Watchlist](ctx, c, call{
		method:   http.MethodGet,
		segments: []string{"watchlists"},
	})
}

// CreateWatchlist creates a watchlist.
func (c *Client) CreateWatchlist(ctx context.Context, in model.WatchlistInput) (model.Watchlist, error) {
	return fetch[model.Watchlist](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"watchlists"},
		body:     in,
	})
}

// UpdateWatchlist changes the set fields of watchlist id.
func (c *Client) UpdateWatchlist(ctx context.Context, id int64, in model.WatchlistInput) (model.Watchlist, error) {
	return fetch[model.Watchlist](ctx, c, call{
		method:   http.MethodPut,
		segments: []string{"watchlists", idSegment(id)},
		body:     in,
	})
}

// DeleteWatchlist removes watchlist id. The response carries no data.
func (c *Client) DeleteWatchlist(ctx context.Context, id int64) error {
	_, err := send[json.RawMessage](ctx, c, call{
		method:   http.MethodDelete,
		segments: []string{"watchlists", idSegment(id)},
	})
	return err
}

// AnalyzeWatchlist runs the ML analysis over every keyword of watchlist id
// and stores the result server-side.
func (c *Client) AnalyzeWatchlist(ctx context.Context, id int64) (model.WatchlistAnalysis, error) {
	return fetch[model.WatchlistAnalysis](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"watchlists", idSegment(id), "analyze"},
	})
}

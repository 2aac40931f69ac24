package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Watchlist is a named, user-defined set of keywords tracked together.
type Watchlist struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`
	CreatedAt   Time     `json:"created_at"`
	UpdatedAt   Time     `json:"updated_at"`
	IsActive    bool     `json:"is_active"`
	IsPublic    bool     `json:"is_public"`
}

// Status renders the active flag for display.
func (w Watchlist) Status() string {
	if w.IsActive {
		return "active"
	}
	return "paused"
}

// WatchlistInput is the body of POST /watchlists and PUT /watchlists/{id}.
// Nil pointer fields are left unchanged on update.
type WatchlistInput struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    string   `json:"category,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// ValidateCreate checks the fields the server requires for a new watchlist.
func (in WatchlistInput) ValidateCreate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidWatchlist)
	}
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidWatchlist)
	}
	if len(SplitKeywords(in.Keywords)) == 0 {
		return fmt.Errorf("%w: at least one keyword is required", ErrInvalidWatchlist)
	}
	return nil
}

// SplitKeywords flattens comma or newline separated entries and drops blanks.
func SplitKeywords(entries []string) []string {
	var out []string
	for _, e := range entries {
		for _, k := range strings.FieldsFunc(e, func(r rune) bool { return r == ',' || r == '\n' }) {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

// KeywordAnalysis is the per-keyword outcome of a watchlist analysis.
type KeywordAnalysis struct {
	Status     string            `json:"status"`
	TrendData  []float64         `json:"trend_data,omitempty"`
	Features   *Features         `json:"features,omitempty"`
	Prediction *PredictionResult `json:"prediction,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Keyword analysis statuses.
const (
	KeywordAnalyzed = "success"
	KeywordNoData   = "no_data"
)

// WatchlistAnalysis is the payload of POST /watchlists/{id}/analyze.
type WatchlistAnalysis struct {
	AnalysisID int64                      `json:"analysis_id"`
	Watchlist  Watchlist                  `json:"watchlist"`
	Results    map[string]KeywordAnalysis `json:"results"`
}

// Analysis is a stored analysis record.
type Analysis struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Keywords     []string        `json:"keywords"`
	AnalysisType string          `json:"analysis_type"`
	Status       string          `json:"status,omitempty"`
	Results      json.RawMessage `json:"results,omitempty"`
	CreatedAt    Time            `json:"created_at"`
	UpdatedAt    Time            `json:"updated_at"`
	IsPublic     bool            `json:"is_public"`
}

// WatchlistResults decodes Results as a watchlist analysis keyed by keyword.
func (a Analysis) WatchlistResults() (map[string]KeywordAnalysis, error) {
	out := map[string]KeywordAnalysis{}
	if len(a.Results) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(a.Results, &out); err != nil {
		return nil, fmt.Errorf("decode results of analysis %d: %w", a.ID, err)
	}
	return out, nil
}

// Sort orders for analysis listings.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

// AnalysisFilter narrows GET /analyses.
type AnalysisFilter struct {
	Type   string
	Status string
	From   time.Time
	To     time.Time
	Sort   string
	Limit  int
	Offset int
}

// Paging bounds of GET /analyses.
const (
	MaxAnalysesLimit     = 100
	defaultAnalysesLimit = 50
)

// Normalize clamps the paging values to what the server accepts.
func (f AnalysisFilter) Normalize() AnalysisFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultAnalysesLimit
	case f.Limit > MaxAnalysesLimit:
		f.Limit = MaxAnalysesLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Validate rejects contradictory filters.
func (f AnalysisFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: date range ends before it starts", ErrInvalidFilter)
	}
	switch f.Sort {
	case "", SortNewest, SortOldest, SortTitle:
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, f.Sort)
	}
	return nil
}

// AnalysisPage is one page of GET /analyses.
type AnalysisPage struct {
	Analyses []Analysis `json:"analyses"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

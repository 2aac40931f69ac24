package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/okian/trendscope/internal/adapters/http/client"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/pkg/logger"
	"github.com/okian/trendscope/pkg/metrics"
)

const (
	formWatchlistList   = "watchlists.list"
	formWatchlistCreate = "watchlists.create"
	formAnalyzeAll      = "watchlists.analyze_all"
	formAnalyses        = "analyses.list"
	formDashboard       = "stats.dashboard"
	formModelStatus     = "ml.status"
	formTrain           = "ml.train"
)

// Per-id forms so different watchlists can be worked on at the same time.
func formWatchlistUpdate(id int64) string { return "watchlists.update/" + strconv.FormatInt(id, 10) }
func formWatchlistDelete(id int64) string { return "watchlists.delete/" + strconv.FormatInt(id, 10) }
func formWatchlistAnalyze(id int64) string { return "watchlists.analyze/" + strconv.FormatInt(id, 10) }
func formAnalysisGet(id int64) string { return "analyses.get/" + strconv.FormatInt(id, 10) }

// Watchlist analysis outcomes for metrics.
const (
	analysisSucceeded = "success"
	analysisFailed    = "failed"
)

// AnalyzeOutcome is the result of analyzing one watchlist in a batch.
type AnalyzeOutcome struct {
	WatchlistID int64                    `json:"watchlist_id"`
	Analysis    *model.WatchlistAnalysis `json:"analysis,omitempty"`
	Err         error                    `json:"-"`
	Error       string                   `json:"error,omitempty"`
}

func validID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidInput, id)
	}
	return nil
}

// ListWatchlists returns the caller's active watchlists.
func (s *Service) ListWatchlists(ctx context.Context) ([]model.Watchlist, error) {
	if err := s.requireAuth(ctx); err != nil {
		return nil, err
	}
	return guarded(ctx, s, formWatchlistList, func() ([]model.Watchlist, error) {
		return s.api.ListWatchlists(ctx)
	})
}

// CreateWatchlist validates and creates a watchlist. Keywords may be given
// comma or newline separated.
func (s *Service) CreateWatchlist(ctx context.Context, in model.WatchlistInput) (model.Watchlist, error) {
	in.Keywords = model.SplitKeywords(in.Keywords)
	if err := in.ValidateCreate(); err != nil {
		return model.Watchlist{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.requireAuth(ctx); err != nil {
		return model.Watchlist{}, err
	}
	return guarded(ctx, s, formWatchlistCreate, func() (model.Watchlist, error) {
		return s.api.CreateWatchlist(ctx, in)
	})
}

// UpdateWatchlist changes the set fields of watchlist id.
func (s *Service) UpdateWatchlist(ctx context.Context, id int64, in model.WatchlistInput) (model.Watchlist, error) {
	if err := validID(id); err != nil {
		return model.Watchlist{}, err
	}
	if in.Keywords != nil {
		if in.Keywords = model.SplitKeywords(in.Keywords); len(in.Keywords) == 0 {
			return model.Watchlist{}, fmt.Errorf("%w: keywords cannot be emptied", ErrInvalidInput)
		}
	}
	if in.Name == "" && in.Description == "" && in.Category == "" && in.Keywords == nil && in.IsActive == nil && in.IsPublic == nil {
		return model.Watchlist{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := s.requireAuth(ctx); err != nil {
		return model.Watchlist{}, err
	}
	return guarded(ctx, s, formWatchlistUpdate(id), func() (model.Watchlist, error) {
		return s.api.UpdateWatchlist(ctx, id, in)
	})
}

// DeleteWatchlist removes watchlist id.
func (s *Service) DeleteWatchlist(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := s.requireAuth(ctx); err != nil {
		return err
	}
	_, err := guarded(ctx, s, formWatchlistDelete(id), func() (struct{}, error) {
		return struct{}{}, s.api.DeleteWatchlist(ctx, id)
	})
	return err
}

// AnalyzeWatchlist runs the ML analysis of watchlist id.
func (s *Service) AnalyzeWatchlist(ctx context.Context, id int64) (model.WatchlistAnalysis, error) {
	if err := validID(id); err != nil {
		return model.WatchlistAnalysis{}, err
	}
	if err := s.requireAuth(ctx); err != nil {
		return model.WatchlistAnalysis{}, err
	}
	return s.analyze(ctx, id)
}

func (s *Service) analyze(ctx context.Context, id int64) (model.WatchlistAnalysis, error) {
	return guarded(ctx, s, formWatchlistAnalyze(id), func() (model.WatchlistAnalysis, error) {
		return s.analyzeOnce(ctx, id)
	})
}

func (s *Service) analyzeOnce(ctx context.Context, id int64) (model.WatchlistAnalysis, error) {
	res, err := s.api.AnalyzeWatchlist(ctx, id)
	if err != nil {
		metrics.RecordWatchlistAnalysis(analysisFailed)
		return res, err //nolint:wrapcheck // client errors carry their own context
	}
	metrics.RecordWatchlistAnalysis(analysisSucceeded)
	return res, nil
}

// AnalyzeWatchlists analyzes several watchlists concurrently, at most the
// configured number at a time. With no ids every active watchlist is
// analyzed. Repeated ids are analyzed once. A failing watchlist does not
// stop the others; outcomes keep the order of first appearance and carry
// per-id errors.
//
// The batch holds the analyze-all form for its whole run, so individual
// watchlists inside it are not guarded again.
func (s *Service) AnalyzeWatchlists(ctx context.Context, ids []int64) ([]AnalyzeOutcome, error) {
	if err := s.requireAuth(ctx); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := validID(id); err != nil {
			return nil, err
		}
	}

	return guarded(ctx, s, formAnalyzeAll, func() ([]AnalyzeOutcome, error) {
		if len(ids) == 0 {
			lists, err := s.api.ListWatchlists(ctx)
			if err != nil {
				return nil, err //nolint:wrapcheck // client errors carry their own context
			}
			for _, w := range lists {
				ids = append(ids, w.ID)
			}
		}
		ids = uniqueIDs(ids)

		outcomes := make([]AnalyzeOutcome, len(ids))
		var g errgroup.Group
		g.SetLimit(s.analyzeConcurrency)
		for i, id := range ids {
			g.Go(func() error {
				res, err := s.analyzeOnce(ctx, id)
				outcomes[i] = AnalyzeOutcome{WatchlistID: id}
				if err != nil {
					outcomes[i].Err = err
					outcomes[i].Error = client.DisplayMessage(err)
					s.logger.Warn(ctx, "watchlist analysis failed", logger.Int("id", int(id)), logger.Error(err))
					return nil
				}
				outcomes[i].Analysis = &res
				return nil
			})
		}
		_ = g.Wait()
		return outcomes, nil
	})
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ListAnalyses lists stored analyses matching f.
func (s *Service) ListAnalyses(ctx context.Context, f model.AnalysisFilter) (model.AnalysisPage, error) {
	if err := f.Validate(); err != nil {
		return model.AnalysisPage{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.requireAuth(ctx); err != nil {
		return model.AnalysisPage{}, err
	}
	return guarded(ctx, s, formAnalyses, func() (model.AnalysisPage, error) {
		return s.api.ListAnalyses(ctx, f.Normalize())
	})
}

// GetAnalysis fetches one stored analysis.
func (s *Service) GetAnalysis(ctx context.Context, id int64) (model.Analysis, error) {
	if err := validID(id); err != nil {
		return model.Analysis{}, err
	}
	if err := s.requireAuth(ctx); err != nil {
		return model.Analysis{}, err
	}
	return guarded(ctx, s, formAnalysisGet(id), func() (model.Analysis, error) {
		return s.api.GetAnalysis(ctx, id)
	})
}

// Dashboard returns the per-user overview.
func (s *Service) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	if err := s.requireAuth(ctx); err != nil {
		return model.DashboardStats{}, err
	}
	return guarded(ctx, s, formDashboard, func() (model.DashboardStats, error) {
		return s.api.Dashboard(ctx)
	})
}

// ModelStatus reports which ML models are loaded.
func (s *Service) ModelStatus(ctx context.Context) (model.MLStatus, error) {
	if err := s.requireAuth(ctx); err != nil {
		return model.MLStatus{}, err
	}
	return guarded(ctx, s, formModelStatus, func() (model.MLStatus, error) {
		return s.api.ModelStatus(ctx)
	})
}

// TrainModels retrains the ML models.
func (s *Service) TrainModels(ctx context.Context) (model.TrainResult, error) {
	if err := s.requireAuth(ctx); err != nil {
		return model.TrainResult{}, err
	}
	return guarded(ctx, s, formTrain, func() (model.TrainResult, error) {
		return s.api.TrainModels(ctx)
	})
}

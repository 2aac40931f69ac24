// Package service provides the application service the command line
// drives: every dashboard operation, guarded, cached and annotated.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/trendscope/internal/adapters/cache"
	"github.com/okian/trendscope/internal/domain/inflight"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
	"github.com/okian/trendscope/pkg/logger"
)

// API is the part of the REST client the service calls.
type API interface {
	Search(ctx context.Context, req model.SearchRequest) (model.SearchResponse, error)
	Predict(ctx context.Context, keyword string) (model.Prediction, error)
	Insights(ctx context.Context, req model.InsightsRequest) ([]model.Insight, error)
	PublicTrend(ctx context.Context, keyword string, timeframe types.Timeframe, geo types.Geo, includeML bool) (model.PublicTrend, error)

	ListWatchlists(ctx context.Context) ([]model.Watchlist, error)
	CreateWatchlist(ctx context.Context, in model.WatchlistInput) (model.Watchlist, error)
	UpdateWatchlist(ctx context.Context, id int64, in model.WatchlistInput) (model.Watchlist, error)
	DeleteWatchlist(ctx context.Context, id int64) error
	AnalyzeWatchlist(ctx context.Context, id int64) (model.WatchlistAnalysis, error)

	ListAnalyses(ctx context.Context, f model.AnalysisFilter) (model.AnalysisPage, error)
	GetAnalysis(ctx context.Context, id int64) (model.Analysis, error)
	Dashboard(ctx context.Context) (model.DashboardStats, error)

	ModelStatus(ctx context.Context) (model.MLStatus, error)
	TrainModels(ctx context.Context) (model.TrainResult, error)
}

// Session is the authenticated state the service consults and changes.
type Session interface {
	Init(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	Username() string
	ExpiresAt() (time.Time, bool)

	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Refresh(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, p model.ProfileUpdate) (*model.User, error)
	Logout(ctx context.Context) error
}

// Service implements the dashboard operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	api     API
	session Session
	guard   inflight.Guard
	cache   *cache.SearchCache

	// Configuration
	defaultTimeframe   types.Timeframe
	defaultGeo         types.Geo
	insightsTimeframe  types.Timeframe
	analyzeConcurrency int
	topInsights        int
	cacheSize          int
	cacheTTL           time.Duration
	cacheFile          string

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGuard replaces the in-flight guard.
func WithGuard(g inflight.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithCache sizes the search cache. A zero size disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithCacheFile keeps the search cache in path between runs: it is loaded
// on Start and saved on Stop.
func WithCacheFile(path string) Option {
	return func(s *Service) {
		s.cacheFile = path
	}
}

// WithSearchDefaults sets the timeframe and geo used when a search omits them.
func WithSearchDefaults(timeframe types.Timeframe, geo types.Geo) Option {
	return func(s *Service) {
		if timeframe.Valid() {
			s.defaultTimeframe = timeframe
		}
		if geo.Valid() {
			s.defaultGeo = geo
		}
	}
}

// WithInsightsTimeframe sets the default timeframe of insight requests.
func WithInsightsTimeframe(timeframe types.Timeframe) Option {
	return func(s *Service) {
		if timeframe.Valid() {
			s.insightsTimeframe = timeframe
		}
	}
}

// WithAnalyzeConcurrency bounds how many watchlists are analyzed at once.
func WithAnalyzeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.analyzeConcurrency = n
		}
	}
}

// WithTopInsights sets how many insights an analysis export keeps.
func WithTopInsights(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topInsights = n
		}
	}
}

// New constructs a Service over api and sess.
func New(api API, sess Session, opts ...Option) *Service {
	s := &Service{
		api:                api,
		session:            sess,
		defaultTimeframe:   types.Timeframe12Months,
		defaultGeo:         "US",
		insightsTimeframe:  types.Timeframe3Months,
		analyzeConcurrency: 4,
		topInsights:        5,
		cacheSize:          128,
		cacheTTL:           time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.guard == nil {
		s.guard = inflight.NewGuard()
	}
	if s.cacheSize > 0 {
		s.cache = cache.New(s.cacheSize, s.cacheTTL)
	}
	return s
}

// Start restores the stored session and the saved search cache. A cache
// file that cannot be read is logged and ignored.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.session.Init(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	if s.cache != nil && s.cacheFile != "" {
		n, err := s.cache.LoadFile(s.cacheFile)
		if err != nil {
			s.logger.Warn(ctx, "ignoring saved search cache", logger.String("path", s.cacheFile), logger.Error(err))
		} else {
			s.logger.Debug(ctx, "search cache loaded", logger.Int("entries", n))
		}
	}

	s.started = true
	s.logger.Debug(ctx, "service started",
		logger.Bool("authenticated", s.session.IsAuthenticated(ctx)),
		logger.Int("analyzeConcurrency", s.analyzeConcurrency),
		logger.Int("cacheSize", s.cacheSize),
	)
	return nil
}

// Stop saves the search cache when a cache file is set, then drops it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.cache != nil {
		if s.cacheFile != "" {
			if err := s.cache.SaveFile(s.cacheFile); err != nil {
				s.logger.Warn(context.Background(), "could not save search cache", logger.String("path", s.cacheFile), logger.Error(err))
			}
		}
		s.cache.Purge()
	}
	s.started = false
	s.logger.Debug(context.Background(), "service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"inflight":           s.guard.Size(),
		"analyzeConcurrency": s.analyzeConcurrency,
		"username":           s.session.Username(),
	}
	if s.cache != nil {
		stats["cacheEntries"] = s.cache.Len()
	}
	return stats
}

// guarded runs fn as form. A form that already has a request outstanding is
// refused with ErrInFlight rather than queued.
func guarded[T any](ctx context.Context, s *Service, form string, fn func() (T, error)) (T, error) {
	if !s.guard.TryAcquire(ctx, form) {
		var zero T
		s.logger.Debug(ctx, "duplicate submission refused", logger.String("form", form))
		return zero, fmt.Errorf("%w: %s", ErrInFlight, form)
	}
	defer s.guard.Release(ctx, form)
	return fn()
}

// requireAuth fails fast when the endpoint needs a session and none is held.
func (s *Service) requireAuth(ctx context.Context) error {
	if !s.session.IsAuthenticated(ctx) {
		return ErrNotAuthenticated
	}
	return nil
}

// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...Option) initializer to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/trendscope/internal/domain/types"
)

// Output formats understood by the CLI.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Color modes understood by the CLI.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// BaseURL is the API root including the version prefix, e.g. "https://host/api/v1".
	BaseURL string `koanf:"base_url"`

	// TokenFile is where the session token is persisted between runs.
	TokenFile string `koanf:"token_file"`

	// RequestTimeoutMS bounds a single API call. Zero leaves the HTTP client default (no timeout).
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RateLimitRPS and RateLimitBurst throttle outgoing requests.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// CacheTTLSeconds and CacheSize bound the local search response cache.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`
	CacheSize       int `koanf:"cache_size"`

	// CacheFile keeps the search cache between runs. Empty means
	// search-cache.json next to TokenFile.
	CacheFile string `koanf:"cache_file"`

	// DefaultTimeframe and DefaultGeo are used when a search omits them.
	DefaultTimeframe string `koanf:"default_timeframe"`
	DefaultGeo       string `koanf:"default_geo"`

	// InsightsTimeframe is used when an insights request omits the timeframe.
	InsightsTimeframe string `koanf:"insights_timeframe"`

	// AnalyzeConcurrency caps parallel watchlist analyses.
	AnalyzeConcurrency int `koanf:"analyze_concurrency"`

	// TopInsights is the number of insights kept in a JSON export.
	TopInsights int `koanf:"top_insights"`

	// Output selects the CLI rendering: table, json, yaml.
	Output string `koanf:"output"`

	// Color controls colored CLI output: auto, always, never.
	Color string `koanf:"color"`

	// MetricsFile, when set, receives a Prometheus textfile on exit.
	MetricsFile string `koanf:"metrics_file"`
}

// Option overrides a single field; used for command-line flags.
type Option func(*Config)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		if u != "" {
			c.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithOutput overrides the output format.
func WithOutput(format string) Option {
	return func(c *Config) {
		if format != "" {
			c.Output = strings.ToLower(format)
		}
	}
}

// WithColor overrides the color mode.
func WithColor(mode string) Option {
	return func(c *Config) {
		if mode != "" {
			c.Color = strings.ToLower(mode)
		}
	}
}

// WithLogLevel overrides the log level.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.LogLevel = level
		}
	}
}

// New creates a Config with defaults and applies opts.
func New(opts ...Option) *Config {
	c := &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		BaseURL:            "http://localhost:5000/api/v1",
		TokenFile:          defaultTokenFile(),
		RequestTimeoutMS:   0,
		RateLimitRPS:       5,
		RateLimitBurst:     5,
		CacheTTLSeconds:    3600,
		CacheSize:          128,
		DefaultTimeframe:   string(types.Timeframe12Months),
		DefaultGeo:         "US",
		InsightsTimeframe:  string(types.Timeframe3Months),
		AnalyzeConcurrency: 4,
		TopInsights:        5,
		Output:             OutputTable,
		Color:              ColorAuto,
	}
	c.Apply(opts...)
	return c
}

// Apply mutates c with opts.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// RequestTimeout returns the configured per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// CacheTTL returns the configured cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SearchCacheFile returns where the search cache is kept between runs.
func (c *Config) SearchCacheFile() string {
	if c.CacheFile != "" {
		return c.CacheFile
	}
	return filepath.Join(filepath.Dir(c.TokenFile), "search-cache.json")
}

// Validate checks the configuration for values the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute URL, got %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("%w: token_file must not be empty", ErrInvalidConfig)
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("%w: request_timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limit values must not be negative", ErrInvalidConfig)
	}
	if c.CacheTTLSeconds < 0 || c.CacheSize < 0 {
		return fmt.Errorf("%w: cache values must not be negative", ErrInvalidConfig)
	}
	if _, err := types.ParseTimeframe(c.DefaultTimeframe); err != nil {
		return fmt.Errorf("%w: default_timeframe: %v", ErrInvalidConfig, err)
	}
	if _, err := types.ParseTimeframe(c.InsightsTimeframe); err != nil {
		return fmt.Errorf("%w: insights_timeframe: %v", ErrInvalidConfig, err)
	}
	if _, err := types.ParseGeo(c.DefaultGeo); err != nil {
		return fmt.Errorf("%w: default_geo: %v", ErrInvalidConfig, err)
	}
	if c.AnalyzeConcurrency < 1 {
		return fmt.Errorf("%w: analyze_concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.TopInsights < 0 {
		return fmt.Errorf("%w: top_insights must not be negative", ErrInvalidConfig)
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("%w: output must be table, json or yaml, got %q", ErrInvalidConfig, c.Output)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrInvalidConfig, c.Color)
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".trendscope", "credentials.json")
	}
	return filepath.Join(home, ".trendscope", "credentials.json")
}

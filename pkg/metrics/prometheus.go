// Package metrics provides Prometheus metrics for the trendscope client.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the trendscope client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// API Metrics - calls made against the trends service
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// Analysis Metrics - client side statistics
	patternsClassified *prometheus.CounterVec
	watchlistAnalyses  *prometheus.CounterVec
	exports            *prometheus.CounterVec

	// Cache Metrics
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheEntries prometheus.Gauge

	// Session and Form Metrics
	sessionEvents      *prometheus.CounterVec
	inflightRejections *prometheus.CounterVec
	inflightForms      prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trendscope",
		subsystem:        "client",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.apiRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "api_requests_total",
			Help:        "Total number of API requests by endpoint, method and status code",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.apiRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "api_request_duration_milliseconds",
			Help:        "API request round trip time in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Failed API requests by endpoint and error type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Failed API requests by error type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "error_latency_milliseconds",
			Help:        "Time spent on requests that ended in an error",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.patternsClassified = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "patterns_classified_total",
			Help:        "Trend series classified by the pattern analyzer, by trend type",
			ConstLabels: labels,
		},
		[]string{"trend_type"},
	)

	m.watchlistAnalyses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "watchlist_analyses_total",
			Help:        "Watchlist analyses requested, by outcome",
			ConstLabels: labels,
		},
		[]string{"status"},
	)

	m.exports = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "exports_total",
			Help:        "Exported artifacts by format",
			ConstLabels: labels,
		},
		[]string{"format"},
	)

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_hits_total",
		Help:        "Search responses served from the local cache",
		ConstLabels: labels,
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_misses_total",
		Help:        "Search lookups that had to reach the API",
		ConstLabels: labels,
	})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_entries",
		Help:        "Current number of cached search responses",
		ConstLabels: labels,
	})

	m.sessionEvents = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "session_events_total",
			Help:        "Session lifecycle events (login, logout, refresh, expired)",
			ConstLabels: labels,
		},
		[]string{"event"},
	)

	m.inflightRejections = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "inflight_rejections_total",
			Help:        "Submissions refused because the same form already had a request in flight",
			ConstLabels: labels,
		},
		[]string{"form"},
	)

	m.inflightForms = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "inflight_forms",
		Help:        "Forms with a request currently in flight",
		ConstLabels: labels,
	})
}

// RecordAPIRequest records a completed API request.
func (m *Manager) RecordAPIRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.apiRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.apiRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordAPIError records a failed API request.
func (m *Manager) RecordAPIError(endpoint, method, errorType, severity string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	m.errorLatency.WithLabelValues("http", errorType).Observe(durationMs)
}

// RecordPattern counts one classified trend series.
func (m *Manager) RecordPattern(trendType string) {
	if !m.enabled {
		return
	}
	m.patternsClassified.WithLabelValues(trendType).Inc()
}

// RecordAPIRequest records a completed API request on the global manager.
func RecordAPIRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordAPIRequest(endpoint, method, statusCode, durationMs)
}

// RecordAPIError records a failed API request on the global manager.
func RecordAPIError(endpoint, method, errorType, severity string, durationMs float64) {
	globalManager.RecordAPIError(endpoint, method, errorType, severity, durationMs)
}

// RecordPattern counts one classified trend series.
func RecordPattern(trendType string) {
	globalManager.RecordPattern(trendType)
}

// RecordWatchlistAnalysis counts a watchlist analysis by outcome ("success" or "failed").
func RecordWatchlistAnalysis(status string) {
	if globalManager.enabled {
		globalManager.watchlistAnalyses.WithLabelValues(status).Inc()
	}
}

// RecordExport counts an exported artifact.
func RecordExport(format string) {
	if globalManager.enabled {
		globalManager.exports.WithLabelValues(format).Inc()
	}
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

// UpdateCacheEntries sets the number of cached responses.
func UpdateCacheEntries(count int) {
	if globalManager.enabled {
		globalManager.cacheEntries.Set(float64(count))
	}
}

// RecordSessionEvent counts a session lifecycle event.
func RecordSessionEvent(event string) {
	if globalManager.enabled {
		globalManager.sessionEvents.WithLabelValues(event).Inc()
	}
}

// RecordInflightRejection counts a refused duplicate submission.
func RecordInflightRejection(form string) {
	if globalManager.enabled {
		globalManager.inflightRejections.WithLabelValues(form).Inc()
	}
}

// UpdateInflightForms sets the number of forms with an outstanding request.
func UpdateInflightForms(count int) {
	if globalManager.enabled {
		globalManager.inflightForms.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current contents of the custom registry to path in
// the text exposition format, for pickup by a node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}

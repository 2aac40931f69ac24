package client

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/trendscope/pkg/metrics"
)

// HTTP status code thresholds.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// metricsTransport records Prometheus metrics for every request it carries.
type metricsTransport struct {
	next     http.RoundTripper
	basePath string
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	endpoint := endpointTemplate(t.basePath, req.URL.Path)

	resp, err := t.next.RoundTrip(req)
	durationMs := float64(time.Since(start).Milliseconds())

	if err != nil {
		metrics.RecordAPIError(endpoint, req.Method, "transport", "high", durationMs)
		return nil, err //nolint:wrapcheck // http.Client wraps RoundTrip errors in *url.Error
	}

	metrics.RecordAPIRequest(endpoint, req.Method, strconv.Itoa(resp.StatusCode), durationMs)
	if resp.StatusCode >= statusBadRequest {
		metrics.RecordAPIError(endpoint, req.Method, getErrorType(resp.StatusCode), getErrorSeverity(resp.StatusCode), durationMs)
	}
	return resp, nil
}

// endpointTemplate strips the base path and replaces ids and free-form
// keywords so the endpoint label stays low-cardinality.
func endpointTemplate(basePath, path string) string {
	rest := strings.TrimPrefix(path, strings.TrimRight(basePath, "/"))
	segs := strings.Split(strings.Trim(rest, "/"), "/")
	for i, s := range segs {
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segs[i] = "{id}"
			continue
		}
		if i > 0 && segs[i-1] == "public" {
			segs[i] = "{keyword}"
		}
	}
	return "/" + strings.Join(segs, "/")
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "auth"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// Package client is the typed REST client for the trends API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/okian/trendscope/internal/adapters/repository"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/pkg/logger"
)

const (
	defaultUserAgent = "trendscope/1.0"
	maxResponseBytes = 8 << 20
	headerRequestID  = "X-Request-ID"
)

// Client talks to the /api/v1 surface. It never retries; every failure is
// returned to the caller as a *RequestError or an *APIError.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	tokens    repository.TokenStore
	limiter   *rate.Limiter
	log       logger.Logger
	userAgent string
	maxBody   int64
}

// New creates a client rooted at baseURL, for example
// "http://localhost:5000/api/v1".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      http.DefaultClient,
		log:       logger.Get(),
		userAgent: defaultUserAgent,
		maxBody:   maxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.http
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &metricsTransport{next: next, basePath: u.Path}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.http = &hc
	c.log = c.log.Named("client")
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// call describes one API request. Segments are joined under the base URL
// and escaped individually.
type call struct {
	method   string
	segments []string
	query    url.Values
	body     any
}

func (r call) op() string {
	return r.method + " /" + strings.Join(r.segments, "/")
}

func (c *Client) url(r call) string {
	u := *c.baseURL
	escaped := make([]string, len(r.segments))
	for i, s := range r.segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = c.baseURL.Path + "/" + strings.Join(r.segments, "/")
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.Join(escaped, "/")
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	return u.String()
}

// send performs r and decodes the envelope. The returned envelope has
// already been checked for failure.
func send[T any](ctx context.Context, c *Client, r call) (model.Envelope[T], error) {
	var env model.Envelope[T]
	op := r.op()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return env, &RequestError{Op: op, Err: err}
		}
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return env, &RequestError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r), body)
	if err != nil {
		return env, &RequestError{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed",
			logger.String("op", op),
			logger.String("request_id", requestID),
			logger.Error(err))
		return env, &RequestError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// One byte past the limit tells a body that fits from one that was cut.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return env, &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if int64(len(data)) > c.maxBody {
		c.log.Warn(ctx, "response too large",
			logger.String("op", op),
			logger.String("request_id", requestID),
			logger.Int("limit", int(c.maxBody)))
		return env, &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody)}
	}

	c.log.Debug(ctx, "request completed",
		logger.String("op", op),
		logger.String("request_id", requestID),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && len(bytes.TrimSpace(data)) == 0 {
		env.Success = true
		return env, nil
	}
	if err := json.Unmarshal(data, &env); err != nil {
		if ok {
			return env, &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return env, &RequestError{Op: op, Status: resp.StatusCode}
	}

	switch {
	case env.Error != "":
		return env, &APIError{Op: op, Status: resp.StatusCode, Message: env.Error, Details: env.Details}
	case !ok:
		return env, &RequestError{Op: op, Status: resp.StatusCode}
	case env.Failed():
		f := env.Failure()
		return env, &APIError{Op: op, Status: resp.StatusCode, Message: f.Message, Details: f.Details}
	}
	return env, nil
}

// fetch performs r and returns the typed data of a successful envelope.
func fetch[T any](ctx context.Context, c *Client, r call) (T, error) {
	env, err := send[T](ctx, c, r)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := env.Result()
	if err != nil {
		return v, &RequestError{Op: r.op(), Err: err}
	}
	return v, nil
}

// bearer reads the current token. A missing token sends the request
// unauthenticated and lets the server decide.
func (c *Client) bearer(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	t, err := c.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.log.Warn(ctx, "token store unreadable", logger.Error(err))
		}
		return ""
	}
	return t.AccessToken
}

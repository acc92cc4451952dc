// Package wfs queries OGC Web Feature Services (GeoServer flavour) with CQL
// filters, as published by the Berlin geodata infrastructure.
package wfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/OK-LG/berlin-open-data/internal/resilience"
)

const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultRetryDelay is the fixed pause before the retry.
	DefaultRetryDelay = 2 * time.Second
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 1
)

// Querier runs GetFeature queries. *Client implements it; adapters depend on
// the interface so tests can substitute it.
type Querier interface {
	Query(ctx context.Context, q Query) (*FeatureCollection, error)
}

// Query describes one GetFeature request.
type Query struct {
	Source        Source
	Filter        string   // CQL_FILTER, omitted when empty
	MaxFeatures   int      // count, omitted when <= 0
	PropertyNames []string // propertyName, omitted when empty
}

// AtPoint returns a query for features of src intersecting the EPSG:25833
// point (x, y).
func AtPoint(src Source, x, y float64, maxFeatures int) Query {
	return Query{
		Source:      src,
		Filter:      PointIntersects(src.GeometryColumn, x, y),
		MaxFeatures: maxFeatures,
	}
}

// QueryAtPoint runs a point intersection query for src through q.
func QueryAtPoint(ctx context.Context, q Querier, src Source, x, y float64, maxFeatures int) (*FeatureCollection, error) {
	return q.Query(ctx, AtPoint(src, x, y, maxFeatures))
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryDelay sets the fixed delay before a retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRateLimit throttles outbound requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithCircuitBreaker enables a circuit breaker per source. Each Query counts
// once, after its retry, and only transient failures trip it. A
// FailureThreshold of zero or less leaves the breaker disabled.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *Client) {
		if cfg.FailureThreshold <= 0 {
			c.breakers = nil
			return
		}
		if cfg.ShouldTrip == nil {
			cfg.ShouldTrip = resilience.IsTransient
		}
		c.breakers = resilience.NewServiceBreakers(cfg)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Client executes WFS queries with a per-attempt timeout and one fixed-delay
// retry. A circuit breaker per feature type is optional.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	retryDelay time.Duration
	maxRetries int
	limiter    *rate.Limiter
	breakers   *resilience.ServiceBreakers // nil when disabled
	userAgent  string
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:    DefaultTimeout,
		retryDelay: DefaultRetryDelay,
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(20, 20),
		userAgent:  "berlin-open-data/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildURL renders the GetFeature URL for q.
func BuildURL(q Query) string {
	params := url.Values{
		"service":      {"WFS"},
		"version":      {"2.0.0"},
		"request":      {"GetFeature"},
		"typenames":    {q.Source.TypeName},
		"outputFormat": {"application/json"},
	}
	if q.Filter != "" {
		params.Set("CQL_FILTER", q.Filter)
	}
	if q.MaxFeatures > 0 {
		params.Set("count", strconv.Itoa(q.MaxFeatures))
	}
	if len(q.PropertyNames) > 0 {
		params.Set("propertyName", strings.Join(q.PropertyNames, ","))
	}
	return q.Source.BaseURL + "?" + params.Encode()
}

// Query executes q. A timed-out attempt fails immediately with TIMEOUT; any
// other failure is retried after the fixed delay, and a final failure is
// reported as WFS_SERVICE_ERROR.
func (c *Client) Query(ctx context.Context, q Query) (*FeatureCollection, error) {
	reqURL := BuildURL(q)
	source := q.Source.TypeName
	start := time.Now()

	retryCfg := resilience.FixedDelay(c.maxRetries+1, c.retryDelay)
	retryCfg.ShouldRetry = func(err error) bool {
		return CodeOf(err) != CodeTimeout
	}
	onRetry := resilience.RetryLogger("wfs", source)
	retryCfg.OnRetry = func(attempt int, err error) {
		retriesTotal.WithLabelValues(source).Inc()
		onRetry(attempt, err)
	}

	query := func(ctx context.Context) (*FeatureCollection, error) {
		return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*FeatureCollection, error) {
			return c.fetch(ctx, reqURL)
		})
	}

	var fc *FeatureCollection
	var err error
	if c.breakers != nil {
		fc, err = resilience.ExecuteVal(ctx, c.breakers.Get(source), query)
	} else {
		fc, err = query(ctx)
	}
	requestDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		werr := classify(ctx, err)
		requestsTotal.WithLabelValues(source, string(werr.Code)).Inc()
		zap.L().Debug("wfs: query failed",
			zap.String("source", source),
			zap.String("code", string(werr.Code)),
			zap.Error(err),
		)
		return nil, werr
	}

	requestsTotal.WithLabelValues(source, "ok").Inc()
	return fc, nil
}

// BreakerStates reports the circuit state of every source queried so far.
// It is empty when the breaker is disabled.
func (c *Client) BreakerStates() map[string]resilience.CircuitState {
	if c.breakers == nil {
		return map[string]resilience.CircuitState{}
	}
	return c.breakers.States()
}

// fetch performs a single attempt bounded by the client timeout.
func (c *Client) fetch(ctx context.Context, reqURL string) (*FeatureCollection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "wfs: rate limit")
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "wfs: build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attemptTimedOut(ctx, attemptCtx) {
			return nil, &Error{Code: CodeTimeout, Message: "WFS request timed out", Err: err}
		}
		return nil, eris.Wrap(err, "wfs: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if attemptTimedOut(ctx, attemptCtx) {
			return nil, &Error{Code: CodeTimeout, Message: "WFS request timed out", Err: err}
		}
		return nil, eris.Wrap(err, "wfs: read body")
	}

	var fc FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, eris.Wrap(err, "wfs: parse response")
	}
	return &fc, nil
}

// attemptTimedOut reports whether the attempt context expired while the
// caller's context is still live.
func attemptTimedOut(parent, attempt context.Context) bool {
	return parent.Err() == nil && errors.Is(attempt.Err(), context.DeadlineExceeded)
}

// classify maps the final error of a query onto the error codes.
func classify(ctx context.Context, err error) *Error {
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "WFS request timed out", Err: err}
	}
	return &Error{Code: CodeServiceError, Message: rootMessage(err), Err: err}
}

// StatusError reports a non-2xx WFS response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("WFS request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// rootMessage prefers the HTTP status over the wrapped transport chain.
func rootMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

// Package client provides the TMDB HTTP client with bearer authentication,
// request pacing, and optional response revalidation through a cache.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/tmdb-sitemap/pkg/cache"
	"github.com/Sternrassler/tmdb-sitemap/pkg/ratelimit"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for TMDB client operations.
var (
	tmdbRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmdb_requests_total",
		Help: "Total TMDB requests by endpoint and status",
	}, []string{"endpoint", "status"})

	tmdbRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmdb_request_duration_seconds",
		Help:    "TMDB request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	tmdbErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmdb_errors_total",
		Help: "Total TMDB errors by class",
	}, []string{"class"})
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "tmdb-sitemap/1.0"

// Default request ceiling. The page fetchers pace themselves (two listings
// with five workers and a 250ms delay issue about 40 requests per second);
// the limiter sits above that and below TMDB's ~50 rps, and its burst covers
// the opening wave of both worker pools.
const (
	DefaultRateLimit = 48
	DefaultBurst     = 10
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// ResponseCache stores bodies for conditional revalidation. *cache.Manager
// implements it.
type ResponseCache interface {
	Get(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Set(ctx context.Context, key cache.Key, entry *cache.Entry) error
	UpdateTTL(ctx context.Context, key cache.Key, newExpires time.Time) error
}

// Config holds the client configuration.
type Config struct {
	// Token is the TMDB API read access token, sent as a bearer credential
	Token string

	UserAgent string

	// RateLimit is a requests/second ceiling shared by all requests of this
	// client, on top of the fetchers' own pacing (0 = unlimited)
	RateLimit float64
	Burst     int

	// Timeout bounds a single HTTP round trip
	Timeout time.Duration

	// Cache enables conditional requests; nil disables caching
	Cache ResponseCache
}

// DefaultConfig returns a configuration that stays below TMDB's documented
// ceiling of roughly 50 requests per second.
func DefaultConfig(token, userAgent string) Config {
	return Config{
		Token:     token,
		UserAgent: userAgent,
		RateLimit: DefaultRateLimit,
		Burst:     DefaultBurst,
		Timeout:   30 * time.Second,
	}
}

// Client is the TMDB API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      ResponseCache
	config     Config
	logger     zerolog.Logger
}

// New creates a new TMDB client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: ratelimit.NewLimiter(cfg.RateLimit, cfg.Burst),
		cache:   cfg.Cache,
		config:  cfg,
		logger:  log.With().Str("component", "tmdb-client").Logger(),
	}, nil
}

// Do performs exactly one HTTP round trip for req. Statuses >= 400 and
// transport failures are returned as *APIError. A 304 answer to a conditional
// request is replaced by the cached response.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		tmdbRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var (
		cacheKey    cache.Key
		cachedEntry *cache.Entry
	)
	if c.cache != nil {
		cacheKey = cache.KeyFromURL(req.URL)
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			cachedEntry = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}

		if cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Bool("stale", cachedEntry.IsExpired()).
				Msg("Making conditional request")
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", req.URL.RawQuery).
		Msg("Executing TMDB request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		tmdbErrorsTotal.WithLabelValues(string(errClass)).Inc()
		tmdbRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}

	tmdbRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		cache.NotModifiedResponses.Inc()
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")

		if err := c.cache.UpdateTTL(ctx, cacheKey, cache.ExpiryFromHeaders(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to update cache TTL")
		}
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if resp.StatusCode >= 400 {
		errClass := c.classifyError(resp, nil)
		tmdbErrorsTotal.WithLabelValues(string(errClass)).Inc()
		message := statusMessage(resp)
		resp.Body.Close()

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("TMDB request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    message,
		}
	}

	if resp.StatusCode == http.StatusOK && c.cache != nil && cache.Storable(resp.Header) {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.Revalidatable() {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("fresh_for", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// classifyError categorizes an error for observability.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// statusMessage extracts TMDB's status_message from an error body, falling
// back to the HTTP status text.
func statusMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(body) > 0 {
		var payload struct {
			StatusMessage string `json:"status_message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.StatusMessage != "" {
			return payload.StatusMessage
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

// Get performs a GET request against an absolute TMDB URL.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Package client fetches pages of the artwork collection over HTTP.
package client

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

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for page fetches.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_fetch_requests_total",
		Help: "Total collection page fetches by HTTP status",
	}, []string{"status"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "artsel_fetch_duration_seconds",
		Help:    "Collection page fetch duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_fetch_errors_total",
		Help: "Total collection page fetch errors by class",
	}, []string{"class"})
)

const maxErrorBody = 512

// Client fetches pages from the collection list endpoint.
// It never retries; callers decide what a failure means.
type Client struct {
	httpClient  *http.Client
	endpoint    *url.URL
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. "https://api.artic.edu/api/v1"
	BaseURL string

	// Collection is the list endpoint below BaseURL, e.g. "artworks"
	Collection string

	// UserAgent identifies the application to the API (REQUIRED)
	UserAgent string

	// Timeout bounds a single page fetch
	Timeout time.Duration

	// Fields restricts the returned record fields (empty = server default)
	Fields []string

	// RateLimit configures the request gate
	RateLimit ratelimit.Config
}

// DefaultConfig returns the configuration for the Art Institute of Chicago API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:    "https://api.artic.edu/api/v1",
		Collection: "artworks",
		UserAgent:  userAgent,
		Timeout:    15 * time.Second,
		Fields:     artwork.Fields,
		RateLimit:  ratelimit.DefaultConfig(),
	}
}

// New creates a new collection client. Fetch failures and rate limit
// decisions are logged to logger with component "collection-client".
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	endpoint := base.JoinPath(strings.Trim(cfg.Collection, "/"))

	logger = logger.With().Str("component", "collection-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:    endpoint,
		rateLimiter: ratelimit.NewTracker(cfg.RateLimit, logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// FetchPage retrieves one page of records and the total-count metadata.
// Every failure is a *FetchError matching ErrFetch.
func (c *Client) FetchPage(ctx context.Context, page, rows int) (*artwork.Page, error) {
	if page < 1 || rows < 1 {
		return nil, c.fail(&FetchError{
			Page:       page,
			ErrorClass: ErrorClassClient,
			Message:    fmt.Sprintf("invalid request page=%d rows=%d", page, rows),
			Err:        ErrInvalidPageRequest,
		})
	}

	startTime := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(startTime).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		class := ErrorClassNetwork
		if errors.Is(err, ratelimit.ErrRateLimited) {
			class = ErrorClassRateLimit
		}
		return nil, c.fail(&FetchError{
			Page:       page,
			ErrorClass: class,
			Message:    "request not sent",
			Err:        err,
		})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page, rows), nil)
	if err != nil {
		return nil, c.fail(&FetchError{Page: page, ErrorClass: ErrorClassClient, Message: "create request", Err: err})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("AIC-User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Int("page", page).
		Int("rows", rows).
		Msg("Fetching page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fetchRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, c.fail(&FetchError{Page: page, ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err})
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if err := c.rateLimiter.UpdateFromHeaders(resp.StatusCode, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := resp.Status
		if len(body) > 0 {
			msg = fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
		return nil, c.fail(&FetchError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    msg,
		})
	}

	var list artwork.ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, c.fail(&FetchError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response",
			Err:        err,
		})
	}

	result := list.ToPage(page)

	c.logger.Debug().
		Int("page", result.Number).
		Int("records", len(result.Records)).
		Int("total", result.Total).
		Dur("duration", time.Since(startTime)).
		Msg("Fetched page")

	return result, nil
}

// fail records metrics and logs for a fetch error.
func (c *Client) fail(err *FetchError) error {
	fetchErrorsTotal.WithLabelValues(string(err.ErrorClass)).Inc()
	c.logger.Warn().
		Int("page", err.Page).
		Int("status", err.StatusCode).
		Str("error_class", string(err.ErrorClass)).
		Err(err.Err).
		Msg(err.Message)
	return err
}

// pageURL builds the list endpoint URL for a page.
func (c *Client) pageURL(page, rows int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(rows))
	if len(c.config.Fields) > 0 {
		q.Set("fields", strings.Join(c.config.Fields, ","))
	}

	u := *c.endpoint
	u.RawQuery = q.Encode()
	return u.String()
}

// Endpoint returns the list endpoint URL without query parameters.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// RateLimiter returns the rate limit tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

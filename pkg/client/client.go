// Package client provides the HTTP page loader for the paged data source,
// with optional Redis-backed response caching and shared cooldown tracking.
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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/paged-select/pkg/cache"
	"github.com/Sternrassler/paged-select/pkg/pagination"
	"github.com/Sternrassler/paged-select/pkg/ratelimit"
)

// DefaultBaseURL is the Art Institute of Chicago artworks listing.
const DefaultBaseURL = "https://api.artic.edu/api/v1/artworks"

// DefaultFields limits the payload to what a Record carries.
var DefaultFields = []string{
	"id", "title", "place_of_origin", "artist_display", "inscriptions", "date_start", "date_end",
}

// Prometheus metrics for page fetches.
var (
	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesel_requests_total",
		Help: "Total page requests by HTTP status (or cache/cooldown outcome)",
	}, []string{"status"})

	pageRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagesel_request_duration_seconds",
		Help:    "Page request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesel_fetch_errors_total",
		Help: "Total failed page fetches by error class",
	}, []string{"class"})

	sharedFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagesel_shared_fetches_total",
		Help: "Page loads answered by an identical in-flight request",
	})
)

// Client loads pages from a `page`/`limit` listing endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
	cache      *cache.Manager
	cooldown   *ratelimit.Tracker
	group      singleflight.Group
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the listing endpoint; page and limit are added as query params.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Redis enables the page response cache and shared cooldown tracking.
	// Optional.
	Redis *redis.Client

	// Fields requested from the source (sent as `fields=`). Empty requests all.
	Fields []string

	// MaxPageSize is the largest limit the source accepts.
	MaxPageSize int

	// Timeout is the transport timeout for a single request.
	Timeout time.Duration
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:     baseURL,
		UserAgent:   userAgent,
		Fields:      DefaultFields,
		MaxPageSize: 100,
		Timeout:     30 * time.Second,
	}
}

// New creates a new page client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxPageSize <= 0 {
		return nil, fmt.Errorf("max_page_size must be > 0 (got %d)", cfg.MaxPageSize)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "page-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
		c.cooldown = ratelimit.NewTracker(cfg.Redis, logger)
	}

	return c, nil
}

// LoadPage implements pagination.PageLoader. Identical concurrent requests
// share one round trip. Failures are returned as *FetchError and never retried.
func (c *Client) LoadPage(ctx context.Context, page, pageSize int) (*pagination.Page, error) {
	if err := pagination.ValidateRequest(page, pageSize); err != nil {
		return nil, err
	}
	if pageSize > c.config.MaxPageSize {
		return nil, fmt.Errorf("%w: page size %d exceeds maximum %d",
			pagination.ErrInvalidPageRequest, pageSize, c.config.MaxPageSize)
	}

	// The shared fetch must outlive any single caller; the HTTP client
	// timeout still bounds it.
	key := strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetchPage(context.WithoutCancel(ctx), page, pageSize)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &FetchError{
			Page:    page,
			Limit:   pageSize,
			Class:   ErrorClassNetwork,
			Message: "request cancelled",
			Err:     ctx.Err(),
		}
	}
	if res.Err != nil {
		return nil, res.Err
	}

	p := res.Val.(*pagination.Page)
	if res.Shared {
		sharedFetchesTotal.Inc()
		// callers own their page
		cp := *p
		cp.Records = append([]pagination.Record(nil), p.Records...)
		p = &cp
	}
	return p, nil
}

// envelope is the listing response body.
type envelope struct {
	Data       []pagination.Record `json:"data"`
	Pagination struct {
		Total       int `json:"total"`
		Limit       int `json:"limit"`
		Offset      int `json:"offset"`
		TotalPages  int `json:"total_pages"`
		CurrentPage int `json:"current_page"`
	} `json:"pagination"`
}

func (c *Client) fetchPage(ctx context.Context, page, pageSize int) (*pagination.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(page, pageSize), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		if fe, ok := AsFetchError(err); ok {
			fe.Page, fe.Limit = page, pageSize
		}
		return nil, err
	}
	defer resp.Body.Close()

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &FetchError{
			Page:       page,
			Limit:      pageSize,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "decode response body",
			Err:        err,
		}
	}

	c.logger.Debug().
		Int("page", page).
		Int("limit", pageSize).
		Int("records", len(body.Data)).
		Int("total", body.Pagination.Total).
		Bool("cache_hit", resp.Header.Get("X-Cache") == "HIT").
		Msg("Page loaded")

	return &pagination.Page{
		Number:  page,
		Size:    pageSize,
		Total:   body.Pagination.Total,
		Records: body.Data,
	}, nil
}

// PageURL builds the listing URL for a page.
func (c *Client) PageURL(page, pageSize int) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))
	if len(c.config.Fields) > 0 {
		q.Set("fields", strings.Join(c.config.Fields, ","))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Do performs a single HTTP request with cooldown gating and caching.
// Non-success answers and transport failures are returned as *FetchError.
// On success the caller must close the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	startTime := time.Now()
	defer func() {
		pageRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check cooldown
	if c.cooldown != nil {
		allowed, err := c.cooldown.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Cooldown check failed, proceeding")
		} else if !allowed {
			pageRequestsTotal.WithLabelValues("cooldown").Inc()
			fetchErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return nil, &FetchError{
				StatusCode: http.StatusTooManyRequests,
				Class:      ErrorClassRateLimit,
				Message:    "request held back",
				Err:        ErrCooldownActive,
			}
		}
	}

	// Step 2: Check cache
	cacheKey := cache.KeyFromURL(req.URL)
	var cached *cache.CacheEntry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil && !entry.IsExpired():
			pageRequestsTotal.WithLabelValues("cache").Inc()
			c.logger.Debug().Str("key", cacheKey.String()).Msg("Serving fresh cached page")
			return cache.EntryToResponse(entry), nil
		case err == nil && entry.CanRevalidate():
			cached = entry
			cache.AddConditionalHeaders(req, entry)
			c.logger.Debug().
				Str("key", cacheKey.String()).
				Str("etag", entry.ETag).
				Msg("Revalidating stale cached page")
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("key", cacheKey.String()).Msg("Cache get error")
		}
	}

	// Step 3: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	// Step 4: Execute once, no retries
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", req.URL.Redacted()).Msg("Page request failed")
		pageRequestsTotal.WithLabelValues("network_error").Inc()
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &FetchError{
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	pageRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if c.cooldown != nil {
		if err := c.cooldown.UpdateFromResponse(ctx, resp); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record cooldown")
		}
	}

	// Step 5: 304 Not Modified refreshes the cached entry
	if resp.StatusCode == http.StatusNotModified && cached != nil {
		drain(resp)
		cache.Revalidated.Inc()
		if expires, store := cache.Freshness(resp.Header, time.Now()); store {
			if err := c.cache.UpdateTTL(ctx, cacheKey, expires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
			}
		}
		return cache.EntryToResponse(cached), nil
	}

	// Step 6: Everything else outside 2xx is a failure
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		class := classifyStatus(resp.StatusCode)
		fetchErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("url", req.URL.Redacted()).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Page request unsuccessful")
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	// Step 7: Store successful responses
	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		case entry != nil:
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			}
		}
	}

	return resp, nil
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

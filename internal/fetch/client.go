package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

// DefaultDataSource is sent as X-Data-Source when no app version is configured.
const DefaultDataSource = "live"

// ErrNoEndpoint is returned by New without an endpoint.
var ErrNoEndpoint = errors.New("suggestion endpoint not configured")

// StatusError is a non-2xx answer from the suggestion service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("suggestion service returned HTTP %d", e.Code)
}

// Config configures the suggestion client.
type Config struct {
	Endpoint   string
	WebsiteID  string
	AppVersion string
	Timeout    time.Duration
	// RPS limits outgoing requests; zero or less means unlimited.
	RPS          float64
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// TripAfter consecutive server failures open the breaker.
	TripAfter uint32
	UserAgent string
}

// Observer receives the outcome of every request sent.
type Observer interface {
	ObserveFetch(status string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, time.Duration) {}

// Client fetches suggestion batches for pages.
type Client struct {
	cfg      Config
	resty    *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	group    singleflight.Group
	logger   *zap.Logger
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a client. Retries of connection errors and 5xx answers happen in
// the transport; the breaker sees one result per fetch.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = DefaultDataSource
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 500 * time.Millisecond
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = 5 * time.Second
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pagepatch/1.0"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(cfg.RPS)))
	}

	c := &Client{
		cfg:      cfg,
		resty:    restyClient,
		limiter:  limiter,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = resilience.New("suggestions", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripAfter
		},
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c, nil
}

// BreakerState returns the state of the service circuit breaker.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Suggestions returns the batch for pageURL after removing tracking
// parameters. Concurrent calls for the same cleaned URL share one request,
// which runs detached from any one caller's cancellation and is bounded by
// the client timeout. Each caller still returns when its own ctx is done.
func (c *Client) Suggestions(ctx context.Context, pageURL string) (*suggestion.Batch, error) {
	page := CleanURL(pageURL)
	ch := c.group.DoChan(page, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		return c.fetch(shared, page)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*suggestion.Batch), nil
	}
}

func (c *Client) fetch(ctx context.Context, page string) (*suggestion.Batch, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"website_id": c.cfg.WebsiteID,
				"page_id":    page,
			}).
			SetHeader("X-Data-Source", c.cfg.AppVersion).
			Get(c.cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		// only server failures count against the breaker
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, &StatusError{Code: resp.StatusCode()}
		}
		return resp, nil
	})
	if err != nil {
		c.observer.ObserveFetch(statusLabel(resp), time.Since(start))
		c.logger.Warn("Failed to fetch suggestions", zap.String("page", page), zap.Error(err))
		return nil, fmt.Errorf("fetch suggestions: %w", err)
	}
	c.observer.ObserveFetch(statusLabel(resp), time.Since(start))

	if resp.IsError() {
		return nil, fmt.Errorf("fetch suggestions: %w", &StatusError{Code: resp.StatusCode()})
	}

	batch, err := suggestion.Decode(resp.Body())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched suggestions",
		zap.String("page", page),
		zap.Int("count", len(batch.Suggestions)),
		zap.Int("rejected", len(batch.Rejected)))
	return batch, nil
}

func statusLabel(resp *resty.Response) string {
	if resp == nil || resp.RawResponse == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode())
}

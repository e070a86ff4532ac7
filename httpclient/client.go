// Package httpclient is the HTTP client used for every outbound request that
// carries a URL not written in source code.
//
// Before a request is sent, the URL is checked with urlutil.ValidateURL and the
// bearer token from the TokenProvider is checked with
// security.ValidateAccessToken. Requests are smoothed per host with a token
// bucket, guarded per host by a circuit breaker, and retried on 5xx responses
// and network errors with exponential backoff. Redirects are validated the same
// way as the original URL.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
	"github.com/jongio/demo-builder-core/security"
	"github.com/jongio/demo-builder-core/urlutil"
)

const (
	// DefaultMaxResponseSize caps response bodies when RequestOptions does not.
	DefaultMaxResponseSize int64 = 100 * 1024 * 1024

	// DefaultHostRateLimit is the sustained requests per second allowed per host.
	DefaultHostRateLimit = 10

	// DefaultBreakerFailures is the minimum number of requests in a window before
	// the breaker may open.
	DefaultBreakerFailures = 5

	defaultBreakerTimeout = 60 * time.Second
	defaultBaseBackoff    = 100 * time.Millisecond
	maxRedirects          = 10
)

var log = logutil.NewLogger("httpclient")

var errServerStatus = errors.New("server error status")

// TokenProvider supplies bearer tokens, typically by asking the external auth
// CLI.
type TokenProvider interface {
	GetToken(ctx context.Context, scope string) (string, error)
}

// RequestOptions describes one request.
type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	// Scope is passed to the TokenProvider.
	Scope string
	// SkipAuth sends the request without an Authorization header.
	SkipAuth bool
	// Retry is the number of retries after the first attempt.
	Retry int
	// MaxResponseSize defaults to DefaultMaxResponseSize.
	MaxResponseSize int64
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithAllowedProtocols overrides the URL protocol allow-list (https by default).
func WithAllowedProtocols(protocols ...string) Option {
	return func(c *Client) { c.allowedProtocols = protocols }
}

// WithHostRateLimit sets the sustained requests per second per host. Zero or
// negative disables host rate limiting.
func WithHostRateLimit(rps int) Option {
	return func(c *Client) { c.hostRateLimit = rps }
}

// WithCircuitBreaker configures the per-host breaker. A negative failures value
// disables it.
func WithCircuitBreaker(failures int, timeout time.Duration) Option {
	return func(c *Client) {
		c.breakerFailures = failures
		if timeout > 0 {
			c.breakerTimeout = timeout
		}
	}
}

// Client sends validated, rate limited and retried HTTP requests.
type Client struct {
	provider   TokenProvider
	debug      bool
	httpClient *http.Client

	allowedProtocols []string
	allowLoopback    bool
	hostRateLimit    int
	breakerFailures  int
	breakerTimeout   time.Duration
	baseBackoff      time.Duration

	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

// NewClient creates a Client. provider may be nil if every request sets
// SkipAuth.
func NewClient(provider TokenProvider, debug bool, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		provider:         provider,
		debug:            debug,
		allowedProtocols: urlutil.DefaultAllowedProtocols,
		hostRateLimit:    DefaultHostRateLimit,
		breakerFailures:  DefaultBreakerFailures,
		breakerTimeout:   defaultBreakerTimeout,
		baseBackoff:      defaultBaseBackoff,
		breakers:         make(map[string]*gobreaker.CircuitBreaker),
		limiters:         make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if err := c.validateURL(req.URL.String()); err != nil {
				return fmt.Errorf("redirect rejected: %w", err)
			}
			return nil
		},
	}
	return c
}

func (c *Client) validateURL(raw string) error {
	if c.allowLoopback {
		if u, err := url.Parse(raw); err == nil && urlutil.ClassifyHost(u.Hostname()) == urlutil.HostLoopback {
			return nil
		}
	}
	err := urlutil.ValidateURL(raw, c.allowedProtocols...)
	if err != nil {
		metrics.RecordValidationRejection(urlutil.FieldURL, security.KindName(err))
	}
	return err
}

// Execute validates and sends the request, retrying as configured. A 5xx
// response that survives all retries is returned without an error; callers
// inspect StatusCode.
func (c *Client) Execute(ctx context.Context, opts RequestOptions) (*Response, error) {
	if err := c.validateURL(opts.URL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(opts.URL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	host := u.Host

	var token string
	if !opts.SkipAuth {
		if c.provider == nil {
			return nil, errors.New("no token provider configured")
		}
		token, err = c.provider.GetToken(ctx, opts.Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}
		if err := security.ValidateAccessToken(token); err != nil {
			metrics.RecordValidationRejection(security.FieldAccessToken, security.KindName(err))
			return nil, fmt.Errorf("access token rejected: %w", err)
		}
	}

	if limiter := c.getOrCreateRateLimiter(host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", host, err)
		}
	}

	breaker := c.getOrCreateCircuitBreaker(host)
	if breaker == nil {
		return c.doWithRetry(ctx, u, opts, token)
	}

	out, err := breaker.Execute(func() (interface{}, error) {
		resp, err := c.doWithRetry(ctx, u, opts, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	resp, _ := out.(*Response)
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerStatus) && resp != nil:
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, err)
	default:
		return nil, err
	}
}

func (c *Client) doWithRetry(ctx context.Context, u *url.URL, opts RequestOptions, token string) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	maxSize := opts.MaxResponseSize
	if maxSize <= 0 {
		maxSize = DefaultMaxResponseSize
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, method, u, opts, token, maxSize)
		retriesLeft := attempt < opts.Retry && ctx.Err() == nil

		switch {
		case err != nil && retriesLeft && isRetryableError(err):
			log.Debug("request failed, retrying", "host", u.Host, "attempt", attempt+1, "error", err)
		case err != nil:
			return nil, err
		case resp.StatusCode >= 500 && retriesLeft:
			log.Debug("server error, retrying", "host", u.Host, "status", resp.StatusCode, "attempt", attempt+1)
		default:
			return resp, nil
		}

		backoff := c.baseBackoff << attempt
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, opts RequestOptions, token string, maxSize int64) (*Response, error) {
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordHTTPRequest(u.Host, 0, time.Since(start))
		return nil, fmt.Errorf("request to %s failed: %w", u.Host, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxSize+1))
	metrics.RecordHTTPRequest(u.Host, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("response body exceeds maximum size of %d bytes", maxSize)
	}

	if c.debug {
		log.Info("http request", "method", method, "host", u.Host, "status", httpResp.StatusCode, "bytes", len(data))
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

// getOrCreateCircuitBreaker gets or creates a circuit breaker for a host.
func (c *Client) getOrCreateCircuitBreaker(host string) *gobreaker.CircuitBreaker {
	if c.breakerFailures < 0 {
		return nil
	}

	c.mu.RLock()
	breaker, exists := c.breakers[host]
	c.mu.RUnlock()
	if exists {
		return breaker
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if breaker, exists := c.breakers[host]; exists {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        host,
		MaxRequests: 3,
		Interval:    c.breakerTimeout,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(c.breakerFailures) && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "host", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to)
		},
	}

	breaker = gobreaker.NewCircuitBreaker(settings)
	c.breakers[host] = breaker
	return breaker
}

// getOrCreateRateLimiter gets or creates a token bucket for a host.
func (c *Client) getOrCreateRateLimiter(host string) *rate.Limiter {
	if c.hostRateLimit <= 0 {
		return nil
	}

	c.mu.RLock()
	limiter, exists := c.limiters[host]
	c.mu.RUnlock()
	if exists {
		return limiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if limiter, exists := c.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(c.hostRateLimit), c.hostRateLimit*2)
	c.limiters[host] = limiter
	return limiter
}

// isRetryableError reports whether err is a transient network failure.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"deadline exceeded",
		"timeout",
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"eof",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongio/demo-builder-core/security"
	"github.com/jongio/demo-builder-core/testutil"
)

var validToken = testutil.AccessToken(80)

// newLocalClient returns a client that accepts httptest's http://127.0.0.1 URLs.
func newLocalClient(provider TokenProvider, timeout time.Duration, opts ...Option) *Client {
	c := NewClient(provider, false, timeout, opts...)
	c.allowLoopback = true
	c.baseBackoff = 10 * time.Millisecond
	return c
}

func TestClient_Execute_RetryOn5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second)

	resp, err := client.Execute(context.Background(), RequestOptions{
		Method:   http.MethodGet,
		URL:      server.URL + "/test",
		SkipAuth: true,
		Retry:    3,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"success":true}`, string(resp.Body))
	assert.Equal(t, int32(3), attempts.Load(), "Should have retried 2 times (3 total attempts)")
}

func TestClient_Execute_ExhaustedRetriesReturnLast5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second, WithCircuitBreaker(-1, 0))

	resp, err := client.Execute(context.Background(), RequestOptions{
		URL:      server.URL,
		SkipAuth: true,
		Retry:    2,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_Execute_RetryOnNetworkError(t *testing.T) {
	client := NewClient(nil, false, 200*time.Millisecond)
	client.baseBackoff = 10 * time.Millisecond

	_, err := client.Execute(context.Background(), RequestOptions{
		Method:   http.MethodGet,
		URL:      "https://192.0.2.0/invalid", // TEST-NET-1, never answers
		SkipAuth: true,
		Retry:    2,
	})

	assert.Error(t, err)
}

func TestClient_Execute_NoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second)

	resp, err := client.Execute(context.Background(), RequestOptions{
		Method:   http.MethodGet,
		URL:      server.URL + "/test",
		SkipAuth: true,
		Retry:    3,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load(), "Should not retry on 4xx errors")
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "deadline exceeded", err: fmt.Errorf("context deadline exceeded"), expected: true},
		{name: "wrapped deadline", err: fmt.Errorf("request: %w", context.DeadlineExceeded), expected: true},
		{name: "connection refused", err: fmt.Errorf("dial tcp: connection refused"), expected: true},
		{name: "network unreachable", err: fmt.Errorf("network is unreachable"), expected: true},
		{name: "connection reset", err: fmt.Errorf("read: connection reset by peer"), expected: true},
		{name: "other error", err: fmt.Errorf("invalid argument"), expected: false},
		{name: "validation error", err: security.Rejected("URL", "not allowed"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableError(tt.err))
		})
	}
}

func TestClient_Execute_ResponseSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second)

	_, err := client.Execute(context.Background(), RequestOptions{
		URL:             server.URL,
		SkipAuth:        true,
		MaxResponseSize: 1024,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}

func TestClient_Execute_ResponseSizeWithinLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second)

	resp, err := client.Execute(context.Background(), RequestOptions{
		URL:             server.URL,
		SkipAuth:        true,
		MaxResponseSize: 1024,
	})

	require.NoError(t, err)
	assert.Len(t, resp.Body, 1024)
}

func TestClient_Execute_RetryExponentialBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second)
	client.baseBackoff = 50 * time.Millisecond

	start := time.Now()
	resp, err := client.Execute(context.Background(), RequestOptions{
		URL:      server.URL,
		SkipAuth: true,
		Retry:    3,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// 50ms then 100ms
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestClient_Execute_RejectsUnsafeURLs(t *testing.T) {
	client := NewClient(nil, false, time.Second)

	tests := []struct {
		name string
		url  string
	}{
		{name: "private network", url: "https://10.0.0.1/api"},
		{name: "localhost", url: "https://localhost/api"},
		{name: "cloud metadata", url: "https://169.254.169.254/latest/meta-data/"},
		{name: "plain http", url: "http://example.com/"},
		{name: "file protocol", url: "file:///etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Execute(context.Background(), RequestOptions{URL: tt.url, SkipAuth: true})
			require.Error(t, err)
			assert.ErrorIs(t, err, security.ErrSecurityRejection)
		})
	}
}

func TestClient_Execute_AllowedProtocolsOption(t *testing.T) {
	client := NewClient(nil, false, time.Second, WithAllowedProtocols("http", "https"))

	_, err := client.Execute(context.Background(), RequestOptions{URL: "http://192.168.1.10/", SkipAuth: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local/private networks")
}

func TestClient_Execute_SendsValidatedToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := &MockTokenProvider{Token: validToken}
	client := newLocalClient(provider, 30*time.Second)

	resp, err := client.Execute(context.Background(), RequestOptions{
		URL:     server.URL,
		Scope:   "commerce",
		Headers: map[string]string{"X-Api-Key": "demo"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer "+validToken, gotAuth)
	assert.Equal(t, []string{"commerce"}, provider.Scopes())
}

func TestClient_Execute_RejectsMalformedToken(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}))
	defer server.Close()

	tests := []struct {
		name  string
		token string
		kind  error
	}{
		{name: "too short", token: "eyJabc", kind: security.ErrInvalidInput},
		{name: "not a jwt", token: strings.Repeat("x", 60), kind: security.ErrInvalidInput},
		{name: "shell metacharacters", token: "eyJ" + strings.Repeat("a", 60) + ";rm -rf /", kind: security.ErrSecurityRejection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newLocalClient(&MockTokenProvider{Token: tt.token}, time.Second)
			_, err := client.Execute(context.Background(), RequestOptions{URL: server.URL})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Zero(t, attempts.Load(), "no request should be sent with a rejected token")
}

func TestClient_Execute_TokenProviderError(t *testing.T) {
	providerErr := errors.New("not logged in")
	client := newLocalClient(&MockTokenProvider{Error: providerErr}, time.Second)

	_, err := client.Execute(context.Background(), RequestOptions{URL: "http://127.0.0.1:1/"})
	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)
}

func TestClient_Execute_NoProvider(t *testing.T) {
	client := newLocalClient(nil, time.Second)

	_, err := client.Execute(context.Background(), RequestOptions{URL: "http://127.0.0.1:1/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token provider")
}

func TestClient_Execute_CircuitBreakerOpens(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second, WithCircuitBreaker(2, time.Minute))
	opts := RequestOptions{URL: server.URL, SkipAuth: true}

	for range 2 {
		resp, err := client.Execute(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}

	_, err := client.Execute(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), attempts.Load())
}

func TestClient_Execute_RedirectIsValidated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://10.0.0.1/admin", http.StatusFound)
	}))
	defer server.Close()

	client := newLocalClient(nil, 5*time.Second)

	_, err := client.Execute(context.Background(), RequestOptions{URL: server.URL, SkipAuth: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, security.ErrSecurityRejection)
	assert.Contains(t, err.Error(), "redirect rejected")
}

func TestClient_Execute_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newLocalClient(nil, 30*time.Second, WithCircuitBreaker(-1, 0))
	client.baseBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Execute(ctx, RequestOptions{URL: server.URL, SkipAuth: true, Retry: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_HostRateLimiterShared(t *testing.T) {
	client := NewClient(nil, false, time.Second, WithHostRateLimit(5))

	a := client.getOrCreateRateLimiter("api.example.com")
	b := client.getOrCreateRateLimiter("api.example.com")
	c := client.getOrCreateRateLimiter("other.example.com")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)

	disabled := NewClient(nil, false, time.Second, WithHostRateLimit(0))
	assert.Nil(t, disabled.getOrCreateRateLimiter("api.example.com"))
}

// Package metrics exposes Prometheus metrics for locks, rate limits, validation
// rejections, process cleanup and outbound HTTP calls.
//
// Recording is off by default. Call Enable(true) once at startup (the CLI does
// this when metrics.enabled is set in config) and serve the registry with
// CreateMetricsServer.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

var enabled atomic.Bool

var (
	lockWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demo_builder_lock_wait_seconds",
			Help:    "Time spent waiting to acquire a resource lock",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"resource"},
	)

	rateLimitWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demo_builder_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a free rate limit slot",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2},
		},
		[]string{"resource"},
	)

	validationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demo_builder_validation_rejections_total",
			Help: "Inputs rejected by validation, by field and error kind",
		},
		[]string{"field", "kind"},
	)

	processKills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demo_builder_process_kills_total",
			Help: "Process tree terminations by outcome",
		},
		[]string{"outcome"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demo_builder_http_request_duration_seconds",
			Help:    "Duration of outbound HTTP requests in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"host", "status_code"},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "demo_builder_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"host"},
	)
)

// Enable turns metric recording on or off.
func Enable(on bool) {
	enabled.Store(on)
}

// Enabled reports whether metric recording is on.
func Enabled() bool {
	return enabled.Load()
}

// RecordLockWait records how long a caller queued for a resource lock.
func RecordLockWait(resource string, d time.Duration) {
	if !enabled.Load() {
		return
	}
	lockWaitDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// RecordRateLimitWait records how long a caller was delayed by the rate limiter.
func RecordRateLimitWait(resource string, d time.Duration) {
	if !enabled.Load() {
		return
	}
	rateLimitWaitDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// RecordValidationRejection counts a rejected input. kind is "invalid_input" or
// "security_rejection".
func RecordValidationRejection(field, kind string) {
	if !enabled.Load() {
		return
	}
	validationRejections.WithLabelValues(field, kind).Inc()
}

// RecordProcessKill counts a finished process tree termination.
func RecordProcessKill(outcome string) {
	if !enabled.Load() {
		return
	}
	processKills.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an outbound request. statusCode is 0 when no
// response was received.
func RecordHTTPRequest(host string, statusCode int, d time.Duration) {
	if !enabled.Load() {
		return
	}
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	httpRequestDuration.WithLabelValues(host, code).Observe(d.Seconds())
}

// RecordCircuitBreakerState records the state of the breaker for host.
func RecordCircuitBreakerState(host string, state gobreaker.State) {
	if !enabled.Load() {
		return
	}
	var value float64
	switch state {
	case gobreaker.StateClosed:
		value = 0
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	circuitBreakerState.WithLabelValues(host).Set(value)
}

// ServeMetrics starts a Prometheus metrics HTTP server.
func ServeMetrics(port int) error {
	server := CreateMetricsServer(port)
	return server.ListenAndServe()
}

// CreateMetricsServer creates a configured HTTP server for Prometheus metrics.
func CreateMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

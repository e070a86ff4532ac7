package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingDisabledByDefault(t *testing.T) {
	Enable(false)

	before := testutil.ToFloat64(processKills.WithLabelValues("exited"))
	RecordProcessKill("exited")
	assert.Equal(t, before, testutil.ToFloat64(processKills.WithLabelValues("exited")))
}

func TestRecordWhenEnabled(t *testing.T) {
	Enable(true)
	t.Cleanup(func() { Enable(false) })
	require.True(t, Enabled())

	before := testutil.ToFloat64(validationRejections.WithLabelValues("project ID", "security_rejection"))
	RecordValidationRejection("project ID", "security_rejection")
	assert.Equal(t, before+1, testutil.ToFloat64(validationRejections.WithLabelValues("project ID", "security_rejection")))

	RecordProcessKill("forced")
	RecordLockWait("adobe-cli", 10*time.Millisecond)
	RecordRateLimitWait("adobe-cli", time.Second)
	RecordHTTPRequest("example.com", 0, time.Millisecond)
	RecordHTTPRequest("example.com", 200, time.Millisecond)

	RecordCircuitBreakerState("example.com", gobreaker.StateOpen)
	assert.Equal(t, float64(2), testutil.ToFloat64(circuitBreakerState.WithLabelValues("example.com")))
	RecordCircuitBreakerState("example.com", gobreaker.StateHalfOpen)
	assert.Equal(t, float64(1), testutil.ToFloat64(circuitBreakerState.WithLabelValues("example.com")))
}

func TestCreateMetricsServer(t *testing.T) {
	server := CreateMetricsServer(9091)
	assert.Equal(t, ":9091", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

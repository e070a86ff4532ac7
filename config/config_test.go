package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvProjectsRoot, EnvRateLimit, EnvGracefulTimeout, EnvAllowedProtocols, "DEMO_BUILDER_DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProjectsRoot, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.GracefulTimeout)
	assert.Equal(t, []string{"https"}, cfg.AllowedProtocols)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), FileName)
	content := `projectsRoot: /srv/demo-builder/projects
rateLimit: 3
gracefulTimeout: 250ms
allowedProtocols: [http, https]
http:
  timeout: 5s
  retry: 1
  circuitBreakerFailures: 2
auth:
  tokenCommand: [aio, config, get, token]
metrics:
  enabled: true
  port: 9191
log:
  json: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/demo-builder/projects", cfg.ProjectsRoot)
	assert.Equal(t, 3, cfg.RateLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.GracefulTimeout)
	assert.Equal(t, []string{"http", "https"}, cfg.AllowedProtocols)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1, cfg.HTTP.Retry)
	assert.Equal(t, 2, cfg.HTTP.CircuitBreakerFailures)
	assert.Equal(t, []string{"aio", "config", "get", "token"}, cfg.Auth.TokenCommand)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.True(t, cfg.Log.JSON)
	assert.False(t, cfg.Log.Debug)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("projectsRoot: /tmp/p\nrateLimit: 4\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.GracefulTimeout)
	assert.Equal(t, 3, cfg.HTTP.Retry)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("projectsRoot: /from/file\nrateLimit: 3\n"), 0o600))

	t.Setenv(EnvProjectsRoot, "/from/env")
	t.Setenv(EnvRateLimit, "7")
	t.Setenv(EnvGracefulTimeout, "2s")
	t.Setenv(EnvAllowedProtocols, " http , https ,")
	t.Setenv("DEMO_BUILDER_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.ProjectsRoot)
	assert.Equal(t, 7, cfg.RateLimit)
	assert.Equal(t, 2*time.Second, cfg.GracefulTimeout)
	assert.Equal(t, []string{"http", "https"}, cfg.AllowedProtocols)
	assert.True(t, cfg.Log.Debug)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		errMsg  string
	}{
		{
			name:    "malformed yaml",
			content: "rateLimit: [",
			errMsg:  "failed to parse config",
		},
		{
			name:    "negative rate limit",
			content: "projectsRoot: /tmp/p\nrateLimit: -1\n",
			errMsg:  "rateLimit must be zero or positive",
		},
		{
			name:    "bad duration env",
			content: "projectsRoot: /tmp/p\n",
			env:     map[string]string{EnvGracefulTimeout: "soon"},
			errMsg:  "must be a duration",
		},
		{
			name:    "bad rate limit env",
			content: "projectsRoot: /tmp/p\n",
			env:     map[string]string{EnvRateLimit: "ten"},
			errMsg:  "must be an integer",
		},
		{
			name:    "empty protocols",
			content: "projectsRoot: /tmp/p\nallowedProtocols: []\n",
			errMsg:  "allowedProtocols must list at least one protocol",
		},
		{
			name:    "bad metrics port",
			content: "projectsRoot: /tmp/p\nmetrics:\n  port: 70000\n",
			errMsg:  "metrics.port must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestZeroRateLimitIsValid(t *testing.T) {
	cfg := Default()
	cfg.ProjectsRoot = "/tmp/p"
	cfg.RateLimit = 0
	assert.NoError(t, cfg.Validate())
}

func TestSaveSampleRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", FileName)
	require.NoError(t, SaveSample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, FileName, filepath.Base(DefaultPath()))
	assert.Equal(t, ".demo-builder", filepath.Base(filepath.Dir(DefaultPath())))
}

// Package config loads demo-guard settings from a YAML file with environment
// variable overrides.
//
// A missing file yields the defaults. Environment variables win over the file:
//
//	DEMO_BUILDER_PROJECTS_ROOT       projectsRoot
//	DEMO_BUILDER_RATE_LIMIT          rateLimit
//	DEMO_BUILDER_GRACEFUL_TIMEOUT    gracefulTimeout (Go duration, e.g. "5s")
//	DEMO_BUILDER_ALLOWED_PROTOCOLS   allowedProtocols (comma separated)
//	DEMO_BUILDER_DEBUG               log.debug
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jongio/demo-builder-core/fileutil"
	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/procutil"
	"github.com/jongio/demo-builder-core/ratelimit"
	"github.com/jongio/demo-builder-core/security"
	"github.com/jongio/demo-builder-core/urlutil"
)

// Environment variable names.
const (
	EnvProjectsRoot     = "DEMO_BUILDER_PROJECTS_ROOT"
	EnvRateLimit        = "DEMO_BUILDER_RATE_LIMIT"
	EnvGracefulTimeout  = "DEMO_BUILDER_GRACEFUL_TIMEOUT"
	EnvAllowedProtocols = "DEMO_BUILDER_ALLOWED_PROTOCOLS"
)

// FileName is the config file name inside the .demo-builder directory.
const FileName = "config.yaml"

// Config holds all settings.
type Config struct {
	ProjectsRoot     string        `yaml:"projectsRoot" json:"projectsRoot"`
	RateLimit        int           `yaml:"rateLimit" json:"rateLimit"`
	GracefulTimeout  time.Duration `yaml:"gracefulTimeout" json:"gracefulTimeout"`
	AllowedProtocols []string      `yaml:"allowedProtocols" json:"allowedProtocols"`
	HTTP             HTTPConfig    `yaml:"http" json:"http"`
	Auth             AuthConfig    `yaml:"auth" json:"auth"`
	Metrics          MetricsConfig `yaml:"metrics" json:"metrics"`
	Log              LogConfig     `yaml:"log" json:"log"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	Timeout                time.Duration `yaml:"timeout" json:"timeout"`
	Retry                  int           `yaml:"retry" json:"retry"`
	CircuitBreakerFailures int           `yaml:"circuitBreakerFailures" json:"circuitBreakerFailures"`
}

// AuthConfig configures how bearer tokens are obtained.
type AuthConfig struct {
	// TokenCommand is the auth CLI invocation that prints an access token,
	// e.g. [aio, config, get, ims.contexts.cli.access_token.token].
	TokenCommand []string `yaml:"tokenCommand,omitempty" json:"tokenCommand,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// LogConfig configures logutil.
type LogConfig struct {
	Debug bool `yaml:"debug" json:"debug"`
	JSON  bool `yaml:"json" json:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	// An unresolvable home directory leaves ProjectsRoot empty, which Validate
	// reports unless the file or environment sets it.
	root, _ := security.DefaultProjectsRoot()
	return &Config{
		ProjectsRoot:     root,
		RateLimit:        ratelimit.DefaultLimit,
		GracefulTimeout:  procutil.DefaultGracefulTimeout,
		AllowedProtocols: append([]string(nil), urlutil.DefaultAllowedProtocols...),
		HTTP: HTTPConfig{
			Timeout:                30 * time.Second,
			Retry:                  3,
			CircuitBreakerFailures: 5,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// DefaultPath returns ~/.demo-builder/config.yaml, or FileName in the working
// directory when the home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, security.ProjectsDirName, FileName)
}

// Load reads the config file at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	// #nosec G304 -- path is chosen by the operator, not by remote input
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(path), err)
		}
	case errors.Is(err, os.ErrNotExist):
		logutil.Debug("config file not found, using defaults", "file", filepath.Base(path))
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvProjectsRoot); v != "" {
		c.ProjectsRoot = v
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvRateLimit, err)
		}
		c.RateLimit = n
	}
	if v := os.Getenv(EnvGracefulTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration: %w", EnvGracefulTimeout, err)
		}
		c.GracefulTimeout = d
	}
	if v := os.Getenv(EnvAllowedProtocols); v != "" {
		var protocols []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				protocols = append(protocols, p)
			}
		}
		c.AllowedProtocols = protocols
	}
	if os.Getenv(logutil.EnvDebug) == "true" {
		c.Log.Debug = true
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ProjectsRoot == "" {
		return errors.New("projectsRoot must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rateLimit must be zero or positive, got %d", c.RateLimit)
	}
	if c.GracefulTimeout <= 0 {
		return fmt.Errorf("gracefulTimeout must be positive, got %s", c.GracefulTimeout)
	}
	if len(c.AllowedProtocols) == 0 {
		return errors.New("allowedProtocols must list at least one protocol")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.HTTP.Retry < 0 {
		return fmt.Errorf("http.retry must be zero or positive, got %d", c.HTTP.Retry)
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	return nil
}

// SaveSample writes the default configuration to path, creating its directory.
func SaveSample(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fileutil.AtomicWriteFile(path, data, fileutil.PrivateFilePermission); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

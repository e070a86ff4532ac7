package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongio/demo-builder-core/guard"
	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
	"github.com/jongio/demo-builder-core/ratelimit"
	"github.com/jongio/demo-builder-core/version"
)

var log = logutil.NewLogger("cli")

func newServeMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the validation tools over MCP on stdin/stdout",
		Long: `Serve validate, validate_field and sanitize as MCP tools for the IDE extension
host. Tool calls are rate limited per tool using rateLimit from the config.
Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker, err := guard.NewChecker(a.cfg.ProjectsRoot, a.cfg.AllowedProtocols)
			if err != nil {
				return err
			}

			if a.cfg.Metrics.Enabled {
				srv := metrics.CreateMetricsServer(a.cfg.Metrics.Port)
				go serveMetrics(srv)
				defer shutdown(srv)
			}

			log.Info("serving MCP tools", "projects_root", checker.ProjectsRoot(), "rate_limit", a.cfg.RateLimit)
			s := guard.NewToolServer(checker, ratelimit.New(a.cfg.RateLimit))
			return s.ServeStdio(appName, version.Version)
		},
	}
}

func newMetricsCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Serve Prometheus metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == 0 {
				port = a.cfg.Metrics.Port
			}
			if port < 1 || port > 65535 {
				return fmt.Errorf("port must be between 1 and 65535, got %d", port)
			}

			metrics.Enable(true)
			srv := metrics.CreateMetricsServer(port)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Info("serving metrics", "port", port)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server failed: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				shutdown(srv)
				return nil
			}
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default metrics.port from config)")
	return cmd
}

func serveMetrics(srv *http.Server) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("metrics server stopped", "error", err)
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown failed", "error", err)
	}
}

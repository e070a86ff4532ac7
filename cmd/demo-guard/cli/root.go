// Package cli implements the demo-guard command tree.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jongio/demo-builder-core/cliout"
	"github.com/jongio/demo-builder-core/config"
	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
	"github.com/jongio/demo-builder-core/version"
)

const appName = "demo-guard"

// skipConfigAnnotation marks commands that must run without loading the config
// file, e.g. to replace a broken one.
const skipConfigAnnotation = "demo-guard/skip-config"

// SilentError is returned by commands that already printed their failure.
type SilentError struct {
	Err error
}

func (e *SilentError) Error() string { return e.Err.Error() }

func (e *SilentError) Unwrap() error { return e.Err }

// app carries the global flags and the loaded configuration to subcommands.
type app struct {
	configPath string
	output     string
	debug      bool

	cfg *config.Config
}

// NewRootCmd builds the demo-guard command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Validate input, sanitize errors and clean up processes for demo-builder",
		Long: `demo-guard exposes the demo-builder safety layer: identifier, path, URL and
token validation, log-safe error sanitization, process tree cleanup, and a
guarded HTTP client. The IDE extension host talks to it over MCP (serve-mcp).`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.demo-builder/config.yaml)")
	flags.StringVarP(&a.output, "output", "o", "default", "output format: default or json")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newValidateCmd(a),
		newSanitizeCmd(),
		newKillCmd(a),
		newFetchCmd(a),
		newServeMCPCmd(a),
		newMetricsCmd(a),
		newConfigCmd(a),
		version.NewCommand(version.New(appName), &a.output),
	)

	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := cliout.SetFormat(a.output); err != nil {
		return err
	}
	cliout.SetOutput(cmd.OutOrStdout())

	if cmd.Annotations[skipConfigAnnotation] == "true" {
		logutil.SetupLoggerWithWriter(cmd.ErrOrStderr(), a.debug, false)
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Debug = true
	}

	logutil.SetupLoggerWithWriter(cmd.ErrOrStderr(), cfg.Log.Debug, cfg.Log.JSON)
	metrics.Enable(cfg.Metrics.Enabled)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		log.Debug("flag set", "command", cmd.Name(), "flag", f.Name, "value", f.Value.String())
	})

	a.cfg = cfg
	return nil
}

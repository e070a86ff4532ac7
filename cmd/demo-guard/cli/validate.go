package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jongio/demo-builder-core/cliout"
	"github.com/jongio/demo-builder-core/fieldvalidate"
	"github.com/jongio/demo-builder-core/guard"
)

// maxStdinValue bounds values read with --stdin.
const maxStdinValue = 64 * 1024

var kindDescriptions = map[guard.Kind]string{
	guard.KindResourceID:  "Validate a generic resource identifier",
	guard.KindOrgID:       "Validate an organization ID",
	guard.KindProjectID:   "Validate a project ID",
	guard.KindWorkspaceID: "Validate a workspace ID",
	guard.KindMeshID:      "Validate a mesh ID",
	guard.KindProjectName: "Validate a project name used as a directory name",
	guard.KindPath:        "Check that a path resolves inside the projects root",
	guard.KindURL:         "Check a URL against the protocol allow-list and SSRF ranges",
	guard.KindGitHubURL:   "Check that a URL is a GitHub release asset download",
	guard.KindToken:       "Check that a bearer token is JWT shaped (use --stdin)",
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a value before it reaches a shell command, HTTP request or path",
	}
	for _, kind := range guard.Kinds() {
		cmd.AddCommand(newValidateKindCmd(a, kind))
	}
	cmd.AddCommand(newValidateFieldCmd())
	return cmd
}

func newValidateKindCmd(a *app, kind guard.Kind) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   string(kind) + " [value]",
		Short: kindDescriptions[kind],
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args, fromStdin)
			if err != nil {
				return err
			}

			checker, err := guard.NewChecker(a.cfg.ProjectsRoot, a.cfg.AllowedProtocols)
			if err != nil {
				return err
			}

			res, err := checker.Check(kind, value)
			if err != nil {
				return err
			}
			return reportCheck(res)
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the value from stdin instead of the argument list")
	return cmd
}

func newValidateFieldCmd() *cobra.Command {
	names := make([]string, 0, len(fieldvalidate.Fields()))
	for _, f := range fieldvalidate.Fields() {
		names = append(names, string(f))
	}

	return &cobra.Command{
		Use:   "field <name> [value]",
		Short: "Run the form feedback rule for a setup field",
		Long:  "Run the form feedback rule for a setup field. Known fields: " + strings.Join(names, ", ") + ". Unknown fields are valid.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 2 {
				value = args[1]
			}

			res := fieldvalidate.Validate(args[0], value)
			if err := cliout.Print(res, func() {
				if res.IsValid {
					cliout.Success("%s is valid", args[0])
				} else {
					cliout.Error("%s", res.Message)
				}
			}); err != nil {
				return err
			}

			if !res.IsValid {
				return &SilentError{Err: fmt.Errorf("%s is invalid", args[0])}
			}
			return nil
		},
	}
}

func readValue(cmd *cobra.Command, args []string, fromStdin bool) (string, error) {
	if fromStdin {
		if len(args) > 0 {
			return "", errors.New("use either a value argument or --stdin, not both")
		}
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdinValue))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	if len(args) == 0 {
		return "", errors.New("a value argument or --stdin is required")
	}
	return args[0], nil
}

func reportCheck(res guard.Result) error {
	if err := cliout.Print(res, func() {
		if res.Valid {
			cliout.Success("%s is valid", res.Kind)
			if res.Resolved != "" {
				cliout.Label("Resolved", res.Resolved)
			}
			return
		}
		cliout.Error("%s", res.Message)
		cliout.Label("Rejection", res.Error)
	}); err != nil {
		return err
	}

	if !res.Valid {
		return &SilentError{Err: fmt.Errorf("%s rejected: %s", res.Kind, res.Error)}
	}
	return nil
}

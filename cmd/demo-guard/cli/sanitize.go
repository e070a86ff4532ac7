package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jongio/demo-builder-core/cliout"
	"github.com/jongio/demo-builder-core/sanitize"
)

func newSanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [message...]",
		Short: "Make an error message safe to log",
		Long: `Strip file system paths, redact long tokens and NAME=value assignments, and
keep only the first line of the message. Reads stdin when no message is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdinValue))
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				msg = string(data)
			}

			clean := sanitize.String(msg)
			return cliout.Print(map[string]string{"message": clean}, func() {
				cliout.Plain("%s", clean)
			})
		},
	}
}

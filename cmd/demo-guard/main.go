// Command demo-guard is the operator and IDE-extension entry point to the
// demo-builder safety layer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jongio/demo-builder-core/cmd/demo-guard/cli"
	"github.com/jongio/demo-builder-core/sanitize"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		// Commands that already reported their own failure return a SilentError.
		var silent *cli.SilentError
		if !errors.As(err, &silent) {
			fmt.Fprintln(os.Stderr, "Error:", sanitize.ErrorForLogging(err))
		}
		os.Exit(1)
	}
}

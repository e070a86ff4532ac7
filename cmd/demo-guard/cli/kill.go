package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongio/demo-builder-core/cliout"
	"github.com/jongio/demo-builder-core/procutil"
)

type killResult struct {
	PID     int    `json:"pid"`
	Outcome string `json:"outcome"`
}

func newKillCmd(a *app) *cobra.Command {
	var (
		force   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "kill <pid>...",
		Short: "Terminate process trees, escalating from graceful to forceful",
		Long: `Send a graceful termination signal to each process and its descendants, wait
up to the graceful timeout, then kill whatever is left. A process that has
already exited counts as success.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pids := make([]int, 0, len(args))
			for _, arg := range args {
				pid, err := strconv.Atoi(arg)
				if err != nil || pid <= 0 {
					return fmt.Errorf("invalid pid %q: must be a positive integer", arg)
				}
				pids = append(pids, pid)
			}

			if timeout <= 0 {
				timeout = a.cfg.GracefulTimeout
			}
			cleaner := procutil.NewCleaner(procutil.WithGracefulTimeout(timeout))

			sig := procutil.Graceful
			if force {
				sig = procutil.Forceful
			}

			results := make([]killResult, 0, len(pids))
			for _, pid := range pids {
				outcome := cleaner.KillProcessTree(cmd.Context(), pid, sig)
				results = append(results, killResult{PID: pid, Outcome: outcome.String()})
			}

			return cliout.Print(results, func() {
				rows := make([]cliout.TableRow, 0, len(results))
				for _, r := range results {
					rows = append(rows, cliout.TableRow{"PID": strconv.Itoa(r.PID), "OUTCOME": cliout.Status(r.Outcome)})
				}
				cliout.Table([]string{"PID", "OUTCOME"}, rows)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the graceful phase")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "graceful timeout (default from config)")
	return cmd
}

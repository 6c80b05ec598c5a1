package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/inr100/offsync/internal/ir"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Long: `Run a single sync cycle and print its result.

Exits with status 1 when the backend is unreachable or the cycle was
interrupted; queued actions stay queued in that case.

Example:
  offsync sync
  offsync sync --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	coord, err := a.coordinator()
	if err != nil {
		return err
	}

	res := coord.RunCycle(cmd.Context())

	formatter := newFormatter(opts, cmd)
	if err := formatter.Emit(res, func(w io.Writer) { printSyncResult(w, res) }); err != nil {
		return err
	}
	if !res.Success {
		return NewExitError(ExitFailure, fmt.Sprintf("sync did not complete: %s", res.Reason))
	}
	return nil
}

func printSyncResult(w io.Writer, res ir.SyncResult) {
	fmt.Fprintln(w, cycleLine(res))
	for _, f := range res.Failed {
		fmt.Fprintf(w, "  %s %s %s after %d attempts: %s\n",
			failColor.Sprint("dropped"), f.ActionID, f.Kind, f.RetryCount, f.LastError)
	}
	for _, r := range res.Refreshed {
		fmt.Fprintf(w, "  %s %s\n", okColor.Sprint("refreshed"), r)
	}
}

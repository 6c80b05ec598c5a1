package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/inr100/offsync/internal/ir"
)

// NewQueueCommand creates the queue command.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List pending actions",
		Long: `List the actions waiting in the offline queue, oldest first.

Example:
  offsync queue
  offsync queue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueue(rootOpts, cmd)
		},
	}
	return cmd
}

func runQueue(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	actions := a.queue.Snapshot()
	return newFormatter(opts, cmd).Emit(actions, func(w io.Writer) {
		printQueue(w, actions)
	})
}

func printQueue(w io.Writer, actions []ir.Action) {
	if len(actions) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("queue is empty"))
		return
	}
	for i, a := range actions {
		retries := fmt.Sprintf("retries=%d", a.RetryCount)
		if a.RetryCount > 0 {
			retries = warnColor.Sprint(retries)
		}
		fmt.Fprintf(w, "%d. %s %s %s queued %s\n",
			i+1, a.ID, a.Kind, retries, a.EnqueuedAt.Format(time.RFC3339))
	}
}

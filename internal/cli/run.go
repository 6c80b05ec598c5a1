package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inr100/offsync/internal/engine"
	"github.com/inr100/offsync/internal/ir"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the background sync scheduler",
		Long: `Run the sync scheduler until interrupted.

A cycle runs at start and then once per sync.interval. Each cycle probes
connectivity, replays the offline queue in order, and refreshes cached
portfolio and market data after a successful replay.

Example:
  offsync run --db ./offsync.db
  offsync run --config ./offsync.cue --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(opts, cmd)
		},
	}

	return cmd
}

func runScheduler(opts *RunOptions, cmd *cobra.Command) error {
	// The scheduler is long-lived; report cycles at info level.
	setupLogging(opts.Verbose, slog.LevelInfo)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	coord, err := a.coordinator(engine.WithObserver(func(res ir.SyncResult) {
		fmt.Fprintln(out, cycleLine(res))
	}))
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	// Written before Start: the observer writes to out from the scheduler.
	fmt.Fprintf(out, "Sync scheduler started (interval %s, %d pending).\n", a.cfg.Sync.Interval, a.queue.Len())
	fmt.Fprintln(out, "Press Ctrl-C to stop.")
	if err := coord.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "scheduler error", err)
	}

	<-ctx.Done()
	coord.Stop()

	slog.Info("scheduler stopped gracefully")
	return nil
}

// cycleLine renders one cycle result as a single line.
func cycleLine(res ir.SyncResult) string {
	switch {
	case res.Skipped:
		return dimColor.Sprintf("cycle skipped (%s)", res.Reason)
	case res.Success:
		return fmt.Sprintf("cycle %d: %s processed=%d failed=%d remaining=%d",
			res.Cycle, okColor.Sprint("ok"), res.Processed, len(res.Failed), res.Remaining)
	default:
		return fmt.Sprintf("cycle %d: %s remaining=%d",
			res.Cycle, warnColor.Sprint(res.Reason), res.Remaining)
	}
}

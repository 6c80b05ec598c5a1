package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/engine"
	"github.com/inr100/offsync/internal/records"
)

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local cache",
		Long: `Inspect and maintain the local cache.

Example:
  offsync cache get portfolio
  offsync cache invalidate market_data
  offsync cache sweep
  offsync cache usage`,
	}

	var fetch bool
	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a cached value if it is still fresh",
		Long: `Print a cached value if it is still fresh.

With --fetch, a miss on portfolio or market_data is loaded from the
backend and written to the cache before printing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheGet(rootOpts, args[0], fetch, cmd)
		},
	}
	getCmd.Flags().BoolVar(&fetch, "fetch", false, "load a missing resource from the backend")
	cmd.AddCommand(getCmd)
	cmd.AddCommand(&cobra.Command{
		Use:           "invalidate <key>",
		Short:         "Remove a cached value",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(c *cache.Cache) (any, string) {
				c.Invalidate(cmd.Context(), args[0])
				return map[string]string{"invalidated": args[0]}, "invalidated " + args[0]
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "sweep",
		Short:         "Remove every expired entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(c *cache.Cache) (any, string) {
				n := c.Sweep(cmd.Context())
				return map[string]int{"removed": n}, fmt.Sprintf("removed %d expired entries", n)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Remove every cached entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(c *cache.Cache) (any, string) {
				c.Clear(cmd.Context())
				return map[string]bool{"cleared": true}, "cache cleared"
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "usage",
		Short:         "Report how much the local store holds",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheUsage(rootOpts, cmd)
		},
	})

	return cmd
}

func withCache(opts *RootOptions, cmd *cobra.Command, fn func(*cache.Cache) (any, string)) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	data, text := fn(a.cache)
	return newFormatter(opts, cmd).Emit(data, func(w io.Writer) {
		fmt.Fprintln(w, text)
	})
}

func runCacheGet(opts *RootOptions, key string, fetch bool, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	formatter := newFormatter(opts, cmd)
	reader := engine.NewReader(a.cache, a.api)

	var payload json.RawMessage
	if fetch && reader.Fetchable(key) {
		payload, err = reader.Read(cmd.Context(), key)
		if err != nil {
			_ = formatter.Error(ErrorCode(err), fmt.Sprintf("failed to fetch %q", key), err.Error())
			return WrapExitError(ExitFailure, "fetch failed", err)
		}
	} else {
		var ok bool
		payload, ok = a.cache.Get(cmd.Context(), key)
		if !ok {
			if err := formatter.Error("MISS", fmt.Sprintf("no fresh entry for %q", key), nil); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("cache miss: %s", key))
		}
	}

	return formatter.Emit(payload, func(w io.Writer) {
		fmt.Fprintln(w, string(payload))
	})
}

func runCacheUsage(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	usage := a.records.Usage(cmd.Context())
	data := struct {
		records.UsageReport
		Pending int `json:"pending_actions"`
	}{usage, a.queue.Len()}

	return newFormatter(opts, cmd).Emit(data, func(w io.Writer) {
		fmt.Fprintf(w, "%s in %d keys, %d pending actions\n", usage.Formatted, usage.Keys, data.Pending)
	})
}

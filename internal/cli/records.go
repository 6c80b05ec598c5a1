package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inr100/offsync/internal/records"
)

// NewRecordsCommand creates the records command: user-local data kept
// beside the cache (preferences, search history, watchlist, learning
// progress).
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Read and write user-local records",
		Long: `Read and write user-local records.

Example:
  offsync records prefs set '{"theme":"dark"}'
  offsync records search add "tata motors" --type stock
  offsync records watchlist set TCS INFY
  offsync records progress get`,
	}

	cmd.AddCommand(newPrefsCommand(rootOpts))
	cmd.AddCommand(newSearchCommand(rootOpts))
	cmd.AddCommand(newWatchlistCommand(rootOpts))
	cmd.AddCommand(newProgressCommand(rootOpts))
	return cmd
}

// recordsFunc runs against an open records store and returns the JSON
// data and the text line to emit.
type recordsFunc func(ctx context.Context, r *records.Store) (any, string, error)

func recordsCommand(opts *RootOptions, use, short string, args cobra.PositionalArgs, fn func(args []string) recordsFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecords(opts, cmd, fn(args))
		},
	}
}

func withRecords(opts *RootOptions, cmd *cobra.Command, fn recordsFunc) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	formatter := newFormatter(opts, cmd)
	data, text, err := fn(cmd.Context(), a.records)
	if err != nil {
		_ = formatter.Error(ErrorCode(err), "records operation failed", err.Error())
		return WrapExitError(ExitFailure, "records operation failed", err)
	}
	return formatter.Emit(data, func(w io.Writer) {
		fmt.Fprintln(w, text)
	})
}

// parseObject decodes a JSON object argument.
func parseObject(arg string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(arg), &obj); err != nil || obj == nil {
		return nil, NewExitError(ExitCommandError, "value must be a JSON object")
	}
	return obj, nil
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func newPrefsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "prefs", Short: "User preferences"}
	cmd.AddCommand(recordsCommand(opts, "get", "Print stored preferences", cobra.NoArgs,
		func([]string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				prefs, ok := r.Preferences(ctx)
				if !ok {
					return map[string]any{}, "no preferences stored", nil
				}
				return prefs, compactJSON(prefs), nil
			}
		}))
	cmd.AddCommand(setObjectCommand(opts, "Replace stored preferences",
		func(ctx context.Context, r *records.Store, obj map[string]any) error {
			return r.SavePreferences(ctx, obj)
		}))
	return cmd
}

func newProgressCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "progress", Short: "Learning progress"}
	cmd.AddCommand(recordsCommand(opts, "get", "Print learning progress", cobra.NoArgs,
		func([]string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				progress := r.LearningProgress(ctx)
				return progress, compactJSON(progress), nil
			}
		}))
	cmd.AddCommand(setObjectCommand(opts, "Replace learning progress",
		func(ctx context.Context, r *records.Store, obj map[string]any) error {
			return r.SaveLearningProgress(ctx, obj)
		}))
	return cmd
}

func setObjectCommand(opts *RootOptions, short string, save func(context.Context, *records.Store, map[string]any) error) *cobra.Command {
	return &cobra.Command{
		Use:           "set <json>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := parseObject(args[0])
			if err != nil {
				return err
			}
			return withRecords(opts, cmd, func(ctx context.Context, r *records.Store) (any, string, error) {
				if err := save(ctx, r, obj); err != nil {
					return nil, "", err
				}
				return obj, "saved", nil
			})
		},
	}
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "search", Short: "Search history"}

	var typ string
	add := recordsCommand(opts, "add <query>", "Record a search", cobra.ExactArgs(1),
		func(args []string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				if err := r.AddSearch(ctx, args[0], typ); err != nil {
					return nil, "", err
				}
				history := r.SearchHistory(ctx)
				return history, fmt.Sprintf("%d searches in history", len(history)), nil
			}
		})
	add.Flags().StringVar(&typ, "type", records.DefaultSearchType, "search type")
	cmd.AddCommand(add)

	cmd.AddCommand(recordsCommand(opts, "list", "Print search history, newest first", cobra.NoArgs,
		func([]string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				history := r.SearchHistory(ctx)
				if len(history) == 0 {
					return history, "no searches", nil
				}
				lines := make([]string, len(history))
				for i, e := range history {
					lines[i] = fmt.Sprintf("%d. %s (%s)", i+1, e.Query, e.Type)
				}
				return history, strings.Join(lines, "\n"), nil
			}
		}))
	cmd.AddCommand(recordsCommand(opts, "clear", "Forget every search", cobra.NoArgs,
		func([]string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				if err := r.ClearSearchHistory(ctx); err != nil {
					return nil, "", err
				}
				return map[string]bool{"cleared": true}, "search history cleared", nil
			}
		}))
	return cmd
}

func newWatchlistCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "watchlist", Short: "Watchlist symbols"}
	cmd.AddCommand(recordsCommand(opts, "get", "Print the watchlist", cobra.NoArgs,
		func([]string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				symbols := r.Watchlist(ctx)
				if len(symbols) == 0 {
					return symbols, "watchlist is empty", nil
				}
				return symbols, strings.Join(symbols, " "), nil
			}
		}))
	cmd.AddCommand(recordsCommand(opts, "set [SYMBOL...]", "Replace the watchlist", cobra.ArbitraryArgs,
		func(args []string) recordsFunc {
			return func(ctx context.Context, r *records.Store) (any, string, error) {
				symbols := make([]string, len(args))
				for i, s := range args {
					symbols[i] = strings.ToUpper(s)
				}
				if err := r.SaveWatchlist(ctx, symbols); err != nil {
					return nil, "", err
				}
				return symbols, fmt.Sprintf("watchlist has %d symbols", len(symbols)), nil
			}
		}))
	return cmd
}

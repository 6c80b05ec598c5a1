package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inr100/offsync/internal/ir"
)

// EnqueueOptions holds flags for the enqueue command.
type EnqueueOptions struct {
	*RootOptions
	Payload string
}

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnqueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enqueue <KIND>",
		Short: "Queue an action for replay",
		Long: `Queue a mutating action to be replayed on the next sync cycle.

KIND is one of PLACE_ORDER, CANCEL_ORDER, ADD_MONEY, UPDATE_PROFILE,
CREATE_POST. The payload is the JSON body for that kind.

Example:
  offsync enqueue PLACE_ORDER --payload '{"symbol":"TCS","side":"BUY","quantity":2}'
  offsync enqueue CANCEL_ORDER --payload '{"order_id":"o-42"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "action payload as JSON")

	return cmd
}

// EnqueueResult is the output of the enqueue command.
type EnqueueResult struct {
	ID             string        `json:"id"`
	Kind           ir.ActionKind `json:"kind"`
	IdempotencyKey string        `json:"idempotency_key"`
	Pending        int           `json:"pending"`
}

func runEnqueue(opts *EnqueueOptions, kindArg string, cmd *cobra.Command) error {
	kind, err := ir.ParseActionKind(strings.ToUpper(kindArg))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid action kind", err)
	}
	if !json.Valid([]byte(opts.Payload)) {
		return NewExitError(ExitCommandError, "invalid --payload JSON")
	}

	a, err := openApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.queue.Enqueue(cmd.Context(), kind, json.RawMessage(opts.Payload))
	if err != nil {
		_ = newFormatter(opts.RootOptions, cmd).Error(ErrorCode(err), "failed to enqueue action", err.Error())
		return WrapExitError(ExitFailure, "failed to enqueue action", err)
	}
	action, _ := a.queue.Get(id)

	res := EnqueueResult{
		ID:             id,
		Kind:           kind,
		IdempotencyKey: action.IdempotencyKey,
		Pending:        a.queue.Len(),
	}
	return newFormatter(opts.RootOptions, cmd).Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s %s (%d pending)\n", okColor.Sprint("queued"), res.Kind, res.ID, res.Pending)
	})
}

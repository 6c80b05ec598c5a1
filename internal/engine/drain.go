package engine

import (
	"context"
	"log/slog"

	"github.com/inr100/offsync/internal/ir"
)

// DrainQueue replays one snapshot of the queue in FIFO order.
//
// Per action:
//   - success: removed, listed in Processed
//   - failure: retry count bumped; once it reaches max retries the action
//     is removed and reported in Failed
//   - no handler for its kind: left untouched, listed in Skipped
//
// Actions enqueued during the pass wait for the next one. When ctx is
// cancelled the pass stops before the next action; the call already in
// flight finishes and its outcome is recorded.
func (c *Coordinator) DrainQueue(ctx context.Context) ir.DrainResult {
	snapshot := c.queue.Snapshot()
	res := ir.DrainResult{Processed: []string{}}

	// Bookkeeping for a call that was started must outlive cancellation.
	callCtx := context.WithoutCancel(ctx)

	for i, a := range snapshot {
		if ctx.Err() != nil {
			res.Cancelled = true
			for _, rest := range snapshot[i:] {
				res.Skipped = append(res.Skipped, rest.ID)
			}
			slog.Info("drain cancelled", "not_started", len(snapshot)-i)
			break
		}

		handler, ok := c.handlers[a.Kind]
		if !ok {
			slog.Warn("no handler for action kind, leaving queued",
				"id", a.ID,
				"kind", a.Kind,
			)
			res.Skipped = append(res.Skipped, a.ID)
			continue
		}

		out, err := handler(callCtx, c.api, a)
		if err == nil && out.Success {
			c.succeeded(callCtx, a, &res)
			continue
		}
		c.failed(callCtx, a, replayError(out.Error, err), &res)
	}

	res.Remaining = c.queue.Len()
	return res
}

func (c *Coordinator) succeeded(ctx context.Context, a ir.Action, res *ir.DrainResult) {
	if err := c.queue.Remove(ctx, a.ID); err != nil {
		// Stays queued; the replay repeats with the same idempotency key.
		slog.Error("remove replayed action failed",
			"id", a.ID,
			"kind", a.Kind,
			"error", err,
		)
		return
	}
	slog.Info("action replayed", "id", a.ID, "kind", a.Kind)
	res.Processed = append(res.Processed, a.ID)
}

func (c *Coordinator) failed(ctx context.Context, a ir.Action, reason string, res *ir.DrainResult) {
	count, err := c.queue.IncrementRetry(ctx, a.ID)
	if err != nil {
		slog.Error("record replay failure failed",
			"id", a.ID,
			"kind", a.Kind,
			"error", err,
		)
		res.Retried = append(res.Retried, a.ID)
		return
	}

	if count < c.maxRetries {
		slog.Warn("action replay failed, will retry",
			"id", a.ID,
			"kind", a.Kind,
			"retry_count", count,
			"max_retries", c.maxRetries,
			"error", reason,
		)
		res.Retried = append(res.Retried, a.ID)
		return
	}

	if err := c.queue.Remove(ctx, a.ID); err != nil {
		slog.Error("remove exhausted action failed",
			"id", a.ID,
			"kind", a.Kind,
			"error", err,
		)
		res.Retried = append(res.Retried, a.ID)
		return
	}

	slog.Error("action dropped after max retries",
		"id", a.ID,
		"kind", a.Kind,
		"retry_count", count,
		"error", ir.NewError(ir.ErrCodeMaxRetries, "replay", a.ID, nil),
		"last_error", reason,
	)
	res.Failed = append(res.Failed, ir.PermanentFailure{
		ActionID:   a.ID,
		Kind:       a.Kind,
		RetryCount: count,
		LastError:  reason,
	})
}

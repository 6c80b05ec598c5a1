package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/engine"
	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/queue"
	"github.com/inr100/offsync/internal/store"
	"github.com/inr100/offsync/internal/testutil"
)

// Harness wires a scenario's fakes to the real queue, cache and coordinator.
type Harness struct {
	queue  *queue.Queue
	api    *testutil.ScriptedAPI
	prober *testutil.StaticProber
	coord  *engine.Coordinator
}

// Run executes a scenario in a fresh database under dir and returns the
// result with assertions evaluated.
//
// Execution flow:
//  1. Open a SQLite store under dir
//  2. Script the backend from outcomes and defaults
//  3. Enqueue the scenario's actions
//  4. Run one coordinator cycle per entry in cycles, tracing each
//  5. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario, dir string) (*Result, error) {
	st, err := store.Open(filepath.Join(dir, scenario.Name+".db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	for i, step := range scenario.Actions {
		kind, err := ir.ParseActionKind(step.Kind)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		if _, err := h.queue.Enqueue(ctx, kind, step.Payload); err != nil {
			return nil, fmt.Errorf("action %d: enqueue: %w", i, err)
		}
	}

	result := NewResult()
	for _, connectivity := range scenario.Cycles {
		result.Cycles = append(result.Cycles, h.runCycle(ctx, connectivity == CycleOnline))
	}
	for _, c := range h.api.Calls() {
		result.Calls[c.Method]++
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	clock := testutil.NewFakeClock()

	q, err := queue.Open(ctx, st,
		queue.WithIDGenerator(testutil.NewSequenceGenerator("act")),
		queue.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue: %w", err)
	}

	api := testutil.NewScriptedAPI()
	for method, outcomes := range scenario.Outcomes {
		for _, o := range outcomes {
			api.Script(method, toOutcome(o))
		}
	}
	for method, o := range scenario.Defaults {
		api.SetDefault(method, toOutcome(o))
	}

	prober := testutil.NewStaticProber(true)
	opts := []engine.Option{engine.WithClock(clock)}
	if scenario.MaxRetries > 0 {
		opts = append(opts, engine.WithMaxRetries(scenario.MaxRetries))
	}
	coord, err := engine.New(cache.New(st, cache.WithClock(clock)), q, api, prober, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	return &Harness{
		queue:  q,
		api:    api,
		prober: prober,
		coord:  coord,
	}, nil
}

func toOutcome(o string) testutil.Outcome {
	switch o {
	case OutcomeFail:
		return testutil.Outcome{Fail: true}
	case OutcomeTransport:
		return testutil.Outcome{Transport: true}
	default:
		return testutil.Outcome{}
	}
}

// runCycle runs one coordinator cycle and derives its trace from the
// queue and backend calls before and after.
func (h *Harness) runCycle(ctx context.Context, online bool) CycleTrace {
	h.prober.SetOnline(online)
	before := h.queue.Snapshot()
	callsBefore := len(h.api.Calls())

	res := h.coord.RunCycle(ctx)

	after := h.queue.Snapshot()
	trace := CycleTrace{
		Cycle:     res.Cycle,
		Online:    online,
		Success:   res.Success,
		Reason:    res.Reason,
		Refreshed: res.Refreshed,
	}
	for _, c := range h.api.Calls()[callsBefore:] {
		trace.Calls = append(trace.Calls, c.Method)
	}
	for _, f := range res.Failed {
		trace.Failed = append(trace.Failed, f.ActionID)
	}

	remaining := make(map[string]int, len(after))
	for _, a := range after {
		remaining[a.ID] = a.RetryCount
		trace.Queue = append(trace.Queue, QueuedAction{
			ID:         a.ID,
			Kind:       string(a.Kind),
			RetryCount: a.RetryCount,
		})
	}
	for _, a := range before {
		count, queued := remaining[a.ID]
		switch {
		case !queued && !slices.Contains(trace.Failed, a.ID):
			trace.Processed = append(trace.Processed, a.ID)
		case queued && count > a.RetryCount:
			trace.Retried = append(trace.Retried, a.ID)
		}
	}
	return trace
}

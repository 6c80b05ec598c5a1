package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/queue"
	"github.com/inr100/offsync/internal/remote"
)

// DefaultInterval is the period of the background sync timer.
const DefaultInterval = 5 * time.Minute

// ActionQueue is the part of the offline queue the coordinator drives.
// *queue.Queue implements it.
type ActionQueue interface {
	Snapshot() []ir.Action
	Remove(ctx context.Context, id string) error
	IncrementRetry(ctx context.Context, id string) (int, error)
	Len() int
}

// CacheWriter receives refreshed server state. *cache.Cache implements it.
type CacheWriter interface {
	PutResource(ctx context.Context, resource string, value any)
}

// Coordinator runs sync cycles: probe connectivity, replay the offline
// queue, then refresh cached server state.
//
// Thread-safety model:
//   - RunCycle, Trigger, OnConnectivityChange, OnForeground: safe from any
//     goroutine; overlapping cycles are skipped, never queued
//   - Start/Stop: safe from any goroutine; Start is once per Stop
//   - State: safe from any goroutine
type Coordinator struct {
	cache    CacheWriter
	queue    ActionQueue
	api      remote.API
	prober   Prober
	handlers Handlers
	clock    ir.Clock

	maxRetries int
	interval   time.Duration
	observer   func(ir.SyncResult)

	inFlight atomic.Bool
	cycles   cycleCounter

	mu    sync.Mutex
	state ir.SyncState

	// Scheduler lifecycle, guarded by lifeMu.
	lifeMu sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup // per Start; Stop waits only on its own run
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxRetries sets how many failed replays drop an action.
//
// Default: 3 (queue.DefaultMaxRetries)
func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		c.maxRetries = n
	}
}

// WithInterval sets the background timer period.
//
// Default: 5 minutes (DefaultInterval)
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		c.interval = d
	}
}

// WithClock overrides the clock used for result timestamps.
func WithClock(clock ir.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithHandlers replaces the default replay table.
func WithHandlers(h Handlers) Option {
	return func(c *Coordinator) {
		c.handlers = h
	}
}

// WithObserver registers fn to receive every completed (non-skipped) cycle result.
func WithObserver(fn func(ir.SyncResult)) Option {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// New creates a Coordinator in the Idle phase.
//
// Returns a *MissingHandlerError if the handler table does not cover
// every action kind.
func New(cw CacheWriter, q ActionQueue, api remote.API, prober Prober, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		cache:      cw,
		queue:      q,
		api:        api,
		prober:     prober,
		handlers:   DefaultHandlers(),
		clock:      ir.SystemClock{},
		maxRetries: queue.DefaultMaxRetries,
		interval:   DefaultInterval,
		state:      ir.SyncState{Phase: ir.PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}

	if missing := missingKinds(c.handlers); len(missing) > 0 {
		return nil, &MissingHandlerError{Kinds: missing}
	}
	if c.maxRetries < 1 {
		return nil, fmt.Errorf("max retries must be at least 1, got %d", c.maxRetries)
	}
	if c.interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", c.interval)
	}
	return c, nil
}

// State returns the current phase and the last cycle result.
func (c *Coordinator) State() ir.SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	if st.LastSyncResult != nil {
		last := *st.LastSyncResult
		st.LastSyncResult = &last
	}
	return st
}

func (c *Coordinator) setPhase(p ir.Phase) {
	c.mu.Lock()
	c.state.Phase = p
	c.mu.Unlock()
}

// CheckNetwork reports whether the backend is reachable.
// Any probe failure, including a timeout, means offline.
func (c *Coordinator) CheckNetwork(ctx context.Context) bool {
	if err := c.prober.Probe(ctx); err != nil {
		slog.Info("network unavailable", "error", err)
		return false
	}
	return true
}

// RunCycle runs one full sync cycle.
//
// A call that overlaps an in-flight cycle returns at once with
// Skipped=true and Reason="busy" and has no side effects. When the probe
// fails the queue and backend are left untouched and Reason is "offline".
func (c *Coordinator) RunCycle(ctx context.Context) ir.SyncResult {
	if !c.inFlight.CompareAndSwap(false, true) {
		slog.Debug("sync cycle skipped", "reason", ir.ReasonBusy)
		return ir.SyncResult{Skipped: true, Reason: ir.ReasonBusy}
	}
	defer c.inFlight.Store(false)

	res := ir.SyncResult{
		Cycle:     c.cycles.Next(),
		StartedAt: c.clock.Now(),
	}
	slog.Debug("sync cycle starting", "cycle", res.Cycle, "pending", c.queue.Len())

	if ctx.Err() != nil {
		res.Reason = ir.ReasonCancelled
		res.Remaining = c.queue.Len()
		return c.finish(res)
	}

	c.setPhase(ir.PhaseChecking)
	if !c.CheckNetwork(ctx) {
		res.Reason = ir.ReasonOffline
		if ctx.Err() != nil {
			res.Reason = ir.ReasonCancelled
		}
		res.Remaining = c.queue.Len()
		return c.finish(res)
	}

	c.setPhase(ir.PhaseDraining)
	drain := c.DrainQueue(ctx)
	res.Processed = len(drain.Processed)
	res.Remaining = drain.Remaining
	res.Failed = drain.Failed
	if drain.Cancelled {
		res.Reason = ir.ReasonCancelled
		return c.finish(res)
	}
	res.Success = true

	if len(drain.Processed) > 0 {
		c.setPhase(ir.PhaseRefreshingCache)
		res.Refreshed = c.RefreshCache(ctx)
	}
	return c.finish(res)
}

// finish records res as the last result and returns to Idle.
func (c *Coordinator) finish(res ir.SyncResult) ir.SyncResult {
	res.Duration = c.clock.Now().Sub(res.StartedAt)

	c.mu.Lock()
	c.state.Phase = ir.PhaseIdle
	last := res
	c.state.LastSyncResult = &last
	c.mu.Unlock()

	slog.Info("sync cycle finished",
		"cycle", res.Cycle,
		"success", res.Success,
		"reason", res.Reason,
		"processed", res.Processed,
		"failed", len(res.Failed),
		"remaining", res.Remaining,
		"duration", res.Duration,
	)

	if c.observer != nil {
		c.observer(res)
	}
	return res
}

// RefreshCache fetches portfolio and market data and writes them through
// the cache with their policy TTLs. It returns the resources refreshed.
// A failed fetch leaves the cached copy as it was.
func (c *Coordinator) RefreshCache(ctx context.Context) []string {
	fetches := []struct {
		resource string
		fetch    func(context.Context) (remote.Result, error)
	}{
		{cache.ResourcePortfolio, c.api.GetPortfolio},
		{cache.ResourceMarketData, c.api.GetMarketData},
	}

	var refreshed []string
	for _, f := range fetches {
		res, err := f.fetch(ctx)
		if err != nil || !res.Success {
			slog.Warn("cache refresh failed",
				"resource", f.resource,
				"error", replayError(res.Error, err),
			)
			continue
		}
		if len(res.Data) == 0 {
			continue
		}
		c.cache.PutResource(ctx, f.resource, res.Data)
		refreshed = append(refreshed, f.resource)
	}
	return refreshed
}

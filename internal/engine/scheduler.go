package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Trigger reasons used in logs.
const (
	TriggerTimer        = "timer"
	TriggerConnectivity = "connectivity"
	TriggerForeground   = "foreground"
	TriggerManual       = "manual"
)

// ErrAlreadyStarted is returned by Start on a running coordinator.
var ErrAlreadyStarted = errors.New("coordinator already started")

// Start launches the background timer. The first cycle runs immediately,
// then one per interval. The timer stops when ctx is done or Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.cancel != nil {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.cancel = cancel
	c.wg = &sync.WaitGroup{}

	c.wg.Add(1)
	go c.loop(runCtx, c.wg)

	slog.Info("sync scheduler started", "interval", c.interval, "max_retries", c.maxRetries)
	return nil
}

// Stop cancels the timer and waits for any in-flight cycle to finish.
// Stop on a coordinator that is not running is a no-op.
func (c *Coordinator) Stop() {
	c.lifeMu.Lock()
	cancel, wg := c.cancel, c.wg
	c.cancel = nil
	c.runCtx = nil
	c.wg = nil
	c.lifeMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	wg.Wait()
	slog.Info("sync scheduler stopped")
}

// Running reports whether the scheduler is started.
func (c *Coordinator) Running() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.cancel != nil
}

func (c *Coordinator) loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runTriggered(ctx, TriggerTimer)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runTriggered(ctx, TriggerTimer)
		}
	}
}

// Trigger starts an on-demand cycle in the background.
// It returns false when the scheduler is not running. A cycle that
// overlaps an in-flight one is skipped.
func (c *Coordinator) Trigger(reason string) bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.runCtx == nil {
		slog.Debug("trigger ignored, scheduler not running", "trigger", reason)
		return false
	}
	ctx, wg := c.runCtx, c.wg
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.runTriggered(ctx, reason)
	}()
	return true
}

// OnConnectivityChange triggers a cycle when the device comes back online.
func (c *Coordinator) OnConnectivityChange(online bool) bool {
	slog.Info("connectivity changed", "online", online)
	if !online {
		return false
	}
	return c.Trigger(TriggerConnectivity)
}

// OnForeground triggers a cycle when the app returns to the foreground.
func (c *Coordinator) OnForeground() bool {
	return c.Trigger(TriggerForeground)
}

func (c *Coordinator) runTriggered(ctx context.Context, reason string) {
	res := c.RunCycle(ctx)
	if res.Skipped {
		slog.Debug("triggered cycle skipped", "trigger", reason, "reason", res.Reason)
		return
	}
	slog.Debug("triggered cycle done", "trigger", reason, "cycle", res.Cycle)
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/testutil"
)

func observed(buf int) (chan ir.SyncResult, Option) {
	ch := make(chan ir.SyncResult, buf)
	return ch, WithObserver(func(r ir.SyncResult) {
		select {
		case ch <- r:
		default:
		}
	})
}

func waitResult(t *testing.T, ch <-chan ir.SyncResult) ir.SyncResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync cycle")
		return ir.SyncResult{}
	}
}

func TestStart_RunsImmediateCycle(t *testing.T) {
	results, obs := observed(16)
	f := newFixture(t, obs, WithInterval(time.Hour))
	f.enqueue(t, ir.KindPlaceOrder, ir.PlaceOrder{Symbol: "TCS"})

	require.NoError(t, f.coord.Start(context.Background()))
	defer f.coord.Stop()

	res := waitResult(t, results)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Processed)
	assert.True(t, f.coord.Running())
}

func TestStart_Twice(t *testing.T) {
	f := newFixture(t, WithInterval(time.Hour))

	require.NoError(t, f.coord.Start(context.Background()))
	defer f.coord.Stop()

	assert.ErrorIs(t, f.coord.Start(context.Background()), ErrAlreadyStarted)
}

func TestStart_TimerFires(t *testing.T) {
	results, obs := observed(64)
	f := newFixture(t, obs, WithInterval(10*time.Millisecond))

	require.NoError(t, f.coord.Start(context.Background()))
	defer f.coord.Stop()

	first := waitResult(t, results)
	second := waitResult(t, results)
	assert.Less(t, first.Cycle, second.Cycle)
}

func TestStop_WaitsForInFlightCycle(t *testing.T) {
	results, obs := observed(16)
	f := newFixture(t, obs, WithInterval(time.Hour))
	id := f.enqueue(t, ir.KindPlaceOrder, ir.PlaceOrder{Symbol: "TCS"})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.OnCall = func(ctx context.Context, method string) {
		if method == testutil.MethodPlaceOrder {
			close(entered)
			<-release
		}
	}

	require.NoError(t, f.coord.Start(context.Background()))
	<-entered

	stopped := make(chan struct{})
	go func() {
		f.coord.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped

	res := waitResult(t, results)
	assert.Equal(t, ir.ReasonCancelled, res.Reason)
	assert.Equal(t, 1, res.Processed)
	_, queued := f.queue.Get(id)
	assert.False(t, queued, "in-flight success must be recorded")
	assert.False(t, f.coord.Running())
}

func TestStop_RestartWhileStopping(t *testing.T) {
	f := newFixture(t, WithInterval(time.Hour))
	f.enqueue(t, ir.KindPlaceOrder, ir.PlaceOrder{Symbol: "TCS"})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.OnCall = func(ctx context.Context, method string) {
		if method == testutil.MethodPlaceOrder {
			close(entered)
			<-release
		}
	}

	require.NoError(t, f.coord.Start(context.Background()))
	<-entered

	firstStopped := make(chan struct{})
	go func() {
		f.coord.Stop()
		close(firstStopped)
	}()
	require.Eventually(t, func() bool { return !f.coord.Running() }, time.Second, time.Millisecond)

	// The second run overlaps the first run's in-flight cycle.
	require.NoError(t, f.coord.Start(context.Background()))
	secondStopped := make(chan struct{})
	go func() {
		f.coord.Stop()
		close(secondStopped)
	}()

	select {
	case <-secondStopped:
	case <-time.After(2 * time.Second):
		t.Fatal("second Stop waited on the first run's cycle")
	}
	select {
	case <-firstStopped:
		t.Fatal("first Stop returned while its cycle was in flight")
	default:
	}

	close(release)
	select {
	case <-firstStopped:
	case <-time.After(2 * time.Second):
		t.Fatal("first Stop did not return after the cycle finished")
	}
}

func TestStartStop_Repeated(t *testing.T) {
	f := newFixture(t, WithInterval(time.Hour))

	for i := 0; i < 20; i++ {
		require.NoError(t, f.coord.Start(context.Background()))
		f.coord.Trigger(TriggerManual)
		f.coord.Stop()
	}
	assert.False(t, f.coord.Running())
}

func TestStop_NotStarted(t *testing.T) {
	f := newFixture(t)
	f.coord.Stop()
	assert.False(t, f.coord.Running())
}

func TestTrigger_NotRunning(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.coord.Trigger(TriggerManual))
	assert.False(t, f.coord.OnForeground())
	assert.Zero(t, f.prober.Probes())
}

func TestTrigger_RunsCycle(t *testing.T) {
	results, obs := observed(16)
	f := newFixture(t, obs, WithInterval(time.Hour))

	require.NoError(t, f.coord.Start(context.Background()))
	defer f.coord.Stop()
	waitResult(t, results)

	f.enqueue(t, ir.KindAddMoney, ir.AddMoney{Amount: 5, PaymentMethod: "upi"})
	require.True(t, f.coord.OnForeground())

	res := waitResult(t, results)
	assert.Equal(t, 1, res.Processed)
}

func TestOnConnectivityChange(t *testing.T) {
	results, obs := observed(16)
	f := newFixture(t, obs, WithInterval(time.Hour))
	f.prober.SetOnline(false)

	require.NoError(t, f.coord.Start(context.Background()))
	defer f.coord.Stop()
	assert.Equal(t, ir.ReasonOffline, waitResult(t, results).Reason)

	f.enqueue(t, ir.KindCancelOrder, ir.CancelOrder{OrderID: "o-1"})
	assert.False(t, f.coord.OnConnectivityChange(false))

	f.prober.SetOnline(true)
	require.True(t, f.coord.OnConnectivityChange(true))

	res := waitResult(t, results)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Processed)
}

func TestStart_ParentContextCancel(t *testing.T) {
	f := newFixture(t, WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.coord.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		f.coord.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after parent cancellation")
	}
}

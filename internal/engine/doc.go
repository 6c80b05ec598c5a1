// Package engine implements the sync coordinator.
//
// The Coordinator decides when to replay queued actions and refresh the
// cache. A cycle moves through the phases
//
//	Idle -> Checking -> Idle                            (offline)
//	Idle -> Checking -> Draining -> RefreshingCache -> Idle
//
// and is always entered through RunCycle.
//
// CONCURRENCY:
//
// At most one cycle runs at a time. The guard is an atomic flag, so a
// trigger that races an in-flight cycle returns a skipped result at once
// without touching the queue or the backend. Timer ticks, connectivity
// changes and foreground events all go through the same guard.
//
// CANCELLATION:
//
// A cancelled context stops the drain between actions. The remote call in
// flight is detached from cancellation and allowed to finish, so its
// outcome is always recorded against the queue.
//
// ORDERING:
//
// Actions are replayed strictly in enqueue order from one snapshot taken
// at the start of the drain. A failed action keeps its position.
package engine

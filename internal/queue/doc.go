// Package queue implements the durable offline action queue.
//
// The queue is the sole owner of pending actions. The whole ordered list
// is persisted under the offline_queue key; every mutation reloads the
// list from storage, applies the change, and writes it back in a single
// statement, so a crash never leaves a half-applied mutation.
//
// Callers iterate a Snapshot copy and request changes by ID. Actions keep
// their enqueue order; a failed replay never moves an action.
package queue

// Package store provides the SQLite-backed durable tier of the offline engine.
//
// The store is a flat key-value namespace. Keys in use:
//   - cache_<resource>: cached resource envelopes written by package cache
//   - offline_queue: the ordered pending action list owned by package queue
//   - user_preferences, search_history, watchlist, learning_progress:
//     auxiliary records owned by package records
//
// Every exported operation is a single SQL statement, so callers never
// observe a half-written value.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store

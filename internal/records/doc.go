// Package records keeps small per-user records next to the sync data:
// preferences, search history, the watchlist and learning progress.
//
// Each record is one JSON document in the durable store. The watchlist and
// learning progress are also written through the cache so screens read
// them without touching storage. Reads fail open: a missing or unreadable
// record comes back empty and the failure is logged.
package records

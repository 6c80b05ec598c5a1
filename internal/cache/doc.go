// Package cache implements the two-tier local cache.
//
// Reads check a fast in-memory primary tier, then the durable fallback
// tier (package store). A valid durable hit is promoted back into the
// primary tier. Expired entries are deleted lazily on read, or by Sweep.
//
// The cache is fail-open: storage failures and undecodable values degrade
// to a miss and are logged, never returned to the caller.
package cache

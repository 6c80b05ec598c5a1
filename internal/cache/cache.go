package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/inr100/offsync/internal/ir"
)

// Durable is the fallback tier. *store.Store implements it.
type Durable interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Loader fetches a resource from the backend on a cache miss.
type Loader func(ctx context.Context) (any, error)

// Stats counts cache outcomes since construction.
type Stats struct {
	PrimaryHits int64 `json:"primary_hits"`
	DurableHits int64 `json:"durable_hits"`
	Misses      int64 `json:"misses"`
	Expired     int64 `json:"expired"`
	Corrupt     int64 `json:"corrupt"`
	StorageErrs int64 `json:"storage_errors"`
}

// Cache is the two-tier local cache.
//
// Thread-safety: all methods are safe for concurrent use. The primary tier
// is guarded by an RWMutex. Every operation that writes or deletes a key
// holds that key's lock across both tiers, so the tiers never disagree
// about the latest write.
type Cache struct {
	mu      sync.RWMutex
	primary map[string]ir.CacheEntry

	durable Durable
	clock   ir.Clock
	policy  Policy
	loads   singleflight.Group
	keys    keyLocks

	primaryHits atomic.Int64
	durableHits atomic.Int64
	misses      atomic.Int64
	expired     atomic.Int64
	corrupt     atomic.Int64
	storageErrs atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the clock used for storedAt and expiry checks.
func WithClock(c ir.Clock) Option {
	return func(cc *Cache) {
		cc.clock = c
	}
}

// WithPolicy replaces the TTL policy table.
func WithPolicy(p Policy) Option {
	return func(cc *Cache) {
		cc.policy = p
	}
}

// New creates a Cache backed by durable.
func New(durable Durable, opts ...Option) *Cache {
	c := &Cache{
		primary: make(map[string]ir.CacheEntry),
		durable: durable,
		clock:   ir.SystemClock{},
		policy:  DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the TTL policy in use.
func (c *Cache) Policy() Policy {
	return c.policy
}

// Put stores value under key with the given ttl.
//
// Put never fails from the caller's point of view: encoding and storage
// errors are logged. The primary tier is written even if the durable write
// fails. Both tiers are written under the key's lock, so overlapping Puts
// leave the tiers holding the same value.
func (c *Cache) Put(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache put: encode failed", "key", key, "error", err)
		return
	}

	unlock := c.keys.lock(key)
	defer unlock()

	entry := ir.CacheEntry{
		Key:      key,
		Payload:  payload,
		StoredAt: c.clock.Now(),
		TTL:      ttl,
	}

	c.mu.Lock()
	c.primary[key] = entry
	c.mu.Unlock()

	data, err := encodeEntry(entry)
	if err != nil {
		slog.Warn("cache put: encode envelope failed", "key", key, "error", err)
		return
	}
	if err := c.durable.Put(ctx, durableKey(key), data); err != nil {
		c.storageErrs.Add(1)
		slog.Warn("cache put: durable write failed", "key", key, "error", err)
		return
	}

	slog.Debug("cached", "key", key, "ttl", ttl)
}

// PutResource stores value with the policy TTL for resource.
func (c *Cache) PutResource(ctx context.Context, resource string, value any) {
	c.Put(ctx, resource, value, c.policy.TTL(resource))
}

// Get returns the payload stored under key.
//
// The primary tier is checked first. On a primary miss the durable tier is
// consulted and a valid entry is promoted. An expired entry from either
// tier is deleted from both and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	now := c.clock.Now()

	c.mu.RLock()
	entry, ok := c.primary[key]
	c.mu.RUnlock()

	if ok && entry.Valid(now) {
		c.primaryHits.Add(1)
		return entry.Payload, true
	}

	// Slow path: the read, any lazy delete and the promotion happen under
	// the key's lock so a concurrent Put is never undone.
	unlock := c.keys.lock(key)
	defer unlock()

	c.mu.RLock()
	entry, ok = c.primary[key]
	c.mu.RUnlock()

	if ok {
		if entry.Valid(now) {
			c.primaryHits.Add(1)
			return entry.Payload, true
		}
		c.expired.Add(1)
		c.misses.Add(1)
		c.removeLocked(ctx, key)
		return nil, false
	}

	data, found, err := c.durable.Get(ctx, durableKey(key))
	if err != nil {
		c.storageErrs.Add(1)
		c.misses.Add(1)
		slog.Warn("cache get: durable read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		c.misses.Add(1)
		return nil, false
	}

	entry, err = decodeEntry(key, data)
	if err != nil {
		c.corrupt.Add(1)
		c.misses.Add(1)
		slog.Warn("cache get: discarding corrupt entry", "key", key, "error", err)
		c.deleteDurable(ctx, key)
		return nil, false
	}

	if !entry.Valid(now) {
		c.expired.Add(1)
		c.misses.Add(1)
		c.deleteDurable(ctx, key)
		return nil, false
	}

	c.mu.Lock()
	c.primary[key] = entry
	c.mu.Unlock()
	c.durableHits.Add(1)
	return entry.Payload, true
}

// Lookup returns the value under key decoded into T.
// A payload that does not decode into T is discarded and reported as a miss.
func Lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	payload, ok := c.Get(ctx, key)
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		c.corrupt.Add(1)
		slog.Warn("cache lookup: discarding undecodable payload", "key", key, "error", err)
		c.discard(ctx, key, payload)
		return zero, false
	}
	return v, true
}

// discard removes key from both tiers unless a different payload was
// stored since payload was read.
func (c *Cache) discard(ctx context.Context, key string, payload json.RawMessage) {
	unlock := c.keys.lock(key)
	defer unlock()

	c.mu.RLock()
	cur, ok := c.primary[key]
	c.mu.RUnlock()
	if ok && !bytes.Equal(cur.Payload, payload) {
		return
	}
	c.removeLocked(ctx, key)
}

// GetOrLoad returns the cached payload for resource, loading it on a miss.
//
// Concurrent misses for the same resource share one loader call. A loaded
// value is written through with the policy TTL. Loader errors are returned;
// nothing is cached for them.
func (c *Cache) GetOrLoad(ctx context.Context, resource string, load Loader) (json.RawMessage, error) {
	if payload, ok := c.Get(ctx, resource); ok {
		return payload, nil
	}

	v, err, _ := c.loads.Do(resource, func() (any, error) {
		if payload, ok := c.Get(ctx, resource); ok {
			return payload, nil
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, ir.NewError(ir.ErrCodeParse, "encode loaded value", resource, err)
		}
		c.PutResource(ctx, resource, json.RawMessage(payload))
		return json.RawMessage(payload), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Invalidate removes key from both tiers. Idempotent.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	unlock := c.keys.lock(key)
	defer unlock()
	c.removeLocked(ctx, key)
}

// removeLocked deletes key from both tiers. The caller holds the key's lock.
func (c *Cache) removeLocked(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.primary, key)
	c.mu.Unlock()

	c.deleteDurable(ctx, key)
}

func (c *Cache) deleteDurable(ctx context.Context, key string) {
	if err := c.durable.Delete(ctx, durableKey(key)); err != nil {
		c.storageErrs.Add(1)
		slog.Warn("cache: durable delete failed", "key", key, "error", err)
	}
}

// Sweep removes expired and corrupt entries from both tiers and returns
// the number of distinct keys removed. Lazy expiry on read already bounds
// staleness; Sweep only reclaims space.
//
// Each key is re-checked under its lock, so an entry written while the
// sweep runs is kept.
func (c *Cache) Sweep(ctx context.Context) int {
	candidates := make(map[string]struct{})

	c.mu.RLock()
	for key := range c.primary {
		candidates[key] = struct{}{}
	}
	c.mu.RUnlock()

	keys, err := c.durable.Keys(ctx, KeyPrefix)
	if err != nil {
		c.storageErrs.Add(1)
		slog.Warn("cache sweep: list keys failed", "error", err)
	}
	for _, dk := range keys {
		candidates[strings.TrimPrefix(dk, KeyPrefix)] = struct{}{}
	}

	removed := 0
	for key := range candidates {
		if c.sweepKey(ctx, key) {
			removed++
		}
	}

	slog.Info("cache swept", "removed", removed)
	return removed
}

// sweepKey drops key from whichever tier holds it expired or corrupt.
func (c *Cache) sweepKey(ctx context.Context, key string) bool {
	unlock := c.keys.lock(key)
	defer unlock()

	now := c.clock.Now()
	expired, corrupt := false, false

	c.mu.Lock()
	if entry, ok := c.primary[key]; ok && !entry.Valid(now) {
		delete(c.primary, key)
		expired = true
	}
	c.mu.Unlock()

	data, found, err := c.durable.Get(ctx, durableKey(key))
	switch {
	case err != nil:
		c.storageErrs.Add(1)
		slog.Warn("cache sweep: read failed", "key", key, "error", err)
	case found:
		entry, err := decodeEntry(key, data)
		if err != nil {
			corrupt = true
		} else if !entry.Valid(now) {
			expired = true
		}
		if err != nil || !entry.Valid(now) {
			c.deleteDurable(ctx, key)
		}
	}

	switch {
	case corrupt:
		c.corrupt.Add(1)
	case expired:
		c.expired.Add(1)
	}
	return expired || corrupt
}

// Clear drops every cached entry from both tiers.
//
// The durable tier is emptied first: a Put racing with Clear then survives
// in the durable tier and is still served from there.
func (c *Cache) Clear(ctx context.Context) {
	n, err := c.durable.DeletePrefix(ctx, KeyPrefix)
	if err != nil {
		c.storageErrs.Add(1)
		slog.Warn("cache clear: durable delete failed", "error", err)
	}

	c.mu.Lock()
	c.primary = make(map[string]ir.CacheEntry)
	c.mu.Unlock()

	if err == nil {
		slog.Info("cache cleared", "removed", n)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		PrimaryHits: c.primaryHits.Load(),
		DurableHits: c.durableHits.Load(),
		Misses:      c.misses.Load(),
		Expired:     c.expired.Load(),
		Corrupt:     c.corrupt.Load(),
		StorageErrs: c.storageErrs.Load(),
	}
}

// inPrimary reports whether key is held in the primary tier. Used for testing.
func (c *Cache) inPrimary(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.primary[key]
	return ok
}

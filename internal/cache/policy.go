package cache

import (
	"maps"
	"time"
)

// Resource names for the canonical cached resources.
const (
	ResourcePortfolio        = "portfolio"
	ResourceMarketData       = "market_data"
	ResourceWatchlist        = "watchlist"
	ResourceLearningProgress = "learning_progress"
)

// DefaultTTL applies to resources without an explicit policy entry.
const DefaultTTL = 60 * time.Minute

// Policy maps resource names to TTLs. It is a value type; With returns a copy.
type Policy struct {
	defaultTTL time.Duration
	ttls       map[string]time.Duration
}

// DefaultPolicy returns the built-in TTL table.
func DefaultPolicy() Policy {
	return Policy{
		defaultTTL: DefaultTTL,
		ttls: map[string]time.Duration{
			ResourcePortfolio:        30 * time.Minute,
			ResourceMarketData:       5 * time.Minute,
			ResourceWatchlist:        60 * time.Minute,
			ResourceLearningProgress: 120 * time.Minute,
		},
	}
}

// TTL returns the time-to-live for resource.
func (p Policy) TTL(resource string) time.Duration {
	if ttl, ok := p.ttls[resource]; ok {
		return ttl
	}
	if p.defaultTTL > 0 {
		return p.defaultTTL
	}
	return DefaultTTL
}

// With returns a copy of p with resource bound to ttl.
func (p Policy) With(resource string, ttl time.Duration) Policy {
	ttls := maps.Clone(p.ttls)
	if ttls == nil {
		ttls = make(map[string]time.Duration)
	}
	ttls[resource] = ttl
	return Policy{defaultTTL: p.defaultTTL, ttls: ttls}
}

// WithDefault returns a copy of p using ttl for unlisted resources.
func (p Policy) WithDefault(ttl time.Duration) Policy {
	return Policy{defaultTTL: ttl, ttls: maps.Clone(p.ttls)}
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 30*time.Minute, p.TTL(ResourcePortfolio))
	assert.Equal(t, 5*time.Minute, p.TTL(ResourceMarketData))
	assert.Equal(t, 60*time.Minute, p.TTL(ResourceWatchlist))
	assert.Equal(t, 120*time.Minute, p.TTL(ResourceLearningProgress))
	assert.Equal(t, DefaultTTL, p.TTL("unknown"))
}

func TestPolicy_WithCopies(t *testing.T) {
	base := DefaultPolicy()
	custom := base.With(ResourceMarketData, time.Minute).WithDefault(10 * time.Minute)

	assert.Equal(t, time.Minute, custom.TTL(ResourceMarketData))
	assert.Equal(t, 10*time.Minute, custom.TTL("unknown"))
	assert.Equal(t, 5*time.Minute, base.TTL(ResourceMarketData), "base unchanged")
	assert.Equal(t, DefaultTTL, base.TTL("unknown"))
}

func TestPolicy_ZeroValue(t *testing.T) {
	var p Policy
	assert.Equal(t, DefaultTTL, p.TTL(ResourcePortfolio))
	assert.Equal(t, time.Minute, p.With("x", time.Minute).TTL("x"))
}

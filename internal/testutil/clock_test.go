package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	clock := NewFakeClock()
	assert.Equal(t, DefaultEpoch, clock.Now())
}

func TestFakeClock_FrozenUntilAdvanced(t *testing.T) {
	clock := NewFakeClock()
	first := clock.Now()
	assert.Equal(t, first, clock.Now())

	clock.Advance(90 * time.Second)
	assert.Equal(t, first.Add(90*time.Second), clock.Now())
}

func TestFakeClock_Set(t *testing.T) {
	clock := NewFakeClock()
	target := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(target)
	assert.Equal(t, target, clock.Now())
}

func TestFakeClock_ThreadSafe(t *testing.T) {
	clock := NewFakeClockAt(time.Unix(0, 0))
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Unix(numGoroutines, 0), clock.Now())
}

package cache

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLocks serializes operations per key with a fixed set of striped
// mutexes. Keys sharing a stripe serialize with each other; no caller
// ever holds two stripes at once.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripe for key and returns its unlock function.
func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

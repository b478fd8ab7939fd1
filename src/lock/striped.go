// Package lock serialises work on the same record coordinate.
package lock

import (
	"sync"

	"github.com/OneOfOne/xxhash"
)

// DefaultStripes is used when New is given a non-positive count.
const DefaultStripes = 64

// Striped is a fixed set of mutexes selected by key hash. Two keys may share a
// stripe; that only costs concurrency, never correctness.
type Striped struct {
	stripes []sync.Mutex
}

// New returns a lock set with n stripes.
func New(n int) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Striped{stripes: make([]sync.Mutex, n)}
}

func (s *Striped) index(key string) int {
	hash := xxhash.NewS64(0)
	hash.Write([]byte(key))
	return int(hash.Sum64() % uint64(len(s.stripes)))
}

// Lock acquires the stripe for key and returns its release func.
func (s *Striped) Lock(key string) func() {
	mu := &s.stripes[s.index(key)]
	mu.Lock()
	return mu.Unlock
}

// LockAll acquires every stripe in order. The weekly sweep holds it so no
// submission interleaves with a clear.
func (s *Striped) LockAll() func() {
	for i := range s.stripes {
		s.stripes[i].Lock()
	}
	return func() {
		for i := len(s.stripes) - 1; i >= 0; i-- {
			s.stripes[i].Unlock()
		}
	}
}

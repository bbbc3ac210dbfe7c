// Package lock provides per-key mutual exclusion for read-modify-write sequences.
package lock

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultStripes is the number of stripes used by New.
const DefaultStripes = 64

// Striped maps keys onto a fixed set of mutexes by their xxhash. Two keys may share a
// stripe, so callers must never hold more than one stripe of the same Striped at once.
type Striped struct {
	stripes []sync.Mutex
}

// New creates a Striped lock with DefaultStripes stripes.
func New() *Striped {
	return NewWithStripes(DefaultStripes)
}

// NewWithStripes creates a Striped lock with n stripes. n below one is treated as one.
func NewWithStripes(n int) *Striped {
	if n < 1 {
		n = 1
	}
	return &Striped{stripes: make([]sync.Mutex, n)}
}

func (s *Striped) stripe(key string) *sync.Mutex {
	return &s.stripes[xxhash.Sum64String(key)%uint64(len(s.stripes))]
}

// Lock acquires the stripe of key and returns its release function.
func (s *Striped) Lock(key string) func() {
	mu := s.stripe(key)
	mu.Lock()
	return mu.Unlock
}

// Do runs fn while holding the stripe of key. The context is checked before fn runs.
func (s *Striped) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	unlock := s.Lock(key)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

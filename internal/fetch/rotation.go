package fetch

import (
	"math/rand"
	"sync"
	"time"
)

// RotationStrategy decides the order in which proxy templates are
// tried for one call. Kept as an interface so a latency-weighted or
// priority-ordered scheme can replace shuffling without touching the
// fetcher.
type RotationStrategy interface {
	// Order returns a permutation of [0, n)
	Order(n int) []int
}

// ShuffleRotation shuffles the proxy order randomly per call, which
// spreads load across third-party relays instead of always hammering
// the first one.
type ShuffleRotation struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShuffleRotation creates a shuffle strategy seeded from the clock
func NewShuffleRotation() *ShuffleRotation {
	return &ShuffleRotation{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewShuffleRotationSeeded creates a deterministic shuffle strategy
func NewShuffleRotationSeeded(seed int64) *ShuffleRotation {
	return &ShuffleRotation{rng: rand.New(rand.NewSource(seed))}
}

// Order returns a random permutation of [0, n)
func (s *ShuffleRotation) Order(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}

// FixedRotation tries proxies in declaration order. Used in tests and
// useful when the first relay is known to be the fastest.
type FixedRotation struct{}

// Order returns 0..n-1 in order
func (FixedRotation) Order(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

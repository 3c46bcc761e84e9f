package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Range returns a random range [off, off+n) with off < maxOffset and
// 1 <= n <= maxLen.
func (r *RNG) Range(maxOffset uint64, maxLen int) (uint64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(r.rand.Int63n(int64(maxOffset))), 1 + r.rand.Intn(maxLen)
}

// LogByte is the content of the simulated log at off. Log bytes never change,
// so any two reads covering off agree on it.
func LogByte(off uint64) byte {
	return byte(off*31 + 7)
}

// LogBytes returns the simulated log content of [off, off+n).
func LogBytes(off uint64, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = LogByte(off + uint64(i))
	}
	return b
}

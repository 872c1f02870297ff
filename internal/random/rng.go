// Package random provides the deterministic pseudo-random source used by
// variant generation. The recurrence is fixed by contract: an identical seed
// string must reproduce a byte-identical shuffle sequence across platforms,
// runs and releases, which rules out math/rand's version-dependent stream.
package random

// Rand is a linear-congruential generator seeded from a string hash.
// Instances are single-use mutable state: construct one per variant and
// never share it across variants or calls.
type Rand struct {
	state uint32
}

// New creates a generator for the given seed string.
func New(seed string) *Rand {
	return &Rand{state: Hash(seed)}
}

// Hash maps a seed string onto the 32-bit LCG state space.
func Hash(seed string) uint32 {
	var h uint32
	for _, c := range seed {
		h = h*31 + uint32(c)
	}
	if h == 0 {
		h = 0x9e3779b9
	}
	return h
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state = r.state*1664525 + 1013904223
	return float64(r.state) / (1 << 32)
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(r.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Perm returns a Fisher-Yates permutation of 0..n-1.
func (r *Rand) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Sample returns k distinct values from 0..n-1 in shuffled order.
func (r *Rand) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	return r.Perm(n)[:k]
}

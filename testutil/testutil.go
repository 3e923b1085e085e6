// Package testutil provides seeded randomness and a deterministic fake
// encoder for tests.
package testutil

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"

	"github.com/kbdebugger/graphsim/distance"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Float32 returns a pseudo-random number in [0, 1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Vectors generates num pseudo-random vectors of the given dimension.
func (r *RNG) Vectors(num, dim int) [][]float32 {
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = make([]float32, dim)
		for j := range vectors[i] {
			vectors[i][j] = r.Float32()
		}
	}
	return vectors
}

// HashEncoder is a deterministic fake encoder: each text is embedded as a
// unit-norm pseudo-random vector seeded by the text's hash. Identical texts
// map to identical vectors; distinct texts are near-orthogonal in high
// dimensions. Not semantically meaningful - test plumbing only.
type HashEncoder struct {
	Dim int
}

// NewHashEncoder creates a HashEncoder with the given dimension.
func NewHashEncoder(dim int) *HashEncoder {
	return &HashEncoder{Dim: dim}
}

// Encode embeds each text deterministically.
func (e *HashEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, text := range texts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		rng := rand.New(rand.NewSource(int64(h.Sum64()))) // nolint gosec

		v := make([]float32, e.Dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		distance.NormalizeL2InPlace(v)
		out[i] = v
	}

	return out, nil
}

// Dimension returns the configured embedding dimension.
func (e *HashEncoder) Dimension() int {
	return e.Dim
}

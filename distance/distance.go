// Package distance provides the vector math used by the index backends:
// inner products and the L2 normalization that turns inner product into
// cosine similarity.
package distance

import (
	"slices"

	"github.com/kbdebugger/graphsim/internal/math32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
//
// For L2-normalized vectors the dot product equals cosine similarity.
func Dot(a, b []float32) float32 {
	return math32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// CosineDistance returns 1 - dot(a, b).
//
// Both vectors must already be L2-normalized; the result is then the cosine
// distance in [0, 2]. This is the ordering function used by the graph-based
// index backend, which ranks by ascending distance.
func CosineDistance(a, b []float32) float32 {
	return 1 - math32.Dot(a, b)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm; v is left untouched in that case
// rather than filled with NaNs.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := math32.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / math32.Sqrt(norm2)
	math32.ScaleInPlace(v, inv)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// A zero-norm src is returned as an unmodified copy.
func NormalizeL2Copy(src []float32) []float32 {
	dst := slices.Clone(src)
	NormalizeL2InPlace(dst)
	return dst
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

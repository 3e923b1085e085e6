// Package index defines the contract shared by the vector index backends.
//
// An index is append-then-query: vectors are added together with an opaque
// payload, receive sequential uint32 IDs, and are L2-normalized on ingestion
// so that inner product equals cosine similarity. Queries are normalized the
// same way. Backends report scores as cosine similarity (higher is better).
//
// When a query cannot be served with k real neighbors (index smaller than k),
// backends fill the remaining slots with InvalidID; AssembleBatch masks those
// slots out of the payload lists and forces their score slots to exactly 0,
// so downstream thresholding stays deterministic regardless of backend.
package index

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// InvalidID is the sentinel ID used for unfilled result slots.
var InvalidID = uint32(math.MaxUint32)

// ErrInvalidK is returned when a backend is invoked with k <= 0.
// Callers going through SearchBatch never see it: k <= 0 short-circuits
// before the backend runs.
var ErrInvalidK = errors.New("k must be positive")

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrLengthMismatch indicates that Add was called with different numbers of
// vectors and payloads.
type ErrLengthMismatch struct {
	Vectors  int
	Payloads int
}

// Error returns the error message for a vector/payload count mismatch.
func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("length mismatch: %d vectors, %d payloads", e.Vectors, e.Payloads)
}

// SearchResult is one backend-level hit: a vector ID and its cosine
// similarity to the query. Backends emit rows of exactly k results, padded
// with InvalidID slots when the index holds fewer than k vectors.
type SearchResult struct {
	ID    uint32
	Score float32
}

// Hit pairs a payload with its cosine similarity score.
type Hit[T any] struct {
	Payload T
	Score   float32
}

// BatchResult is the masked, payload-resolved result of one batched search.
//
// Neighbors[i] holds the payloads for query i, highest score first, with
// sentinel slots removed (length <= k). Scores[i] always has exactly k
// entries aligned with the backend's slot order; masked slots carry 0.
type BatchResult[T any] struct {
	Neighbors [][]T
	Scores    [][]float32
}

// Index is the contract both backends satisfy.
//
// Implementations are safe for concurrent read-only queries once fully
// built; Add must not be interleaved with searches.
type Index[T any] interface {
	// Add appends vectors and their payloads. Vectors are L2-normalized
	// before storage; IDs continue from the current size.
	Add(vectors [][]float32, payloads []T) error

	// SearchBatch returns the k best entries per query, sorted by
	// descending score, masked per the package rules.
	SearchBatch(queries [][]float32, k int, opts ...SearchOption) (*BatchResult[T], error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the fixed vector dimensionality.
	Dimension() int
}

// SearchOptions carries per-search tuning shared across backends.
type SearchOptions struct {
	// Filter restricts results to IDs for which it returns true.
	// A nil filter admits everything.
	Filter func(id uint32) bool

	// EFSearch overrides the candidate list width for graph-based
	// backends. Exact backends ignore it.
	EFSearch int
}

// SearchOption mutates SearchOptions.
type SearchOption func(*SearchOptions)

// WithFilter restricts search results to IDs admitted by f.
func WithFilter(f func(id uint32) bool) SearchOption {
	return func(o *SearchOptions) {
		o.Filter = f
	}
}

// WithAllowlist restricts search results to IDs contained in the bitmap.
func WithAllowlist(bm *roaring.Bitmap) SearchOption {
	return func(o *SearchOptions) {
		o.Filter = bm.Contains
	}
}

// WithEFSearch overrides the graph search width for this call.
func WithEFSearch(ef int) SearchOption {
	return func(o *SearchOptions) {
		o.EFSearch = ef
	}
}

// ApplySearchOptions folds opts into a SearchOptions value.
func ApplySearchOptions(opts []SearchOption) SearchOptions {
	var o SearchOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Search is the single-query convenience wrapper over SearchBatch.
//
// It is defined purely in terms of SearchBatch so normalization and masking
// exist in exactly one place.
func Search[T any](idx Index[T], query []float32, k int, opts ...SearchOption) ([]Hit[T], error) {
	res, err := idx.SearchBatch([][]float32{query}, k, opts...)
	if err != nil {
		return nil, err
	}
	if len(res.Neighbors) == 0 {
		return nil, nil
	}

	row := res.Neighbors[0]
	scores := res.Scores[0]

	// Neighbor rows may be shorter than the score row when the index is
	// under-filled; align on the shorter of the two.
	n := min(len(row), len(scores))
	hits := make([]Hit[T], 0, n)
	for i := 0; i < n; i++ {
		hits = append(hits, Hit[T]{Payload: row[i], Score: scores[i]})
	}
	return hits, nil
}

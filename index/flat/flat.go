// Package flat provides the exact brute-force index backend.
//
// Search is a full inner-product scan over the stored (normalized) vectors:
// deterministic, O(N*Q*dim), and the preferred backend when the indexed set
// is a single retrieved subgraph of at most a few hundred relations.
package flat

import (
	"container/heap"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kbdebugger/graphsim/distance"
	"github.com/kbdebugger/graphsim/index"
	"github.com/kbdebugger/graphsim/internal/queue"
)

// Compile-time check to ensure Index satisfies the backend contract.
var _ index.Index[string] = (*Index[string])(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all adds and searches.
	Dimension int

	// CapacityHint pre-sizes internal storage. Advisory only; the flat
	// backend grows dynamically regardless.
	CapacityHint int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension:    0,
	CapacityHint: 0,
}

// Index is an exact inner-product index over L2-normalized vectors.
//
// It is safe for concurrent read-only searches once fully built; Add must
// not be interleaved with searches.
type Index[T any] struct {
	dim     int
	vectors [][]float32
	arena   *index.Arena[T]
	mu      sync.Mutex // serializes Add
}

// New creates a new flat index. Dimension is required.
func New[T any](optFns ...func(o *Options)) (*Index[T], error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: opts.Dimension}
	}

	return &Index[T]{
		dim:     opts.Dimension,
		vectors: make([][]float32, 0, opts.CapacityHint),
		arena:   index.NewArena[T](opts.CapacityHint),
	}, nil
}

// Len returns the number of indexed vectors.
func (f *Index[T]) Len() int {
	return f.arena.Len()
}

// Dimension returns the fixed vector dimensionality.
func (f *Index[T]) Dimension() int {
	return f.dim
}

// Add appends vectors and payloads. Vectors are L2-normalized copies; the
// caller keeps ownership of its slices. IDs continue from the current size.
func (f *Index[T]) Add(vectors [][]float32, payloads []T) error {
	if err := index.ValidateAdd(f.dim, vectors, payloads); err != nil {
		return err
	}

	normalized := index.NormalizeRows(vectors)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.vectors = append(f.vectors, normalized...)
	f.arena.Append(payloads)

	return nil
}

// SearchBatch scans the index once per query and returns the k best entries
// per query, sorted by descending cosine similarity.
//
// Rows are computed in parallel; each query owns its output slot, so the
// result is identical to a sequential scan.
func (f *Index[T]) SearchBatch(queries [][]float32, k int, opts ...index.SearchOption) (*index.BatchResult[T], error) {
	if err := index.ValidateQueries(f.dim, queries); err != nil {
		return nil, err
	}

	if k <= 0 {
		return index.EmptyBatch[T](len(queries)), nil
	}

	so := index.ApplySearchOptions(opts)
	normalized := index.NormalizeRows(queries)
	rows := make([][]index.SearchResult, len(queries))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, q := range normalized {
		g.Go(func() error {
			rows[i] = f.scan(q, k, so.Filter)
			return nil
		})
	}

	// Workers return no errors; Wait is for completion only.
	_ = g.Wait()

	return index.AssembleBatch(f.arena, rows, k), nil
}

// scan is the bounded top-k scan for one normalized query.
func (f *Index[T]) scan(q []float32, k int, filter func(id uint32) bool) []index.SearchResult {
	// Min-heap on score: the root is the weakest of the current top-k.
	top := &queue.PriorityQueue{}
	heap.Init(top)

	for id, v := range f.vectors {
		if filter != nil && !filter(uint32(id)) {
			continue
		}

		score := distance.Dot(q, v)

		if top.Len() < k {
			heap.Push(top, &queue.PriorityQueueItem{ID: uint32(id), Distance: score})
			continue
		}

		if score > top.Top().Distance {
			heap.Pop(top)
			heap.Push(top, &queue.PriorityQueueItem{ID: uint32(id), Distance: score})
		}
	}

	// Drain the heap weakest-first into the tail of a fixed-k row, leaving
	// sentinel padding at the end when the index is under-filled.
	row := make([]index.SearchResult, top.Len(), k)
	for i := top.Len() - 1; i >= 0; i-- {
		item, _ := heap.Pop(top).(*queue.PriorityQueueItem)
		row[i] = index.SearchResult{ID: item.ID, Score: item.Distance}
	}

	return index.PadRow(row, k)
}

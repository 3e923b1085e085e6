// Package hnsw provides the approximate index backend: a hierarchical
// navigable small world graph over L2-normalized vectors.
//
// It satisfies the same contract as the exact flat backend, trading a small,
// bounded recall loss for sub-linear query time on larger indexed sets. The
// construction tunables default toward recall over raw speed, since the
// downstream threshold decision depends on recall.
package hnsw

import (
	"container/heap"
	"math"
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/kbdebugger/graphsim/distance"
	"github.com/kbdebugger/graphsim/index"
	"github.com/kbdebugger/graphsim/internal/queue"
)

// Compile-time check to ensure Index satisfies the backend contract.
var _ index.Index[string] = (*Index[string])(nil)

// Options represents the construction-time options for the HNSW backend.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all adds and searches.
	Dimension int

	// CapacityHint pre-sizes the node and payload storage.
	CapacityHint int

	// M is the number of established connections per element and layer.
	// Higher M improves recall on high-dimensional data at the cost of
	// memory and construction time. 12-48 covers most use cases.
	M int

	// EFConstruction is the candidate list width during insertion.
	// Larger values build a better graph, slower.
	EFConstruction int

	// EFSearch is the default candidate list width during search. It is
	// clamped to at least k per query so a top-k request can be filled.
	EFSearch int

	// Seed fixes the level-generation RNG so that index construction is
	// reproducible for a fixed insertion order.
	Seed int64
}

// DefaultOptions contains the default configuration options for the HNSW
// backend, balanced for recall over speed.
var DefaultOptions = Options{
	M:              16,
	EFConstruction: 200,
	EFSearch:       100,
	Seed:           1,
}

type node struct {
	vector      []float32
	connections [][]uint32 // links per level
	layer       int
}

// Index is a navigable small world graph index.
//
// It is safe for concurrent read-only searches once fully built; Add must
// not be interleaved with searches.
type Index[T any] struct {
	dim      int
	mmax     int     // max connections per element per layer
	mmax0    int     // max for layer 0
	ml       float64 // normalization factor for level generation
	ep       uint32  // entry point
	maxLevel int

	nodes []*node
	arena *index.Arena[T]
	rng   *rand.Rand

	distFunc distance.Func
	opts     Options

	mu sync.Mutex // serializes Add
}

// New creates a new HNSW index. Dimension is required.
func New[T any](optFns ...func(o *Options)) (*Index[T], error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: opts.Dimension}
	}

	if opts.M < 2 {
		// M == 1 would make the level normalization 1/log(M) divide by zero.
		opts.M = 2
	}

	return &Index[T]{
		dim:      opts.Dimension,
		mmax:     opts.M,
		mmax0:    2 * opts.M,
		ml:       1 / math.Log(float64(opts.M)),
		nodes:    make([]*node, 0, opts.CapacityHint),
		arena:    index.NewArena[T](opts.CapacityHint),
		rng:      rand.New(rand.NewSource(opts.Seed)), // nolint gosec
		distFunc: distance.CosineDistance,
		opts:     opts,
	}, nil
}

// Len returns the number of indexed vectors.
func (h *Index[T]) Len() int {
	return h.arena.Len()
}

// Dimension returns the fixed vector dimensionality.
func (h *Index[T]) Dimension() int {
	return h.dim
}

// Add appends vectors and payloads. Vectors are L2-normalized copies; IDs
// continue from the current size and equal the payload positions.
func (h *Index[T]) Add(vectors [][]float32, payloads []T) error {
	if err := index.ValidateAdd(h.dim, vectors, payloads); err != nil {
		return err
	}

	normalized := index.NormalizeRows(vectors)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, v := range normalized {
		h.insert(v)
	}
	h.arena.Append(payloads)

	return nil
}

// insert links one normalized vector into the graph.
func (h *Index[T]) insert(v []float32) {
	id := uint32(len(h.nodes))
	layer := int(math.Floor(-math.Log(h.rng.Float64()) * h.ml))

	n := &node{
		vector:      v,
		connections: make([][]uint32, layer+1),
		layer:       layer,
	}

	if len(h.nodes) == 0 {
		h.nodes = append(h.nodes, n)
		h.ep = id
		h.maxLevel = layer
		return
	}

	// Greedy descent through the layers above the new node's top layer.
	currID, currDist := h.greedyDescend(v, h.ep, h.distFunc(v, h.nodes[h.ep].vector), n.layer)

	// For every level the new node participates in, collect candidates and
	// link both directions.
	for level := min(n.layer, h.maxLevel); level >= 0; level-- {
		results := h.searchLayer(v, currID, currDist, h.opts.EFConstruction, level, nil)
		neighbors := h.selectNeighbors(v, results, h.mmax)

		n.connections[level] = make([]uint32, len(neighbors))
		for i, item := range neighbors {
			n.connections[level][i] = item.ID
		}

		// The nearest candidate seeds the next lower level.
		if len(neighbors) > 0 {
			currID = neighbors[0].ID
			currDist = neighbors[0].Distance
		}
	}

	h.nodes = append(h.nodes, n)

	for level := min(n.layer, h.maxLevel); level >= 0; level-- {
		for _, neighbor := range n.connections[level] {
			h.link(neighbor, id, level)
		}
	}

	if n.layer > h.maxLevel {
		h.ep = id
		h.maxLevel = n.layer
	}
}

// greedyDescend walks from the entry point down to (but not including)
// downTo, always moving to the closest connected node.
func (h *Index[T]) greedyDescend(q []float32, start uint32, startDist float32, downTo int) (uint32, float32) {
	currID, currDist := start, startDist

	for level := h.nodes[start].layer; level > downTo; level-- {
		changed := true
		for changed {
			changed = false
			curr := h.nodes[currID]
			if level >= len(curr.connections) {
				continue
			}
			for _, cand := range curr.connections[level] {
				d := h.distFunc(q, h.nodes[cand].vector)
				if d < currDist {
					currID, currDist = cand, d
					changed = true
				}
			}
		}
	}

	return currID, currDist
}

// searchLayer performs a best-first search in one layer. The returned queue
// is a max-heap on distance holding at most ef admitted results.
//
// An optional filter restricts which IDs may enter the result set; the
// traversal itself is unrestricted so filtered regions stay reachable.
func (h *Index[T]) searchLayer(q []float32, epID uint32, epDist float32, ef, level int, filter func(id uint32) bool) *queue.PriorityQueue {
	var visited bitset.BitSet
	visited.Set(uint(epID))

	candidates := &queue.PriorityQueue{}
	heap.Init(candidates)
	heap.Push(candidates, &queue.PriorityQueueItem{ID: epID, Distance: epDist})

	results := &queue.PriorityQueue{Descending: true}
	heap.Init(results)
	if filter == nil || filter(epID) {
		heap.Push(results, &queue.PriorityQueueItem{ID: epID, Distance: epDist})
	}

	for candidates.Len() > 0 {
		candidate, _ := heap.Pop(candidates).(*queue.PriorityQueueItem)

		if results.Len() >= ef && candidate.Distance > results.Top().Distance {
			break
		}

		curr := h.nodes[candidate.ID]
		if level >= len(curr.connections) {
			continue
		}

		for _, n := range curr.connections[level] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			d := h.distFunc(q, h.nodes[n].vector)
			if results.Len() >= ef && d >= results.Top().Distance {
				continue
			}

			heap.Push(candidates, &queue.PriorityQueueItem{ID: n, Distance: d})

			if filter == nil || filter(n) {
				heap.Push(results, &queue.PriorityQueueItem{ID: n, Distance: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	return results
}

// selectNeighbors applies the heuristic neighbor selection: a candidate is
// kept only if it is closer to the query than to every already-kept
// neighbor, which spreads connections across clusters. Pruned candidates
// backfill the set if fewer than m survive.
func (h *Index[T]) selectNeighbors(q []float32, results *queue.PriorityQueue, m int) []*queue.PriorityQueueItem {
	// Drain the max-heap into ascending distance order.
	ordered := make([]*queue.PriorityQueueItem, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		ordered[i], _ = heap.Pop(results).(*queue.PriorityQueueItem)
	}

	selected := make([]*queue.PriorityQueueItem, 0, m)
	var pruned []*queue.PriorityQueueItem

	for _, candidate := range ordered {
		if len(selected) >= m {
			break
		}

		keep := true
		for _, s := range selected {
			if h.distFunc(h.nodes[candidate.ID].vector, h.nodes[s.ID].vector) < candidate.Distance {
				keep = false
				break
			}
		}

		if keep {
			selected = append(selected, candidate)
		} else {
			pruned = append(pruned, candidate)
		}
	}

	for _, candidate := range pruned {
		if len(selected) >= m {
			break
		}
		selected = append(selected, candidate)
	}

	return selected
}

// link adds an edge from first to second at the given level, re-pruning the
// connection list when it exceeds the per-level maximum.
func (h *Index[T]) link(first, second uint32, level int) {
	maxConnections := h.mmax
	if level == 0 {
		maxConnections = h.mmax0
	}

	n := h.nodes[first]
	n.connections[level] = append(n.connections[level], second)

	if len(n.connections[level]) <= maxConnections {
		return
	}

	candidates := &queue.PriorityQueue{Descending: true}
	heap.Init(candidates)
	for _, id := range n.connections[level] {
		heap.Push(candidates, &queue.PriorityQueueItem{
			ID:       id,
			Distance: h.distFunc(n.vector, h.nodes[id].vector),
		})
	}

	kept := h.selectNeighbors(n.vector, candidates, maxConnections)

	n.connections[level] = make([]uint32, len(kept))
	for i, item := range kept {
		n.connections[level][i] = item.ID
	}
}

// SearchBatch returns the k best entries per query, sorted by descending
// cosine similarity, masked per the index package rules.
func (h *Index[T]) SearchBatch(queries [][]float32, k int, opts ...index.SearchOption) (*index.BatchResult[T], error) {
	if err := index.ValidateQueries(h.dim, queries); err != nil {
		return nil, err
	}

	if k <= 0 {
		return index.EmptyBatch[T](len(queries)), nil
	}

	so := index.ApplySearchOptions(opts)

	ef := h.opts.EFSearch
	if so.EFSearch > 0 {
		ef = so.EFSearch
	}
	// The candidate list must be able to hold k entries.
	if ef < k {
		ef = k
	}

	normalized := index.NormalizeRows(queries)
	rows := make([][]index.SearchResult, len(normalized))

	for i, q := range normalized {
		rows[i] = h.searchOne(q, k, ef, so.Filter)
	}

	return index.AssembleBatch(h.arena, rows, k), nil
}

// searchOne runs a single query against the graph and produces a fixed-k
// row, best score first, sentinel-padded.
func (h *Index[T]) searchOne(q []float32, k, ef int, filter func(id uint32) bool) []index.SearchResult {
	if len(h.nodes) == 0 {
		return index.PadRow(nil, k)
	}

	epID, epDist := h.greedyDescend(q, h.ep, h.distFunc(q, h.nodes[h.ep].vector), 0)
	results := h.searchLayer(q, epID, epDist, ef, 0, filter)

	for results.Len() > k {
		heap.Pop(results)
	}

	row := make([]index.SearchResult, results.Len(), k)
	for i := results.Len() - 1; i >= 0; i-- {
		item, _ := heap.Pop(results).(*queue.PriorityQueueItem)
		// Cosine similarity = 1 - cosine distance over normalized vectors.
		row[i] = index.SearchResult{ID: item.ID, Score: 1 - item.Distance}
	}

	return index.PadRow(row, k)
}

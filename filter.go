package graphsim

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kbdebugger/graphsim/encoder"
	"github.com/kbdebugger/graphsim/graph"
	"github.com/kbdebugger/graphsim/index"
	"github.com/kbdebugger/graphsim/index/flat"
)

// NewIndexFunc constructs an index backend for a given dimension and
// expected element count. The default builds the exact flat backend, the
// right choice for a single retrieved subgraph of a few hundred relations.
type NewIndexFunc func(dimension, capacityHint int) (index.Index[graph.Relation], error)

// Options contains configuration options for the similarity filter.
type Options struct {
	// TopK is the number of nearest relations retrieved per quality,
	// preserved as context for later verification. Typical values: 3-10.
	TopK int

	// Threshold is the minimum cosine similarity required to keep a
	// quality. Start around 0.50-0.65 depending on the embedding model
	// and corpus; lower keeps more candidates, higher reduces downstream
	// LLM load.
	Threshold float32

	// NewIndex selects the index backend. Defaults to the flat backend.
	NewIndex NewIndexFunc

	// Logger for structured progress output. Defaults to a noop logger.
	Logger *Logger
}

// DefaultOptions contains the default configuration options for the
// similarity filter.
var DefaultOptions = Options{
	TopK:      5,
	Threshold: 0.50,
}

// SubgraphSimilarityFilter filters decomposed qualities by vector
// similarity to a knowledge-graph subgraph.
//
// The same encoder instance must be used for relation sentences and
// candidate qualities; mixing encoders silently produces meaningless
// similarity. The filter is pure computation over its inputs plus the
// injected encoder and index: no LLM calls, no I/O, no retries.
type SubgraphSimilarityFilter struct {
	encoder encoder.Encoder
	opts    Options
}

// New creates a similarity filter around the given encoder.
func New(enc encoder.Encoder, optFns ...func(o *Options)) (*SubgraphSimilarityFilter, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dim := enc.Dimension(); dim <= 0 {
		return nil, &encoder.ErrInvalidDimension{Dimension: dim}
	}

	if opts.NewIndex == nil {
		opts.NewIndex = func(dimension, capacityHint int) (index.Index[graph.Relation], error) {
			return flat.New[graph.Relation](func(o *flat.Options) {
				o.Dimension = dimension
				o.CapacityHint = capacityHint
			})
		}
	}

	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	return &SubgraphSimilarityFilter{
		encoder: enc,
		opts:    opts,
	}, nil
}

// BuildIndex builds a fresh index over the retrieved subgraph relations,
// preserving input order as vector-ID order. Only the retrieved subgraph
// is indexed, not the entire knowledge graph: it is smaller, faster, and
// matches the keyword context of one retrieval.
func (f *SubgraphSimilarityFilter) BuildIndex(ctx context.Context, relations []graph.Relation) (index.Index[graph.Relation], error) {
	if len(relations) == 0 {
		f.opts.Logger.LogBuildIndex(ctx, 0, f.encoder.Dimension(), ErrEmptyRelations)
		return nil, ErrEmptyRelations
	}

	texts := make([]string, len(relations))
	for i, r := range relations {
		texts[i] = RelationToText(r)
	}

	vectors, err := f.encoder.Encode(ctx, texts)
	if err != nil {
		f.opts.Logger.LogBuildIndex(ctx, len(relations), f.encoder.Dimension(), err)
		return nil, err
	}

	idx, err := f.opts.NewIndex(f.encoder.Dimension(), len(relations))
	if err != nil {
		return nil, err
	}

	if err := idx.Add(vectors, relations); err != nil {
		f.opts.Logger.LogBuildIndex(ctx, len(relations), f.encoder.Dimension(), err)
		return nil, err
	}

	f.opts.Logger.LogBuildIndex(ctx, len(relations), f.encoder.Dimension(), nil)

	return idx, nil
}

// FilterQualities partitions qualities into kept and dropped by their best
// similarity to the indexed relations.
//
// All qualities are embedded in one encoder call and searched in one
// SearchBatch call; a per-item search loop would pay the underlying search
// primitive's fixed per-call overhead Q times. Both returned lists are
// sorted by max score descending, stable on original input order for equal
// scores. Empty input returns empty lists, not an error.
func (f *SubgraphSimilarityFilter) FilterQualities(ctx context.Context, idx index.Index[graph.Relation], qualities []Quality, searchOpts ...index.SearchOption) ([]KeptQuality, []DroppedQuality, error) {
	kept := []KeptQuality{}
	dropped := []DroppedQuality{}

	if len(qualities) == 0 {
		return kept, dropped, nil
	}

	texts := make([]string, len(qualities))
	for i, q := range qualities {
		texts[i] = QualityToText(q)
	}

	vectors, err := f.encoder.Encode(ctx, texts)
	if err != nil {
		f.opts.Logger.LogFilter(ctx, len(qualities), 0, 0, err)
		return nil, nil, err
	}

	res, err := idx.SearchBatch(vectors, f.opts.TopK, searchOpts...)
	if err != nil {
		f.opts.Logger.LogFilter(ctx, len(qualities), 0, 0, err)
		return nil, nil, err
	}

	for i, q := range qualities {
		maxScore := maxScore(res.Scores[i])

		if maxScore < f.opts.Threshold {
			dropped = append(dropped, DroppedQuality{
				Quality:  q,
				MaxScore: maxScore,
			})
			continue
		}

		// The neighbor row may be shorter than the score row when the
		// backend under-fills; align by the shorter of the two.
		neighbors := res.Neighbors[i]
		scores := res.Scores[i]
		n := min(len(neighbors), len(scores))

		hits := make([]NeighborHit, n)
		for j := 0; j < n; j++ {
			hits[j] = NeighborHit{
				Relation: neighbors[j],
				Score:    scores[j],
			}
		}

		kept = append(kept, KeptQuality{
			Quality:   q,
			MaxScore:  maxScore,
			Neighbors: hits,
		})
	}

	// Most-relevant-first for both lists is a user-facing contract; the
	// stable sort keeps input order as the tie-break.
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].MaxScore > kept[b].MaxScore
	})
	sort.SliceStable(dropped, func(a, b int) bool {
		return dropped[a].MaxScore > dropped[b].MaxScore
	})

	f.opts.Logger.LogFilter(ctx, len(qualities), len(kept), len(dropped), nil)
	f.opts.Logger.LogResults(ctx, kept, dropped)

	return kept, dropped, nil
}

// TopK returns the configured neighbor count per quality.
func (f *SubgraphSimilarityFilter) TopK() int {
	return f.opts.TopK
}

// Threshold returns the configured similarity threshold.
func (f *SubgraphSimilarityFilter) Threshold() float32 {
	return f.opts.Threshold
}

// SourceAllowlist builds a search allowlist over the relations of one
// index build, admitting only relations whose source provenance property
// matches one of the given document sources. The relation slice must be
// the one the index was built from, in the same order, since vector IDs
// are assigned by input position.
func SourceAllowlist(relations []graph.Relation, sources ...string) *roaring.Bitmap {
	allowed := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		allowed[s] = struct{}{}
	}

	bm := roaring.New()
	for i, r := range relations {
		src, ok := r.Edge.Properties.String(graph.PropSource)
		if !ok {
			continue
		}
		if _, ok := allowed[src]; ok {
			bm.Add(uint32(i))
		}
	}

	return bm
}

// maxScore is the row max, 0 for an empty row (only reachable with
// top_k <= 0, where the backend returns zero-width rows).
func maxScore(scores []float32) float32 {
	if len(scores) == 0 {
		return 0
	}
	m := scores[0]
	for _, s := range scores[1:] {
		if s > m {
			m = s
		}
	}
	return m
}

package graphsim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdebugger/graphsim/encoder"
	"github.com/kbdebugger/graphsim/graph"
	"github.com/kbdebugger/graphsim/index"
	"github.com/kbdebugger/graphsim/index/hnsw"
	"github.com/kbdebugger/graphsim/testutil"
)

func relation(source, edge, target string, props graph.Properties) graph.Relation {
	return graph.Relation{
		Source: graph.Node{Label: source},
		Target: graph.Node{Label: target},
		Edge:   graph.Edge{Label: edge, Properties: props},
	}
}

func newTestFilter(t *testing.T, optFns ...func(o *Options)) *SubgraphSimilarityFilter {
	t.Helper()

	f, err := New(testutil.NewHashEncoder(64), optFns...)
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		f := newTestFilter(t)
		assert.Equal(t, 5, f.TopK())
		assert.Equal(t, float32(0.50), f.Threshold())
	})

	t.Run("InvalidEncoderDimension", func(t *testing.T) {
		_, err := New(testutil.NewHashEncoder(0))
		var id *encoder.ErrInvalidDimension
		require.ErrorAs(t, err, &id)
	})
}

func TestBuildIndex(t *testing.T) {
	ctx := context.Background()
	f := newTestFilter(t)

	t.Run("EmptyRelations", func(t *testing.T) {
		_, err := f.BuildIndex(ctx, nil)
		require.ErrorIs(t, err, ErrEmptyRelations)
	})

	t.Run("PreservesInputOrderAsIDs", func(t *testing.T) {
		relations := []graph.Relation{
			relation("Bias", "is_threat_to", "Fairness", nil),
			relation("AI", "transforms", "Society", nil),
		}

		idx, err := f.BuildIndex(ctx, relations)
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Len())
		assert.Equal(t, 64, idx.Dimension())
	})
}

func TestFilterQualities(t *testing.T) {
	ctx := context.Background()

	t.Run("ConcreteScenario", func(t *testing.T) {
		f := newTestFilter(t, func(o *Options) {
			o.TopK = 1
			o.Threshold = 0.9
		})

		relations := []graph.Relation{
			relation("Bias", "is_threat_to", "Fairness", graph.Properties{}),
		}
		idx, err := f.BuildIndex(ctx, relations)
		require.NoError(t, err)

		kept, dropped, err := f.FilterQualities(ctx, idx, []Quality{
			"Bias is threat to Fairness",
			"The weather is sunny today",
		})
		require.NoError(t, err)

		require.Len(t, kept, 1)
		assert.Equal(t, "Bias is threat to Fairness", kept[0].Quality)
		assert.InDelta(t, 1.0, kept[0].MaxScore, 1e-5)
		require.Len(t, kept[0].Neighbors, 1)
		assert.Equal(t, relations[0], kept[0].Neighbors[0].Relation)

		require.Len(t, dropped, 1)
		assert.Equal(t, "The weather is sunny today", dropped[0].Quality)
		assert.Less(t, dropped[0].MaxScore, float32(0.9))
	})

	t.Run("EmptyInput", func(t *testing.T) {
		f := newTestFilter(t)
		idx, err := f.BuildIndex(ctx, []graph.Relation{
			relation("a", "links", "b", nil),
		})
		require.NoError(t, err)

		kept, dropped, err := f.FilterQualities(ctx, idx, nil)
		require.NoError(t, err)
		assert.Empty(t, kept)
		assert.Empty(t, dropped)
		assert.NotNil(t, kept)
		assert.NotNil(t, dropped)
	})

	t.Run("UnderFill", func(t *testing.T) {
		// One relation indexed, top_k=5: the kept item carries one
		// neighbor, not five, and no error occurs.
		f := newTestFilter(t, func(o *Options) {
			o.TopK = 5
			o.Threshold = 0.9
		})

		idx, err := f.BuildIndex(ctx, []graph.Relation{
			relation("Bias", "is_threat_to", "Fairness", nil),
		})
		require.NoError(t, err)

		kept, _, err := f.FilterQualities(ctx, idx, []Quality{"Bias is threat to Fairness"})
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Len(t, kept[0].Neighbors, 1)
	})

	t.Run("ThresholdPartition", func(t *testing.T) {
		f := newTestFilter(t, func(o *Options) {
			o.Threshold = 0.5
		})

		relations := []graph.Relation{
			relation("Bias", "is_threat_to", "Fairness", nil),
			relation("Privacy", "requires", "Consent", nil),
		}
		idx, err := f.BuildIndex(ctx, relations)
		require.NoError(t, err)

		qualities := []Quality{
			"Bias is threat to Fairness",
			"Privacy requires Consent",
			"Completely unrelated text about cooking pasta",
			"Another unrelated sentence on astronomy",
		}

		kept, dropped, err := f.FilterQualities(ctx, idx, qualities)
		require.NoError(t, err)

		// Complete, non-overlapping partition of the input.
		assert.Equal(t, len(qualities), len(kept)+len(dropped))

		seen := make(map[string]int)
		for _, item := range kept {
			seen[item.Quality]++
			assert.GreaterOrEqual(t, item.MaxScore, f.Threshold())
		}
		for _, item := range dropped {
			seen[item.Quality]++
			assert.Less(t, item.MaxScore, f.Threshold())
		}
		for _, q := range qualities {
			assert.Equal(t, 1, seen[q])
		}
	})

	t.Run("SortInvariant", func(t *testing.T) {
		f := newTestFilter(t, func(o *Options) {
			o.Threshold = 0.0
		})

		relations := []graph.Relation{
			relation("a", "links", "b", nil),
			relation("c", "links", "d", nil),
			relation("e", "links", "f", nil),
		}
		idx, err := f.BuildIndex(ctx, relations)
		require.NoError(t, err)

		kept, dropped, err := f.FilterQualities(ctx, idx, []Quality{
			"A links b", "E links f", "C links d", "unrelated text",
		})
		require.NoError(t, err)

		for i := 1; i < len(kept); i++ {
			assert.LessOrEqual(t, kept[i].MaxScore, kept[i-1].MaxScore)
		}
		for i := 1; i < len(dropped); i++ {
			assert.LessOrEqual(t, dropped[i].MaxScore, dropped[i-1].MaxScore)
		}
	})

	t.Run("CosineBound", func(t *testing.T) {
		f := newTestFilter(t, func(o *Options) {
			o.Threshold = -2 // keep everything
		})

		idx, err := f.BuildIndex(ctx, []graph.Relation{
			relation("a", "links", "b", nil),
			relation("c", "links", "d", nil),
		})
		require.NoError(t, err)

		kept, _, err := f.FilterQualities(ctx, idx, []Quality{"anything at all", "more text"})
		require.NoError(t, err)

		for _, item := range kept {
			for _, nh := range item.Neighbors {
				assert.GreaterOrEqual(t, nh.Score, float32(-1.0))
				assert.LessOrEqual(t, nh.Score, float32(1.0))
			}
		}
	})

	t.Run("Determinism", func(t *testing.T) {
		relations := []graph.Relation{
			relation("Bias", "is_threat_to", "Fairness", nil),
			relation("Privacy", "requires", "Consent", nil),
		}
		qualities := []Quality{"Bias is threat to Fairness", "something else"}

		run := func() ([]KeptQuality, []DroppedQuality) {
			f := newTestFilter(t)
			idx, err := f.BuildIndex(ctx, relations)
			require.NoError(t, err)
			kept, dropped, err := f.FilterQualities(ctx, idx, qualities)
			require.NoError(t, err)
			return kept, dropped
		}

		kept1, dropped1 := run()
		kept2, dropped2 := run()
		assert.Equal(t, kept1, kept2)
		assert.Equal(t, dropped1, dropped2)
	})

	t.Run("SourceAllowlist", func(t *testing.T) {
		f := newTestFilter(t, func(o *Options) {
			o.Threshold = 0.0
		})

		relations := []graph.Relation{
			relation("a", "links", "b", graph.Properties{graph.PropSource: "paper.pdf"}),
			relation("c", "links", "d", graph.Properties{graph.PropSource: "blog.html"}),
		}
		idx, err := f.BuildIndex(ctx, relations)
		require.NoError(t, err)

		bm := SourceAllowlist(relations, "paper.pdf")
		require.EqualValues(t, 1, bm.GetCardinality())

		kept, _, err := f.FilterQualities(ctx, idx, []Quality{"A links b"},
			index.WithAllowlist(bm))
		require.NoError(t, err)

		require.Len(t, kept, 1)
		for _, nh := range kept[0].Neighbors {
			src, ok := nh.Relation.Edge.Properties.String(graph.PropSource)
			require.True(t, ok)
			assert.Equal(t, "paper.pdf", src)
		}
	})

	t.Run("HNSWBackend", func(t *testing.T) {
		f := newTestFilter(t, func(o *Options) {
			o.TopK = 1
			o.Threshold = 0.9
			o.NewIndex = func(dimension, capacityHint int) (index.Index[graph.Relation], error) {
				return hnsw.New[graph.Relation](func(o *hnsw.Options) {
					o.Dimension = dimension
					o.CapacityHint = capacityHint
				})
			}
		})

		idx, err := f.BuildIndex(ctx, []graph.Relation{
			relation("Bias", "is_threat_to", "Fairness", graph.Properties{}),
		})
		require.NoError(t, err)

		kept, dropped, err := f.FilterQualities(ctx, idx, []Quality{
			"Bias is threat to Fairness",
			"The weather is sunny today",
		})
		require.NoError(t, err)
		assert.Len(t, kept, 1)
		assert.Len(t, dropped, 1)
	})
}

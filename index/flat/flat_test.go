package flat

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdebugger/graphsim/index"
	"github.com/kbdebugger/graphsim/testutil"
)

func newTestIndex(t *testing.T) *Index[string] {
	t.Helper()

	idx, err := New[string](func(o *Options) {
		o.Dimension = 2
		o.CapacityHint = 4
	})
	require.NoError(t, err)

	err = idx.Add(
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
		[]string{"east", "north", "northeast"},
	)
	require.NoError(t, err)

	return idx
}

func TestNew(t *testing.T) {
	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := New[string]()
		var id *index.ErrInvalidDimension
		require.ErrorAs(t, err, &id)
	})
}

func TestAdd(t *testing.T) {
	idx := newTestIndex(t)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Dimension())

	t.Run("DimensionMismatch", func(t *testing.T) {
		err := idx.Add([][]float32{{1, 2, 3}}, []string{"bad"})
		var dm *index.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		err := idx.Add([][]float32{{1, 2}}, []string{"a", "b"})
		var lm *index.ErrLengthMismatch
		require.ErrorAs(t, err, &lm)
	})

	t.Run("SequentialIDsAcrossCalls", func(t *testing.T) {
		idx := newTestIndex(t)
		require.NoError(t, idx.Add([][]float32{{-1, 0}}, []string{"west"}))
		assert.Equal(t, 4, idx.Len())

		hits, err := index.Search[string](idx, []float32{-1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "west", hits[0].Payload)
	})
}

func TestSearchBatch(t *testing.T) {
	idx := newTestIndex(t)

	t.Run("TopKOrdering", func(t *testing.T) {
		res, err := idx.SearchBatch([][]float32{{1, 0}}, 3)
		require.NoError(t, err)
		require.Len(t, res.Neighbors, 1)

		assert.Equal(t, []string{"east", "northeast", "north"}, res.Neighbors[0])
		scores := res.Scores[0]
		require.Len(t, scores, 3)
		assert.InDelta(t, 1.0, scores[0], 1e-6)
		for i := 1; i < len(scores); i++ {
			assert.LessOrEqual(t, scores[i], scores[i-1])
		}
	})

	t.Run("CosineBound", func(t *testing.T) {
		res, err := idx.SearchBatch([][]float32{{2, 3}, {-4, 0}}, 3)
		require.NoError(t, err)
		for _, row := range res.Scores {
			for _, s := range row {
				assert.GreaterOrEqual(t, s, float32(-1.0))
				assert.LessOrEqual(t, s, float32(1.0))
			}
		}
	})

	t.Run("UnderFill", func(t *testing.T) {
		res, err := idx.SearchBatch([][]float32{{1, 0}}, 5)
		require.NoError(t, err)

		assert.Len(t, res.Neighbors[0], 3, "only real neighbors are returned")
		require.Len(t, res.Scores[0], 5, "score row keeps width k")
		assert.Zero(t, res.Scores[0][3])
		assert.Zero(t, res.Scores[0][4])
	})

	t.Run("KZero", func(t *testing.T) {
		res, err := idx.SearchBatch([][]float32{{1, 0}}, 0)
		require.NoError(t, err)
		assert.Empty(t, res.Neighbors[0])
		assert.Empty(t, res.Scores[0])
	})

	t.Run("QueryDimensionMismatch", func(t *testing.T) {
		_, err := idx.SearchBatch([][]float32{{1, 0, 0}}, 1)
		var dm *index.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
	})

	t.Run("ZeroQueryVector", func(t *testing.T) {
		res, err := idx.SearchBatch([][]float32{{0, 0}}, 2)
		require.NoError(t, err)
		// A zero query stays zero after normalization: every score is 0.
		for _, s := range res.Scores[0] {
			assert.Zero(t, s)
		}
	})

	t.Run("Allowlist", func(t *testing.T) {
		bm := roaring.New()
		bm.Add(1) // "north" only

		res, err := idx.SearchBatch([][]float32{{1, 0}}, 3, index.WithAllowlist(bm))
		require.NoError(t, err)
		assert.Equal(t, []string{"north"}, res.Neighbors[0])
	})
}

func TestSearchBatchDeterminism(t *testing.T) {
	idx, err := New[int](func(o *Options) {
		o.Dimension = 16
	})
	require.NoError(t, err)

	rng := testutil.NewRNG(7)
	vectors := rng.Vectors(200, 16)
	payloads := make([]int, len(vectors))
	for i := range payloads {
		payloads[i] = i
	}
	require.NoError(t, idx.Add(vectors, payloads))

	queries := rng.Vectors(50, 16)

	first, err := idx.SearchBatch(queries, 10)
	require.NoError(t, err)
	second, err := idx.SearchBatch(queries, 10)
	require.NoError(t, err)

	assert.Equal(t, first.Neighbors, second.Neighbors)
	assert.Equal(t, first.Scores, second.Scores)
}

func TestSearchWrapper(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := index.Search[string](idx, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "north", hits[0].Payload)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

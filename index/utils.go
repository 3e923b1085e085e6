package index

import (
	"github.com/kbdebugger/graphsim/distance"
)

// ValidateAdd checks the Add preconditions shared by all backends: every
// vector matches the index dimension and the vector and payload counts agree.
func ValidateAdd[T any](dim int, vectors [][]float32, payloads []T) error {
	if len(vectors) != len(payloads) {
		return &ErrLengthMismatch{Vectors: len(vectors), Payloads: len(payloads)}
	}
	for _, v := range vectors {
		if len(v) != dim {
			return &ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
	}
	return nil
}

// ValidateQueries checks that every query matches the index dimension.
func ValidateQueries(dim int, queries [][]float32) error {
	for _, q := range queries {
		if len(q) != dim {
			return &ErrDimensionMismatch{Expected: dim, Actual: len(q)}
		}
	}
	return nil
}

// NormalizeRows returns L2-normalized copies of the given vectors.
// Zero rows are copied unchanged rather than turned into NaNs.
func NormalizeRows(vectors [][]float32) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = distance.NormalizeL2Copy(v)
	}
	return out
}

// EmptyBatch returns the (Q, 0) result used for k <= 0: no backend call, no
// neighbors, zero-width score rows.
func EmptyBatch[T any](numQueries int) *BatchResult[T] {
	res := &BatchResult[T]{
		Neighbors: make([][]T, numQueries),
		Scores:    make([][]float32, numQueries),
	}
	for i := range res.Neighbors {
		res.Neighbors[i] = []T{}
		res.Scores[i] = []float32{}
	}
	return res
}

// AssembleBatch resolves backend rows into a BatchResult.
//
// Each row must hold exactly k slots sorted by descending score, with
// InvalidID padding for unfilled slots. Sentinel slots are masked out of the
// neighbor lists and their score slots forced to exactly 0.
func AssembleBatch[T any](arena *Arena[T], rows [][]SearchResult, k int) *BatchResult[T] {
	res := &BatchResult[T]{
		Neighbors: make([][]T, len(rows)),
		Scores:    make([][]float32, len(rows)),
	}

	for i, row := range rows {
		neighbors := make([]T, 0, len(row))
		scores := make([]float32, k)

		for j, slot := range row {
			if slot.ID == InvalidID {
				continue // scores[j] stays 0
			}
			neighbors = append(neighbors, arena.Get(slot.ID))
			scores[j] = slot.Score
		}

		res.Neighbors[i] = neighbors
		res.Scores[i] = scores
	}

	return res
}

// PadRow extends a row of real results to exactly k slots with sentinels.
func PadRow(row []SearchResult, k int) []SearchResult {
	for len(row) < k {
		row = append(row, SearchResult{ID: InvalidID})
	}
	return row
}

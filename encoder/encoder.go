// Package encoder defines the text embedding contract used by the similarity
// filter.
//
// An Encoder maps a batch of strings to fixed-dimension float32 vectors. It
// must be deterministic for a fixed model configuration: same input, same
// output, to the precision of the backend. The same encoder instance must be
// used for indexed relation sentences and queried candidate sentences —
// mixing encoders silently produces meaningless similarity. That is a caller
// contract; implementations do not attempt runtime detection.
//
// Backends may emit unit-norm vectors (see the Normalize option each backend
// exposes), but the index normalizes on ingestion and query regardless;
// double normalization is harmless and callers must not rely on either side
// alone.
package encoder

import (
	"context"
	"fmt"
)

// Encoder maps batches of texts to fixed-dimension embedding vectors.
//
// Implementations are stateless after construction and safe to share across
// many index builds and filter calls.
type Encoder interface {
	// Encode embeds texts in one batch call, returning one vector per
	// input in order. An empty input returns an empty (0, dim) result,
	// not an error.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimensionality, known before any
	// Encode call.
	Dimension() int
}

// ErrInvalidDimension indicates an encoder whose embedding dimension is
// unknown or non-positive. This is a configuration error and surfaces at
// construction time.
type ErrInvalidDimension struct {
	Model     string
	Dimension int
}

// Error returns the error message for an invalid encoder dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("encoder %q: invalid embedding dimension %d", e.Model, e.Dimension)
}

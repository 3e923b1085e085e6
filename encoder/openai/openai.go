// Package openai provides an encoder backed by an OpenAI-compatible
// embeddings API.
package openai

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/kbdebugger/graphsim/distance"
	"github.com/kbdebugger/graphsim/encoder"
)

// Compile-time check to ensure Encoder satisfies the encoder contract.
var _ encoder.Encoder = (*Encoder)(nil)

// modelDimensions maps known embedding models to their output dimension.
var modelDimensions = map[openai.EmbeddingModel]int{
	openai.AdaEmbeddingV2:  1536,
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
}

// EmbeddingsClient is the part of the OpenAI client used by the encoder.
type EmbeddingsClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Options contains configuration options for the OpenAI encoder.
type Options struct {
	// Model selects the embedding model.
	Model openai.EmbeddingModel

	// Dimension overrides the model dimension table. Required for models
	// not in the table (e.g. self-hosted OpenAI-compatible servers).
	Dimension int

	// TokenBudget caps the summed token count of one embeddings request.
	// Inputs are split into consecutive sub-batches under this budget.
	TokenBudget int

	// Encoding names the tiktoken encoding used for the token budget.
	Encoding string

	// RequestsPerSecond shapes outbound request rate. Zero means
	// unlimited. This is traffic shaping, not retry logic.
	RequestsPerSecond float64

	// Normalize requests unit-norm output vectors. The index normalizes
	// regardless; enabling this keeps raw encoder output meaningful for
	// callers that bypass the index.
	Normalize bool
}

// DefaultOptions contains the default configuration options for the OpenAI
// encoder.
var DefaultOptions = Options{
	Model:       openai.SmallEmbedding3,
	TokenBudget: 100_000,
	Encoding:    "cl100k_base",
}

// Encoder embeds texts through an OpenAI-compatible embeddings endpoint.
//
// It is stateless after construction and safe to share across many index
// builds and filter calls.
type Encoder struct {
	client    EmbeddingsClient
	model     openai.EmbeddingModel
	dim       int
	codec     *tiktoken.Tiktoken
	limiter   *rate.Limiter
	budget    int
	normalize bool
}

// New creates an OpenAI encoder around an existing client.
func New(client EmbeddingsClient, optFns ...func(o *Options)) (*Encoder, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	dim := opts.Dimension
	if dim == 0 {
		dim = modelDimensions[opts.Model]
	}
	if dim <= 0 {
		return nil, &encoder.ErrInvalidDimension{Model: string(opts.Model), Dimension: dim}
	}

	codec, err := tiktoken.GetEncoding(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding %q: %w", opts.Encoding, err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Encoder{
		client:    client,
		model:     opts.Model,
		dim:       dim,
		codec:     codec,
		limiter:   rate.NewLimiter(limit, 1),
		budget:    opts.TokenBudget,
		normalize: opts.Normalize,
	}, nil
}

// Dimension returns the embedding dimensionality.
func (e *Encoder) Dimension() int {
	return e.dim
}

// Encode embeds texts in order, splitting into as few API requests as the
// token budget allows.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	for _, batch := range e.splitByTokenBudget(texts) {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}

		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("create embeddings: requested %d vectors, got %d", len(batch), len(resp.Data))
		}

		for _, d := range resp.Data {
			if len(d.Embedding) != e.dim {
				return nil, &encoder.ErrInvalidDimension{Model: string(e.model), Dimension: len(d.Embedding)}
			}

			v := make([]float32, e.dim)
			copy(v, d.Embedding)
			if e.normalize {
				distance.NormalizeL2InPlace(v)
			}
			out = append(out, v)
		}
	}

	return out, nil
}

// splitByTokenBudget groups consecutive texts into sub-batches whose summed
// token count stays under the budget. A single over-budget text still forms
// its own batch; the API enforces per-input limits itself.
func (e *Encoder) splitByTokenBudget(texts []string) [][]string {
	var (
		batches [][]string
		current []string
		used    int
	)

	for _, text := range texts {
		tokens := len(e.codec.Encode(text, nil, nil))

		if len(current) > 0 && used+tokens > e.budget {
			batches = append(batches, current)
			current = nil
			used = 0
		}

		current = append(current, text)
		used += tokens
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

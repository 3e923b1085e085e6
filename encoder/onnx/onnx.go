//go:build cgo

// Package onnx provides a local encoder backed by ONNX Runtime. It requires
// CGO and the onnxruntime shared library; without CGO a stub constructor
// returns an error.
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kbdebugger/graphsim/distance"
	"github.com/kbdebugger/graphsim/encoder"
)

// Compile-time check to ensure Encoder satisfies the encoder contract.
var _ encoder.Encoder = (*Encoder)(nil)

// Encoder runs a sentence-embedding model through a pre-allocated ONNX
// session. Tensors are reused across calls; Encode serializes inference
// internally, so one instance may be shared.
type Encoder struct {
	session   *ort.AdvancedSession
	tokenizer Tokenizer
	dim       int
	maxTokens int
	normalize bool

	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]

	mu sync.Mutex
}

// New creates an ONNX encoder for the model at modelPath. The ONNX runtime
// environment is initialized if it has not been already.
func New(modelPath string, optFns ...func(o *Options)) (*Encoder, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &encoder.ErrInvalidDimension{Model: modelPath, Dimension: opts.Dimension}
	}

	if opts.Tokenizer == nil {
		opts.Tokenizer = &HashTokenizer{}
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	inputIDs, attentionMask, tokenTypeIDs := opts.Tokenizer.Tokenize("", opts.MaxTokens)

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(opts.MaxTokens)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}

	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(opts.MaxTokens)), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}

	tokenTypeIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(opts.MaxTokens)), tokenTypeIDs)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}

	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(opts.Dimension)), make([]float32, opts.Dimension))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Encoder{
		session:             session,
		tokenizer:           opts.Tokenizer,
		dim:                 opts.Dimension,
		maxTokens:           opts.MaxTokens,
		normalize:           opts.Normalize,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

// Dimension returns the embedding dimensionality.
func (e *Encoder) Dimension() int {
	return e.dim
}

// Encode embeds texts one at a time through the shared session.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := e.embed(text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

func (e *Encoder) embed(text string) ([]float32, error) {
	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)

	copy(e.inputIDsTensor.GetData(), inputIDs)
	copy(e.attentionMaskTensor.GetData(), attentionMask)
	copy(e.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	v := make([]float32, e.dim)
	copy(v, e.outputTensor.GetData()[:e.dim])

	if e.normalize {
		distance.NormalizeL2InPlace(v)
	}

	return v, nil
}

// Close destroys the session and tensors.
func (e *Encoder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{e.inputIDsTensor, e.attentionMaskTensor, e.tokenTypeIDsTensor} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	e.inputIDsTensor, e.attentionMaskTensor, e.tokenTypeIDsTensor = nil, nil, nil
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}

//go:build !cgo

// Package onnx provides a local encoder backed by ONNX Runtime. It requires
// CGO and the onnxruntime shared library; without CGO a stub constructor
// returns an error.
package onnx

import (
	"context"
	"errors"
)

// Encoder is a stub when built without CGO. See onnx.go for the real
// implementation.
type Encoder struct{}

// New returns an error when built without CGO.
func New(_ string, _ ...func(o *Options)) (*Encoder, error) {
	return nil, errors.New("onnx encoder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Encode is unreachable on the stub; New never returns an instance.
func (e *Encoder) Encode(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("onnx encoder not available without CGO")
}

// Dimension is unreachable on the stub; New never returns an instance.
func (e *Encoder) Dimension() int {
	return 0
}

// Close is unreachable on the stub; New never returns an instance.
func (e *Encoder) Close() error {
	return nil
}

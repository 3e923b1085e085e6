package onnx

// Options contains configuration options for the ONNX encoder.
type Options struct {
	// Dimension is the model's embedding output dimension.
	Dimension int

	// MaxTokens is the fixed input sequence length.
	MaxTokens int

	// Tokenizer produces the model inputs. Defaults to HashTokenizer.
	Tokenizer Tokenizer

	// Normalize emits unit-norm vectors. The index normalizes regardless;
	// enabling this keeps raw encoder output meaningful for callers that
	// bypass the index.
	Normalize bool
}

// DefaultOptions contains the default configuration options for the ONNX
// encoder, sized for MiniLM-class sentence models.
var DefaultOptions = Options{
	Dimension: 384,
	MaxTokens: 256,
}

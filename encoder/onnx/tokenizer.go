package onnx

import (
	"hash/fnv"
	"strings"
)

// Tokenizer produces the BERT-style model inputs: input_ids, attention_mask
// and token_type_ids, each padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// BERT special token IDs.
const (
	tokenCLS = 101
	tokenSEP = 102
)

// HashTokenizer is a whitespace-split tokenizer with hash-derived token
// IDs. It is deterministic and vocabulary-free: useful for models trained
// with hashed inputs and for tests. Models shipped with a real vocabulary
// need a Tokenizer implementation of their own.
type HashTokenizer struct {
	// VocabSize bounds the hashed IDs. Defaults to 30000 (BERT base).
	VocabSize int
}

// Tokenize splits text into words and produces padded token IDs up to
// maxTokens, with [CLS] and [SEP] markers.
func (t *HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	vocab := t.VocabSize
	if vocab <= 0 {
		vocab = 30000
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}

	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = tokenCLS
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = hashToken(word, vocab)
		attentionMask[pos] = 1
		pos++
	}

	if pos < maxTokens {
		inputIDs[pos] = tokenSEP
		attentionMask[pos] = 1
	}

	return inputIDs, attentionMask, tokenTypeIDs
}

func hashToken(word string, vocab int) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int64(h.Sum32() % uint32(vocab)) // nolint gosec
}

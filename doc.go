// Package graphsim filters candidate "quality" sentences by vector
// similarity to a knowledge-graph subgraph.
//
// The pipeline this package serves decomposes documents into atomic
// sentences (qualities) and retrieves a local subgraph of reference
// relations per keyword. graphsim decides which qualities are semantically
// close enough to the subgraph to warrant further expensive processing:
//
//	relations → sentence synthesis → encoder → index.Add()
//	qualities → encoder → index.SearchBatch() → threshold → (kept, dropped)
//
// The encoder is pluggable (see encoder/openai and encoder/onnx), as is the
// index backend (index/flat for exact search, index/hnsw for approximate).
// The filter itself is pure computation over its inputs plus the injected
// collaborators: no LLM calls, no I/O, no retries.
package graphsim

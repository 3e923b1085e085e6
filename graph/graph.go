// Package graph defines the knowledge-graph relation model consumed by the
// similarity filter and produced by the retriever.
package graph

// Canonical edge property keys. Properties is an open map; these are the
// keys downstream logic relies on.
const (
	// PropSentence is the human-readable sentence stored on an edge, the
	// preferred text for embedding.
	PropSentence = "sentence"

	// Provenance keys.
	PropOriginalSentence = "original_sentence"
	PropSource           = "source"
	PropPageNumber       = "page_number"
	PropStartIndex       = "start_index"
	PropEndIndex         = "end_index"
	PropDocID            = "doc_id"
	PropChunkID          = "chunk_id"

	// Quality and versioning keys.
	PropConfidence       = "confidence"
	PropExtractorVersion = "extractor_version"
	PropCreatedAt        = "created_at"
	PropLastUpdatedAt    = "last_updated_at"
)

// Properties is an open string-keyed property map on an edge. It may be
// empty. Extra keys beyond the canonical set are allowed and preserved.
type Properties map[string]any

// String returns the property under key as a non-empty string, or "" and
// false when absent, empty, or not a string.
func (p Properties) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}

	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// Sentence returns the stored sentence property, if any.
func (p Properties) Sentence() (string, bool) {
	return p.String(PropSentence)
}

// Node is one end of a relation. Label is always non-empty.
type Node struct {
	Label string `json:"label"`
}

// Edge is the labeled connection between two nodes. Label is always
// non-empty; Properties may be empty.
type Edge struct {
	Label      string     `json:"label"`
	Properties Properties `json:"properties"`
}

// Relation is a directed labeled edge between two nodes, the unit of the
// reference corpus the filter indexes.
type Relation struct {
	Source Node `json:"source"`
	Target Node `json:"target"`
	Edge   Edge `json:"edge"`
}

package graphsim

import (
	"github.com/kbdebugger/graphsim/graph"
)

// Quality is an opaque candidate sentence. No internal structure is assumed
// beyond being embeddable text.
type Quality = string

// NeighborHit is one nearest-neighbor hit from the relation index: the
// relation whose sentence was similar to the query, with its cosine
// similarity. Produced only by a search; never constructed ad hoc.
type NeighborHit struct {
	Relation graph.Relation `json:"relation"`
	Score    float32        `json:"score"`
}

// KeptQuality is a quality that passed the similarity threshold, carrying
// its best score and the top-k nearest relations as context for the next
// pipeline stage.
type KeptQuality struct {
	Quality   Quality       `json:"quality"`
	MaxScore  float32       `json:"max_score"`
	Neighbors []NeighborHit `json:"neighbors"`
}

// DroppedQuality is a quality that failed the similarity threshold. The
// best observed score is kept for threshold tuning.
type DroppedQuality struct {
	Quality  Quality `json:"quality"`
	MaxScore float32 `json:"max_score"`
}

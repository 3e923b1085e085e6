// Package neo4jstore retrieves keyword-guided subgraphs from a Neo4j
// knowledge store, producing the relation slices the similarity filter
// indexes. It is intentionally thin: 1-hop path fragments, no traversal
// logic.
package neo4jstore

import (
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"

	"github.com/kbdebugger/graphsim/graph"
)

// MatchPattern records how a relation matched the keyword.
type MatchPattern string

const (
	// MatchSourceLabel means the keyword appeared in the source node label.
	MatchSourceLabel MatchPattern = "source_label"
	// MatchTargetLabel means the keyword appeared in the target node label.
	MatchTargetLabel MatchPattern = "target_label"
	// MatchRelProps means the keyword appeared in the relationship's
	// semantic properties.
	MatchRelProps MatchPattern = "rel_props"
)

// RetrievedRelation is one subgraph hit with its match provenance.
type RetrievedRelation struct {
	Relation     graph.Relation `json:"relation"`
	MatchPattern MatchPattern   `json:"match_pattern"`
}

// Options contains configuration options for the retriever.
type Options struct {
	// LimitPerPattern caps the relations returned per match pattern.
	LimitPerPattern int
}

// DefaultOptions contains the default configuration options for the
// retriever.
var DefaultOptions = Options{
	LimitPerPattern: 50,
}

// Retriever performs keyword-guided 1-hop retrieval against Neo4j.
type Retriever struct {
	driver neo4j.Driver
	opts   Options
}

// New creates a retriever connected to the given Neo4j instance.
func New(uri, username, password string, optFns ...func(o *Options)) (*Retriever, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	driver, err := neo4j.NewDriver(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	return &Retriever{
		driver: driver,
		opts:   opts,
	}, nil
}

// Close releases the underlying driver.
func (r *Retriever) Close() error {
	return r.driver.Close()
}

// The three match patterns share one RETURN shape; the predicate is
// coalesced from the relationship's type/label with a REL fallback.
const returnClause = `
RETURN
  n.label AS source,
  m.label AS target,
  coalesce(r.type, r.label, 'REL') AS predicate,
  properties(r) AS props
LIMIT $limit`

var patternQueries = []struct {
	pattern MatchPattern
	cypher  string
}{
	{
		pattern: MatchSourceLabel,
		cypher: `
MATCH (n:Node)-[r:REL]->(m:Node)
WHERE toLower(n.label) CONTAINS $keyword` + returnClause,
	},
	{
		pattern: MatchTargetLabel,
		cypher: `
MATCH (n:Node)-[r:REL]->(m:Node)
WHERE toLower(m.label) CONTAINS $keyword` + returnClause,
	},
	{
		pattern: MatchRelProps,
		cypher: `
MATCH (n:Node)-[r:REL]->(m:Node)
WHERE
  toLower(coalesce(r.type, ''))   CONTAINS $keyword OR
  toLower(coalesce(r.label, ''))  CONTAINS $keyword OR
  toLower(coalesce(r.source, '')) CONTAINS $keyword` + returnClause,
	},
}

// Retrieve returns the deduplicated 1-hop relations matching the keyword
// across all three patterns, in pattern order.
func (r *Retriever) Retrieve(keyword string) ([]RetrievedRelation, error) {
	kw := normalizeKeyword(keyword)

	session := r.driver.NewSession(neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeRead,
	})
	defer session.Close()

	var hits []RetrievedRelation

	for _, pq := range patternQueries {
		result, err := session.Run(pq.cypher, map[string]interface{}{
			"keyword": kw,
			"limit":   r.opts.LimitPerPattern,
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", pq.pattern, err)
		}

		for result.Next() {
			rel, err := relationFromRecord(result.Record())
			if err != nil {
				return nil, fmt.Errorf("query %s: %w", pq.pattern, err)
			}
			hits = append(hits, RetrievedRelation{
				Relation:     rel,
				MatchPattern: pq.pattern,
			})
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("query %s: %w", pq.pattern, err)
		}
	}

	return dedupe(hits), nil
}

// Relations strips match provenance, returning just the relation slice in
// retrieval order, ready for index building.
func Relations(hits []RetrievedRelation) []graph.Relation {
	relations := make([]graph.Relation, len(hits))
	for i, h := range hits {
		relations[i] = h.Relation
	}
	return relations
}

func relationFromRecord(record *neo4j.Record) (graph.Relation, error) {
	source, err := stringValue(record, "source")
	if err != nil {
		return graph.Relation{}, err
	}
	target, err := stringValue(record, "target")
	if err != nil {
		return graph.Relation{}, err
	}
	predicate, err := stringValue(record, "predicate")
	if err != nil {
		return graph.Relation{}, err
	}

	props := graph.Properties{}
	if raw, ok := record.Get("props"); ok && raw != nil {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return graph.Relation{}, fmt.Errorf("props: unexpected type %T", raw)
		}
		for k, v := range m {
			props[k] = v
		}
	}

	return graph.Relation{
		Source: graph.Node{Label: source},
		Target: graph.Node{Label: target},
		Edge:   graph.Edge{Label: predicate, Properties: props},
	}, nil
}

func stringValue(record *neo4j.Record, key string) (string, error) {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return "", fmt.Errorf("%s: missing value", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", key, raw)
	}
	return s, nil
}

// dedupe collapses identical relations matched by multiple patterns. The
// stored sentence is a cheap, effective part of the identity key.
func dedupe(hits []RetrievedRelation) []RetrievedRelation {
	type key struct {
		source, target, edge, sentence string
	}

	seen := make(map[key]struct{}, len(hits))
	out := make([]RetrievedRelation, 0, len(hits))

	for _, h := range hits {
		sentence, _ := h.Relation.Edge.Properties.Sentence()
		k := key{
			source:   h.Relation.Source.Label,
			target:   h.Relation.Target.Label,
			edge:     h.Relation.Edge.Label,
			sentence: sentence,
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, h)
	}

	return out
}

func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

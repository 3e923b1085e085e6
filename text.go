package graphsim

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kbdebugger/graphsim/graph"
)

// QualityToText converts a quality to the text used for embedding.
// Currently the identity: qualities are already plain sentences, and
// adding prefixes like "claim:" changes embedding behavior.
func QualityToText(q Quality) string {
	return string(q)
}

// RelationToText converts a relation into a natural-language sentence
// suitable for embedding, stylistically similar to decomposed qualities
// (plain English, no structured metadata prefixes).
//
// A stored provenance sentence is preferred as the strongest semantic
// signal. Without one, a simple sentence is synthesized from
// source-predicate-target, e.g. bias --is_threat_to--> fairness becomes
// "Bias is threat to fairness".
func RelationToText(r graph.Relation) string {
	if sentence, ok := r.Edge.Properties.Sentence(); ok {
		return capitalizeSentence(humanize(sentence))
	}

	source := humanize(r.Source.Label)
	target := humanize(r.Target.Label)
	predicate := humanize(r.Edge.Label)

	return capitalizeSentence(fmt.Sprintf("%s %s %s", source, predicate, target))
}

// humanize converts an underscored token into readable text:
// "is_subclass_of" becomes "is subclass of".
func humanize(token string) string {
	return strings.TrimSpace(strings.ReplaceAll(token, "_", " "))
}

// capitalizeSentence upper-cases the first letter of a sentence.
func capitalizeSentence(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

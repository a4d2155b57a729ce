package lexical

import (
	"strings"
	"unicode"
)

// stopWords is the fixed stop-word set. Read-only after initialization.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "do": {}, "did": {}, "does": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {}, "how": {},
	"i": {}, "if": {}, "in": {}, "is": {}, "it": {}, "its": {}, "me": {},
	"my": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"she": {}, "so": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize lowercases the text, splits on non-alphanumeric runs, and drops
// tokens shorter than two characters and stop words. The returned slice
// preserves document order including repeats.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet converts text into a set of distinct tokens for similarity
// comparison.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard computes the Jaccard similarity between two token sets.
// Returns a value between 0 (no overlap) and 1 (identical).
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}

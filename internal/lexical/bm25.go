// Package lexical scores chunks against a query with the Okapi BM25 formula
// and provides the shared tokenizer used across the ranking pipeline.
package lexical

import (
	"math"
	"sort"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

const (
	// BM25 parameters. Fixed; not tuned per query.
	k1 = 1.2
	b  = 0.75
)

// Score returns one BM25 score per chunk, aligned with the input order.
// Scores are clamped to a minimum of 0: idf goes negative for terms present
// in more than half the corpus, and that is accepted rather than reweighted.
// A query that tokenizes to nothing scores every chunk 0.
func Score(query string, chunks []retrieval.Chunk) []float64 {
	scores := make([]float64, len(chunks))
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 || len(chunks) == 0 {
		return scores
	}

	// Term frequencies and lengths per chunk. Malformed or empty content is a
	// zero-length document, never an error.
	termFreqs := make([]map[string]int, len(chunks))
	lengths := make([]int, len(chunks))
	totalLen := 0
	for i, chunk := range chunks {
		tokens := Tokenize(chunk.Content)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		termFreqs[i] = tf
		lengths[i] = len(tokens)
		totalLen += len(tokens)
	}
	avgLen := float64(totalLen) / float64(len(chunks))
	if avgLen == 0 {
		return scores
	}

	// Document frequency per query term.
	n := float64(len(chunks))
	docFreq := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		if _, seen := docFreq[term]; seen {
			continue
		}
		df := 0.0
		for i := range chunks {
			if termFreqs[i][term] > 0 {
				df++
			}
		}
		docFreq[term] = df
	}

	seen := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		df := docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log((n - df + 0.5) / (df + 0.5))

		for i := range chunks {
			tf := float64(termFreqs[i][term])
			if tf == 0 {
				continue
			}
			norm := tf + k1*(1-b+b*(float64(lengths[i])/avgLen))
			scores[i] += idf * (tf * (k1 + 1)) / norm
		}
	}

	for i := range scores {
		if scores[i] < 0 {
			scores[i] = 0
		}
	}
	return scores
}

// Rank scores the chunks and returns them as a ranked list sorted by score
// descending, ties broken by chunk ID ascending so ordering is stable across
// runs.
func Rank(query string, chunks []retrieval.Chunk) retrieval.RankedList {
	scores := Score(query, chunks)

	items := make([]retrieval.RankedItem, len(chunks))
	for i, chunk := range chunks {
		items[i] = retrieval.RankedItem{Chunk: chunk, Score: scores[i]}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Chunk.ID < items[j].Chunk.ID
	})
	for i := range items {
		items[i].Rank = i + 1
	}

	return retrieval.RankedList{Channel: "lexical", Items: items}
}

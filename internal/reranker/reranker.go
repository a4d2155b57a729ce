// Package reranker recomputes relevance for already-retrieved candidates by
// combining several weighted signals per query-chunk pair.
//
// The heuristic strategies approximate a cross-encoder: the query and chunk
// are scored together rather than independently. A genuine model-backed
// implementation can be substituted through the Reranker interface without
// changing the pipeline contract.
package reranker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// Strategy selects how candidates are scored.
type Strategy string

const (
	// StrategyLexical weighs term coverage heaviest.
	StrategyLexical Strategy = "heuristic_lexical"
	// StrategySemantic weighs term-overlap similarity heaviest.
	StrategySemantic Strategy = "heuristic_semantic"
	// StrategyHybrid is the default balanced weighting.
	StrategyHybrid Strategy = "hybrid"
	// StrategyModel delegates scoring to an external model, falling back to
	// the hybrid heuristic when the model is unavailable.
	StrategyModel Strategy = "external_model"
)

const (
	// DefaultFreshnessHalfLife is the age at which the freshness signal halves.
	DefaultFreshnessHalfLife = 30 * 24 * time.Hour

	// DefaultDiversityPenalty scales the similarity-to-accepted deduction.
	DefaultDiversityPenalty = 0.15

	// maxConfidence caps reported confidence; heuristic scoring never claims
	// certainty.
	maxConfidence = 0.95
)

// Options configures one rerank pass.
type Options struct {
	Strategy           Strategy
	MinScore           float64
	FreshnessHalfLife  time.Duration // zero selects DefaultFreshnessHalfLife
	DiversityPenalty   float64       // zero selects DefaultDiversityPenalty
	ContentTypeWeights map[retrieval.ContentType]float64

	// Now anchors the freshness signal. Zero means time.Now at call time.
	Now time.Time
}

// Reranker re-scores candidates for a query. Implementations must be safe for
// concurrent use across queries.
type Reranker interface {
	Rerank(ctx context.Context, query string, profile retrieval.QueryProfile, cands []retrieval.ScoredCandidate, opts Options) ([]retrieval.ScoredCandidate, error)
}

// FormatBreakdown renders a candidate's score breakdown for logs and
// diagnostics, signals in fixed order.
func FormatBreakdown(breakdown map[string]float64) string {
	if len(breakdown) == 0 {
		return ""
	}
	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%.3f", k, breakdown[k])
	}
	return sb.String()
}

// sortByScore orders candidates by rerank score descending, ties broken by
// chunk ID ascending.
func sortByScore(cands []retrieval.ScoredCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].RerankScore != cands[j].RerankScore {
			return cands[i].RerankScore > cands[j].RerankScore
		}
		return cands[i].Chunk.ID < cands[j].Chunk.ID
	})
}

// assignRanks numbers candidates 1..n in their current order.
func assignRanks(cands []retrieval.ScoredCandidate) {
	for i := range cands {
		cands[i].Rank = i + 1
	}
}

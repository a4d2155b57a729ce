package reranker

import (
	"context"
	"math"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/lexical"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// signalWeights holds the per-signal mix of one heuristic strategy.
type signalWeights struct {
	semantic   float64
	lexical    float64
	structural float64
	freshness  float64
	typeWeight float64
	position   float64
}

var strategyWeights = map[Strategy]signalWeights{
	StrategyHybrid:   {semantic: 0.35, lexical: 0.25, structural: 0.15, freshness: 0.10, typeWeight: 0.10, position: 0.05},
	StrategyLexical:  {semantic: 0.15, lexical: 0.45, structural: 0.10, freshness: 0.10, typeWeight: 0.10, position: 0.10},
	StrategySemantic: {semantic: 0.55, lexical: 0.15, structural: 0.10, freshness: 0.10, typeWeight: 0.05, position: 0.05},
}

// intentContentFit maps a query intent to the content types that structurally
// suit it. Quantitative intents favor aggregate summaries; timeline intents
// favor time-sliced ones. Read-only after initialization.
var intentContentFit = map[retrieval.QueryIntent]map[retrieval.ContentType]float64{
	retrieval.IntentCount: {
		retrieval.ContentDailySummary:   1.0,
		retrieval.ContentWeeklySummary:  1.0,
		retrieval.ContentMonthlySummary: 1.0,
		retrieval.ContentProjectSummary: 0.7,
		retrieval.ContentTaskSummary:    0.7,
	},
	retrieval.IntentAnalysis: {
		retrieval.ContentWeeklySummary:  1.0,
		retrieval.ContentMonthlySummary: 1.0,
		retrieval.ContentProjectSummary: 0.9,
		retrieval.ContentDailySummary:   0.7,
	},
	retrieval.IntentComparison: {
		retrieval.ContentProjectSummary: 1.0,
		retrieval.ContentWeeklySummary:  0.9,
		retrieval.ContentMonthlySummary: 0.9,
	},
	retrieval.IntentTimeline: {
		retrieval.ContentSessionSummary: 1.0,
		retrieval.ContentDailySummary:   1.0,
		retrieval.ContentWeeklySummary:  0.7,
	},
	retrieval.IntentRelationship: {
		retrieval.ContentProjectSummary: 1.0,
		retrieval.ContentTaskSummary:    0.9,
	},
}

const neutralFit = 0.4

// HeuristicReranker implements the three heuristic strategies. Stateless.
type HeuristicReranker struct{}

// NewHeuristicReranker creates a heuristic reranker.
func NewHeuristicReranker() *HeuristicReranker {
	return &HeuristicReranker{}
}

// Rerank scores every candidate against the query, applies the diversity
// penalty through a greedy acceptance pass, filters by the minimum score, and
// assigns gap-free 1-based ranks. A candidate with empty content scores 0 on
// all signals and is removed only by the minimum-score filter.
func (r *HeuristicReranker) Rerank(ctx context.Context, query string, profile retrieval.QueryProfile, cands []retrieval.ScoredCandidate, opts Options) ([]retrieval.ScoredCandidate, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weights, ok := strategyWeights[opts.Strategy]
	if !ok {
		weights = strategyWeights[StrategyHybrid]
	}
	halfLife := opts.FreshnessHalfLife
	if halfLife <= 0 {
		halfLife = DefaultFreshnessHalfLife
	}
	penalty := opts.DiversityPenalty
	if penalty <= 0 {
		penalty = DefaultDiversityPenalty
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	queryTokens := lexical.Tokenize(query)
	querySet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = struct{}{}
	}

	scored := make([]retrieval.ScoredCandidate, len(cands))
	tokenSets := make([]map[string]struct{}, len(cands))
	for i, cand := range cands {
		scored[i] = cand
		docTokens := lexical.Tokenize(cand.Chunk.Content)
		docSet := make(map[string]struct{}, len(docTokens))
		for _, t := range docTokens {
			docSet[t] = struct{}{}
		}
		tokenSets[i] = docSet

		s := computeSignals(queryTokens, querySet, docTokens, docSet, cand.Chunk, profile, opts, halfLife, now)

		scored[i].RerankScore = weights.semantic*s.semantic +
			weights.lexical*s.lexical +
			weights.structural*s.structural +
			weights.freshness*s.freshness +
			weights.typeWeight*s.typeWeight +
			weights.position*s.position
		scored[i].Confidence = confidence(s.semantic, s.lexical)
		scored[i].Breakdown = map[string]float64{
			"semantic":    s.semantic,
			"lexical":     s.lexical,
			"structural":  s.structural,
			"freshness":   s.freshness,
			"type_weight": s.typeWeight,
			"position":    s.position,
		}
	}

	accepted := diversityPass(ctx, scored, tokenSets, penalty)

	filtered := accepted[:0]
	for _, cand := range accepted {
		if cand.RerankScore >= opts.MinScore {
			filtered = append(filtered, cand)
		}
	}
	assignRanks(filtered)
	return filtered, nil
}

// diversityPass greedily accepts candidates in score order, deducting a
// similarity penalty against picks already accepted in this pass. The penalty
// never compares a candidate to the whole pool, so near-duplicates are
// discouraged without global pairwise comparison.
func diversityPass(ctx context.Context, scored []retrieval.ScoredCandidate, tokenSets []map[string]struct{}, penalty float64) []retrieval.ScoredCandidate {
	idx := make([]int, len(scored))
	for i := range idx {
		idx[i] = i
	}

	accepted := make([]retrieval.ScoredCandidate, 0, len(scored))
	var acceptedSets []map[string]struct{}
	remaining := idx
	for len(remaining) > 0 {
		// Mid-pass cancellation is a safe early return with what was accepted.
		if ctx.Err() != nil {
			break
		}
		best := -1
		bestScore := math.Inf(-1)
		for _, i := range remaining {
			adj := scored[i].RerankScore - penalty*maxSimilarity(tokenSets[i], acceptedSets)
			if adj > bestScore || (adj == bestScore && best >= 0 && scored[i].Chunk.ID < scored[best].Chunk.ID) {
				best = i
				bestScore = adj
			}
		}

		cand := scored[best]
		if bestScore < 0 {
			bestScore = 0
		}
		cand.RerankScore = bestScore
		accepted = append(accepted, cand)
		acceptedSets = append(acceptedSets, tokenSets[best])

		next := remaining[:0]
		for _, i := range remaining {
			if i != best {
				next = append(next, i)
			}
		}
		remaining = next
	}
	return accepted
}

func maxSimilarity(set map[string]struct{}, accepted []map[string]struct{}) float64 {
	max := 0.0
	for _, a := range accepted {
		if sim := lexical.Jaccard(set, a); sim > max {
			max = sim
		}
	}
	return max
}

// signals are the per-candidate sub-scores, each in [0, 1].
type signals struct {
	semantic   float64
	lexical    float64
	structural float64
	freshness  float64
	typeWeight float64
	position   float64
}

func computeSignals(queryTokens []string, querySet map[string]struct{}, docTokens []string, docSet map[string]struct{}, chunk retrieval.Chunk, profile retrieval.QueryProfile, opts Options, halfLife time.Duration, now time.Time) signals {
	var s signals
	if len(docTokens) == 0 || len(queryTokens) == 0 {
		// Empty or unparseable content scores zero everywhere; the batch
		// continues.
		return s
	}

	s.semantic = semanticOverlap(querySet, docTokens, docSet)
	s.lexical = lexicalCoverage(queryTokens, querySet, docTokens, docSet)
	s.structural = structuralFit(profile.PrimaryIntent, chunk.ContentType)
	s.freshness = freshness(chunk.CreatedAt, halfLife, now)
	s.typeWeight = contentTypeWeight(chunk.ContentType, opts.ContentTypeWeights)
	s.position = positionBonus(querySet, docTokens)
	return s
}

// semanticOverlap blends key-term Jaccard with a term-frequency weight for
// repeated query terms.
func semanticOverlap(querySet map[string]struct{}, docTokens []string, docSet map[string]struct{}) float64 {
	jaccard := lexical.Jaccard(querySet, docSet)

	occurrences := 0
	for _, t := range docTokens {
		if _, ok := querySet[t]; ok {
			occurrences++
		}
	}
	tfWeight := float64(occurrences) / float64(2*len(querySet))
	if tfWeight > 1 {
		tfWeight = 1
	}

	return 0.7*jaccard + 0.3*tfWeight
}

// lexicalCoverage is the fraction of query terms present in the chunk with a
// bonus for the longest run of consecutive query terms.
func lexicalCoverage(queryTokens []string, querySet map[string]struct{}, docTokens []string, docSet map[string]struct{}) float64 {
	covered := 0
	for t := range querySet {
		if _, ok := docSet[t]; ok {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(querySet))

	maxRun, run := 0, 0
	for _, t := range docTokens {
		if _, ok := querySet[t]; ok {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	runBonus := 0.0
	if len(querySet) > 1 && maxRun > 1 {
		runBonus = float64(maxRun-1) / float64(len(querySet)-1)
		if runBonus > 1 {
			runBonus = 1
		}
	}

	return 0.8*coverage + 0.2*runBonus
}

func structuralFit(intent retrieval.QueryIntent, ct retrieval.ContentType) float64 {
	fits, ok := intentContentFit[intent]
	if !ok {
		// General and unknown intents have no structural preference.
		return 0.5
	}
	if fit, ok := fits[ct]; ok {
		return fit
	}
	return neutralFit
}

// freshness decays exponentially with age; score halves every halfLife.
// Chunks without a timestamp get a neutral 0.5.
func freshness(createdAt time.Time, halfLife time.Duration, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0.5
	}
	age := now.Sub(createdAt)
	if age <= 0 {
		return 1.0
	}
	return math.Exp2(-float64(age) / float64(halfLife))
}

func contentTypeWeight(ct retrieval.ContentType, weights map[retrieval.ContentType]float64) float64 {
	w, ok := weights[ct]
	if !ok {
		return 0.5
	}
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// positionBonus rewards chunks where a query term appears early.
func positionBonus(querySet map[string]struct{}, docTokens []string) float64 {
	for i, t := range docTokens {
		if _, ok := querySet[t]; ok {
			bonus := 1 - float64(i)/50.0
			if bonus < 0 {
				return 0
			}
			return bonus
		}
	}
	return 0
}

// confidence derives from the semantic and lexical sub-scores alone, capped
// below certainty.
func confidence(semantic, lexical float64) float64 {
	c := 0.6*semantic + 0.4*lexical + 0.1
	if semantic == 0 && lexical == 0 {
		return 0
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

var _ Reranker = (*HeuristicReranker)(nil)

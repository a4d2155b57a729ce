package selector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/lexical"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

const (
	// Fixed mix for the greedy diversity step: relevance vs. dissimilarity to
	// what is already selected.
	greedyRelevanceWeight = 0.6
	greedyDiversityWeight = 0.4

	// costReductionFactor shrinks the target count under PrioritizeCost.
	costReductionFactor = 0.7

	freshnessHalfLife = 30 * 24 * time.Hour
)

// Selector performs adaptive source selection. Stateless; safe for concurrent
// use across queries.
type Selector struct {
	// PricingModel keys the price table; empty selects DefaultPricingModel.
	PricingModel string

	// Now anchors freshness weighting. Zero means time.Now at call time.
	Now time.Time
}

// Select filters, budgets, and diversity-greedily picks sources from the
// reranked pool. Zero qualified candidates yields an empty, zero-cost result,
// not an error.
func (s *Selector) Select(ctx context.Context, query string, cands []retrieval.ScoredCandidate, policy Policy) retrieval.SelectionResult {
	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}

	tags := []string{"diversity_greedy"}

	// Quality gate.
	qualified := make([]retrieval.ScoredCandidate, 0, len(cands))
	for _, cand := range cands {
		if cand.RerankScore >= policy.MinQualityThreshold {
			qualified = append(qualified, cand)
		}
	}
	if len(qualified) == 0 {
		return retrieval.SelectionResult{StrategyTags: tags}
	}
	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].RerankScore != qualified[j].RerankScore {
			return qualified[i].RerankScore > qualified[j].RerankScore
		}
		return qualified[i].Chunk.ID < qualified[j].Chunk.ID
	})

	// Target count: start at optimal, shrink toward the pool size, shrink
	// further when the caller prioritizes cost.
	target := policy.OptimalSources
	if len(qualified) < target {
		target = len(qualified)
	}
	if policy.PrioritizeCost() {
		reduced := int(math.Ceil(float64(target) * costReductionFactor))
		if reduced < policy.MinSources {
			reduced = policy.MinSources
		}
		if reduced < target {
			target = reduced
			tags = append(tags, "cost_prioritized")
		}
	}
	if target > len(qualified) {
		target = len(qualified)
	}

	// Token budget trim in score order. The single best candidate is always
	// kept, even when it alone exceeds a tiny budget; that case is flagged,
	// never silently dropped.
	budgetExhausted := false
	if policy.MaxTokenBudget > 0 {
		qualified, budgetExhausted = trimToBudget(query, qualified, policy.MaxTokenBudget)
		if budgetExhausted {
			tags = append(tags, retrieval.TagBudgetExhausted)
		}
		if target > len(qualified) {
			target = len(qualified)
		}
	}

	selected := s.diversityGreedy(ctx, qualified, policy, target, now)

	chunks := make([]retrieval.Chunk, len(selected))
	contentTokens := 0
	confSum := 0.0
	for i, cand := range selected {
		chunks[i] = cand.Chunk
		contentTokens += EstimateTokens(cand.Chunk.Content)
		confSum += cand.Confidence
	}

	result := retrieval.SelectionResult{
		Chunks:       chunks,
		StrategyTags: tags,
	}
	if len(selected) > 0 {
		result.EstimatedTokens = EstimateTokens(query) + contentTokens + ResponseTokenAllowance
		result.EstimatedCost = EstimateCost(result.EstimatedTokens, s.pricingModel())
		result.Confidence = confSum / float64(len(selected))
	}
	return result
}

func (s *Selector) pricingModel() string {
	if s.PricingModel != "" {
		return s.PricingModel
	}
	return DefaultPricingModel
}

// trimToBudget keeps candidates in score order while the running token total
// (query, content, response allowance) stays inside the budget. Returns the
// kept candidates and whether the single-candidate exception fired.
func trimToBudget(query string, cands []retrieval.ScoredCandidate, budget int) ([]retrieval.ScoredCandidate, bool) {
	used := EstimateTokens(query) + ResponseTokenAllowance
	kept := make([]retrieval.ScoredCandidate, 0, len(cands))
	for _, cand := range cands {
		tokens := EstimateTokens(cand.Chunk.Content)
		if used+tokens > budget {
			if len(kept) == 0 {
				// Budget too small for any candidate: keep the best one
				// anyway by policy.
				return cands[:1], true
			}
			break
		}
		used += tokens
		kept = append(kept, cand)
	}
	return kept, false
}

// diversityGreedy takes the top-scoring candidate first, then repeatedly
// picks the candidate maximizing 0.6*relevance + 0.4*(1 - max word-set
// similarity to everything already selected). Inherently sequential: each
// decision depends on the accepted set.
func (s *Selector) diversityGreedy(ctx context.Context, pool []retrieval.ScoredCandidate, policy Policy, target int, now time.Time) []retrieval.ScoredCandidate {
	if target <= 0 || len(pool) == 0 {
		return nil
	}

	relevance := make([]float64, len(pool))
	tokenSets := make([]map[string]struct{}, len(pool))
	for i, cand := range pool {
		relevance[i] = s.composite(cand, policy, now)
		tokenSets[i] = lexical.TokenSet(cand.Chunk.Content)
	}

	selected := make([]retrieval.ScoredCandidate, 0, target)
	var selectedSets []map[string]struct{}
	used := make([]bool, len(pool))

	// Pool is sorted by rerank score; the top candidate is always first.
	selected = append(selected, pool[0])
	selectedSets = append(selectedSets, tokenSets[0])
	used[0] = true

	for len(selected) < target {
		// Mid-loop cancellation returns what was already picked.
		if ctx.Err() != nil {
			break
		}
		best := -1
		bestScore := math.Inf(-1)
		for i := range pool {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, sel := range selectedSets {
				if sim := lexical.Jaccard(tokenSets[i], sel); sim > maxSim {
					maxSim = sim
				}
			}
			score := greedyRelevanceWeight*relevance[i] + greedyDiversityWeight*(1-maxSim)
			if score > bestScore || (score == bestScore && pool[i].Chunk.ID < pool[best].Chunk.ID) {
				best = i
				bestScore = score
			}
		}
		if best < 0 {
			break
		}
		selected = append(selected, pool[best])
		selectedSets = append(selectedSets, tokenSets[best])
		used[best] = true
	}
	return selected
}

// composite folds the policy's relevance, quality, and freshness weights into
// the single relevance term the greedy step consumes. Diversity has its own
// term there.
func (s *Selector) composite(cand retrieval.ScoredCandidate, policy Policy, now time.Time) float64 {
	fresh := 0.5
	if !cand.Chunk.CreatedAt.IsZero() {
		age := now.Sub(cand.Chunk.CreatedAt)
		if age <= 0 {
			fresh = 1.0
		} else {
			fresh = math.Exp2(-float64(age) / float64(freshnessHalfLife))
		}
	}

	sum := policy.RelevanceWeight + policy.QualityWeight + policy.FreshnessWeight
	if sum <= 0 {
		return cand.RerankScore
	}
	return (policy.RelevanceWeight*cand.RerankScore +
		policy.QualityWeight*cand.Confidence +
		policy.FreshnessWeight*fresh) / sum
}

// Describe renders a policy for structured logs.
func (p Policy) Describe() string {
	return fmt.Sprintf("sources=%d/%d/%d threshold=%.2f budget=%d weights(r/q/f/d)=%.2f/%.2f/%.2f/%.2f",
		p.MinSources, p.OptimalSources, p.MaxSources,
		p.MinQualityThreshold, p.MaxTokenBudget,
		p.RelevanceWeight, p.QualityWeight, p.FreshnessWeight, p.DiversityWeight)
}

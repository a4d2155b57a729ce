// Package fusion merges independently ranked candidate lists into a single
// ranking with weighted Reciprocal Rank Fusion.
//
// Fusion works on rank positions only. BM25 scores are unbounded-positive and
// cosine similarities live in 0-1; combining the raw scores would require
// normalization that changes the documented guarantees, so the raw scores are
// carried through for diagnostics but never summed.
package fusion

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// DefaultK is the standard RRF dampening constant.
const DefaultK = 60.0

// Config controls one fusion pass.
type Config struct {
	// K is the RRF constant. Must be positive; zero selects DefaultK.
	K float64

	// Weights holds one multiplier per input list, aligned by index. Missing
	// entries default to 1.0.
	Weights []float64

	// ContentTypeBoosts optionally multiplies fused scores per content type.
	ContentTypeBoosts map[retrieval.ContentType]float64

	// FreshnessHalfLife optionally applies exponential decay to fused scores
	// by chunk age. Zero disables decay.
	FreshnessHalfLife time.Duration

	// Now anchors freshness decay. Zero means time.Now at call time; tests
	// pin it for reproducibility.
	Now time.Time
}

// Validate rejects configurations the fusion pass cannot honor.
func (c Config) Validate() error {
	if c.K < 0 {
		return fmt.Errorf("fusion constant k must be positive, got %v", c.K)
	}
	sum := 0.0
	for _, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("fusion weight must be non-negative, got %v", w)
		}
		sum += w
	}
	if len(c.Weights) > 0 && sum == 0 {
		return fmt.Errorf("fusion weights sum to zero")
	}
	return nil
}

// Fuse merges the ranked lists into one candidate list covering the union of
// chunk IDs, sorted by fused score descending with ties broken by chunk ID.
// A chunk absent from a list simply contributes nothing from it. Empty input
// yields an empty list, not an error.
func Fuse(lists []retrieval.RankedList, cfg Config) []retrieval.ScoredCandidate {
	k := cfg.K
	if k == 0 {
		k = DefaultK
	}

	byID := make(map[string]*retrieval.ScoredCandidate)
	for li, list := range lists {
		weight := 1.0
		if li < len(cfg.Weights) {
			weight = cfg.Weights[li]
		}
		for _, item := range list.Items {
			id := item.Chunk.ID
			cand, ok := byID[id]
			if !ok {
				cand = &retrieval.ScoredCandidate{Chunk: item.Chunk}
				byID[id] = cand
			}
			cand.FusedScore += weight / (k + float64(item.Rank))
			switch list.Channel {
			case "vector":
				cand.VectorScore = item.Score
			case "lexical":
				cand.KeywordScore = item.Score
			}
		}
	}

	fused := make([]retrieval.ScoredCandidate, 0, len(byID))
	for _, cand := range byID {
		fused = append(fused, *cand)
	}

	applyBoosts(fused, cfg)

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		return fused[i].Chunk.ID < fused[j].Chunk.ID
	})
	return fused
}

// applyBoosts multiplies fused scores by the optional content-type boosts and
// freshness decay.
func applyBoosts(cands []retrieval.ScoredCandidate, cfg Config) {
	if len(cfg.ContentTypeBoosts) == 0 && cfg.FreshnessHalfLife <= 0 {
		return
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	for i := range cands {
		if boost, ok := cfg.ContentTypeBoosts[cands[i].Chunk.ContentType]; ok {
			cands[i].FusedScore *= boost
		}
		if cfg.FreshnessHalfLife > 0 && !cands[i].Chunk.CreatedAt.IsZero() {
			age := now.Sub(cands[i].Chunk.CreatedAt)
			if age > 0 {
				decay := math.Exp2(-float64(age) / float64(cfg.FreshnessHalfLife))
				cands[i].FusedScore *= decay
			}
		}
	}
}

package selector

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func scored(id, content string, score float64) retrieval.ScoredCandidate {
	return retrieval.ScoredCandidate{
		Chunk: retrieval.Chunk{
			ID:        id,
			Content:   content,
			CreatedAt: testNow.Add(-24 * time.Hour),
		},
		RerankScore: score,
		Confidence:  score,
	}
}

func testPolicy() Policy {
	return DerivePolicy(retrieval.QueryProfile{
		Domain:     retrieval.DomainGeneral,
		Complexity: 0.5,
	}, retrieval.SelectionOptions{})
}

func TestSelectRespectsSourceBounds(t *testing.T) {
	sel := &Selector{Now: testNow}
	var cands []retrieval.ScoredCandidate
	for i := 0; i < 20; i++ {
		cands = append(cands, scored(
			fmt.Sprintf("c%02d", i),
			fmt.Sprintf("distinct content number %d about topic %d", i, i),
			0.9-float64(i)*0.01))
	}

	policy := testPolicy()
	result := sel.Select(context.Background(), "topic", cands, policy)

	if len(result.Chunks) > policy.MaxSources {
		t.Errorf("selected %d chunks, policy max is %d", len(result.Chunks), policy.MaxSources)
	}
	if len(result.Chunks) != policy.OptimalSources {
		t.Errorf("selected %d chunks, want optimal %d from an ample pool",
			len(result.Chunks), policy.OptimalSources)
	}
}

func TestSelectFewerCandidatesThanMinimum(t *testing.T) {
	// One qualified candidate and a min of two: return the one, never error.
	sel := &Selector{Now: testNow}
	cands := []retrieval.ScoredCandidate{scored("only", "the single relevant chunk", 0.8)}

	result := sel.Select(context.Background(), "relevant", cands, testPolicy())
	if len(result.Chunks) != 1 {
		t.Fatalf("selected %d chunks, want 1", len(result.Chunks))
	}
	if result.Chunks[0].ID != "only" {
		t.Errorf("selected %s, want only", result.Chunks[0].ID)
	}
}

func TestSelectQualityGate(t *testing.T) {
	sel := &Selector{Now: testNow}
	cands := []retrieval.ScoredCandidate{
		scored("good", "strong matching content", 0.8),
		scored("weak", "barely related content", 0.1),
	}

	policy := testPolicy()
	policy.MinQualityThreshold = 0.5
	result := sel.Select(context.Background(), "matching", cands, policy)

	if len(result.Chunks) != 1 || result.Chunks[0].ID != "good" {
		t.Errorf("quality gate kept %v, want only good", result.Chunks)
	}
}

func TestSelectAllBelowThreshold(t *testing.T) {
	sel := &Selector{Now: testNow}
	cands := []retrieval.ScoredCandidate{
		scored("a", "content a", 0.1),
		scored("b", "content b", 0.2),
	}

	policy := testPolicy()
	policy.MinQualityThreshold = 0.9
	result := sel.Select(context.Background(), "query", cands, policy)

	if len(result.Chunks) != 0 {
		t.Errorf("selected %d chunks, want 0", len(result.Chunks))
	}
	if result.EstimatedTokens != 0 || result.EstimatedCost != 0 {
		t.Errorf("empty selection has tokens=%d cost=%v, want zeros",
			result.EstimatedTokens, result.EstimatedCost)
	}
}

func TestSelectIdenticalCandidatesDiversity(t *testing.T) {
	// Ten byte-identical candidates: the greedy step picks one at full value,
	// the rest add nothing diverse; selection must not exceed the target and
	// must stay deterministic.
	sel := &Selector{Now: testNow}
	var cands []retrieval.ScoredCandidate
	for i := 0; i < 10; i++ {
		cands = append(cands, scored(fmt.Sprintf("dup%d", i),
			"identical weekly summary content", 0.8))
	}

	policy := testPolicy()
	first := sel.Select(context.Background(), "weekly summary", cands, policy)
	if len(first.Chunks) > policy.OptimalSources {
		t.Errorf("selected %d chunks, want <= %d", len(first.Chunks), policy.OptimalSources)
	}
	if first.Chunks[0].ID != "dup0" {
		t.Errorf("top pick = %s, want dup0 (ID tie-break)", first.Chunks[0].ID)
	}

	for run := 0; run < 5; run++ {
		again := sel.Select(context.Background(), "weekly summary", cands, policy)
		for i := range first.Chunks {
			if again.Chunks[i].ID != first.Chunks[i].ID {
				t.Fatalf("run %d: chunks[%d] = %s, want %s",
					run, i, again.Chunks[i].ID, first.Chunks[i].ID)
			}
		}
	}
}

func TestSelectTokenBudget(t *testing.T) {
	sel := &Selector{Now: testNow}
	long := strings.Repeat("focus session notes ", 100) // ~500 tokens each
	cands := []retrieval.ScoredCandidate{
		scored("a", long, 0.9),
		scored("b", long, 0.8),
		scored("c", long, 0.7),
	}

	policy := testPolicy()
	// Room for the query, the response allowance, and one chunk only.
	policy.MaxTokenBudget = EstimateTokens("focus") + ResponseTokenAllowance + 600

	result := sel.Select(context.Background(), "focus", cands, policy)
	if len(result.Chunks) != 1 {
		t.Fatalf("selected %d chunks, want 1 under budget", len(result.Chunks))
	}
	if result.Chunks[0].ID != "a" {
		t.Errorf("kept %s, want highest scored a", result.Chunks[0].ID)
	}
	for _, tag := range result.StrategyTags {
		if tag == retrieval.TagBudgetExhausted {
			t.Errorf("budget_exhausted tagged although one chunk fit")
		}
	}
}

func TestSelectBudgetSmallerThanAnyCandidate(t *testing.T) {
	sel := &Selector{Now: testNow}
	long := strings.Repeat("detailed project history ", 200)
	cands := []retrieval.ScoredCandidate{
		scored("best", long, 0.9),
		scored("second", long, 0.8),
	}

	policy := testPolicy()
	policy.MaxTokenBudget = 100 // below even the response allowance

	result := sel.Select(context.Background(), "project", cands, policy)
	if len(result.Chunks) != 1 || result.Chunks[0].ID != "best" {
		t.Fatalf("got %v, want single best chunk", result.Chunks)
	}

	tagged := false
	for _, tag := range result.StrategyTags {
		if tag == retrieval.TagBudgetExhausted {
			tagged = true
		}
	}
	if !tagged {
		t.Error("budget_exhausted tag missing")
	}
}

func TestSelectPrioritizeCostShrinksTarget(t *testing.T) {
	sel := &Selector{Now: testNow}
	var cands []retrieval.ScoredCandidate
	for i := 0; i < 20; i++ {
		cands = append(cands, scored(fmt.Sprintf("c%02d", i),
			fmt.Sprintf("unique topic %d content body", i), 0.9-float64(i)*0.01))
	}

	profile := retrieval.QueryProfile{Domain: retrieval.DomainGeneral, Complexity: 1.0}
	normal := sel.Select(context.Background(), "topic",
		cands, DerivePolicy(profile, retrieval.SelectionOptions{}))
	cheap := sel.Select(context.Background(), "topic",
		cands, DerivePolicy(profile, retrieval.SelectionOptions{PrioritizeCost: true}))

	if !(len(cheap.Chunks) < len(normal.Chunks)) {
		t.Errorf("cost-prioritized selected %d, normal %d; want strictly fewer",
			len(cheap.Chunks), len(normal.Chunks))
	}

	tagged := false
	for _, tag := range cheap.StrategyTags {
		if tag == "cost_prioritized" {
			tagged = true
		}
	}
	if !tagged {
		t.Error("cost_prioritized tag missing")
	}
	if !(cheap.EstimatedCost < normal.EstimatedCost) {
		t.Errorf("cost %v not below normal %v", cheap.EstimatedCost, normal.EstimatedCost)
	}
}

func TestSelectEstimates(t *testing.T) {
	sel := &Selector{Now: testNow, PricingModel: "gpt-4o-mini"}
	cands := []retrieval.ScoredCandidate{
		scored("a", "twelve character chunk body", 0.8),
	}

	result := sel.Select(context.Background(), "chunk", cands, testPolicy())
	wantTokens := EstimateTokens("chunk") + EstimateTokens("twelve character chunk body") + ResponseTokenAllowance
	if result.EstimatedTokens != wantTokens {
		t.Errorf("EstimatedTokens = %d, want %d", result.EstimatedTokens, wantTokens)
	}
	wantCost := EstimateCost(wantTokens, "gpt-4o-mini")
	if result.EstimatedCost != wantCost {
		t.Errorf("EstimatedCost = %v, want %v", result.EstimatedCost, wantCost)
	}
	if result.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", result.Confidence)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestEstimateCostUnknownModelFallsBack(t *testing.T) {
	if got, want := EstimateCost(1000, "no-such-model"), EstimateCost(1000, DefaultPricingModel); got != want {
		t.Errorf("unknown model cost = %v, want default %v", got, want)
	}
}

package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/llm"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// ModelReranker scores query-chunk pairs with a language model, a genuine
// cross-encoder pass. Any model failure falls back to the hybrid heuristic so
// a query never fails on account of the reranker.
type ModelReranker struct {
	llmClient llm.LLM
	model     string
	fallback  *HeuristicReranker
}

// ModelRerankerOption is a functional option for configuring ModelReranker.
type ModelRerankerOption func(*ModelReranker)

// WithModel sets the model to use for reranking.
func WithModel(model string) ModelRerankerOption {
	return func(r *ModelReranker) {
		r.model = model
	}
}

// NewModelReranker creates a model-backed reranker.
func NewModelReranker(llmClient llm.LLM, opts ...ModelRerankerOption) *ModelReranker {
	r := &ModelReranker{
		llmClient: llmClient,
		model:     llm.DefaultModel,
		fallback:  NewHeuristicReranker(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// relevanceScore is the structured per-chunk output expected from the model.
type relevanceScore struct {
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type rerankResponse struct {
	Scores []relevanceScore `json:"scores"`
}

// Rerank asks the model to score every candidate, then applies the same
// diversity pass, filter, and ranking rules as the heuristic strategies.
func (r *ModelReranker) Rerank(ctx context.Context, query string, profile retrieval.QueryProfile, cands []retrieval.ScoredCandidate, opts Options) ([]retrieval.ScoredCandidate, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	prompt := r.buildPrompt(query, cands)
	response, err := r.llmClient.Generate(ctx, prompt, llm.GenerateOptions{
		Model:       r.model,
		Temperature: 0.0, // deterministic scoring
		MaxTokens:   1024,
	})
	if err != nil {
		return r.heuristicFallback(ctx, query, profile, cands, opts)
	}

	scores, err := parseScores(response, len(cands))
	if err != nil {
		return r.heuristicFallback(ctx, query, profile, cands, opts)
	}

	scored := make([]retrieval.ScoredCandidate, len(cands))
	for i, cand := range cands {
		scored[i] = cand
		scored[i].RerankScore = scores[i]
		scored[i].Confidence = scores[i]
		if scored[i].Confidence > maxConfidence {
			scored[i].Confidence = maxConfidence
		}
		scored[i].Breakdown = map[string]float64{"model": scores[i]}
	}
	sortByScore(scored)

	filtered := scored[:0]
	for _, cand := range scored {
		if cand.RerankScore >= opts.MinScore {
			filtered = append(filtered, cand)
		}
	}
	assignRanks(filtered)
	return filtered, nil
}

func (r *ModelReranker) heuristicFallback(ctx context.Context, query string, profile retrieval.QueryProfile, cands []retrieval.ScoredCandidate, opts Options) ([]retrieval.ScoredCandidate, error) {
	opts.Strategy = StrategyHybrid
	return r.fallback.Rerank(ctx, query, profile, cands, opts)
}

func (r *ModelReranker) buildPrompt(query string, cands []retrieval.ScoredCandidate) string {
	var sb strings.Builder

	sb.WriteString("You are a relevance scoring system. Score each chunk's relevance to the query.\n\n")
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nChunks to score:\n")
	for i, cand := range cands {
		content := cand.Chunk.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Fprintf(&sb, "[Chunk %d] (%s): %s\n\n", i, cand.Chunk.ContentType, content)
	}

	sb.WriteString(`Score each chunk from 0.0 to 1.0 based on relevance to the query.
Output ONLY valid JSON in this exact format:
{"scores": [{"chunk_index": 0, "score": 0.9}, {"chunk_index": 1, "score": 0.3}]}

Be strict: irrelevant chunks should score below 0.3, somewhat relevant 0.3-0.7, highly relevant above 0.7.
Output only JSON, no explanation:`)

	return sb.String()
}

// parseScores extracts per-chunk scores from the model response, tolerating
// markdown code fences.
func parseScores(response string, numCands int) ([]float64, error) {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}
	response = strings.TrimSpace(response)

	var parsed rerankResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("parsing rerank response: %w", err)
	}

	scores := make([]float64, numCands)
	for i := range scores {
		scores[i] = 0.5 // neutral for entries the model omitted
	}
	for _, s := range parsed.Scores {
		if s.ChunkIndex >= 0 && s.ChunkIndex < numCands {
			score := s.Score
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
			scores[s.ChunkIndex] = score
		}
	}

	return scores, nil
}

// Ensure ModelReranker implements Reranker.
var _ Reranker = (*ModelReranker)(nil)

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/llm"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// ModelClassifier profiles queries with a language model. Any model failure
// falls back to the keyword classifier, so classification never blocks a
// query.
type ModelClassifier struct {
	llmClient llm.LLM
	model     string
	fallback  *KeywordClassifier
}

// ModelClassifierOption is a functional option for configuring
// ModelClassifier.
type ModelClassifierOption func(*ModelClassifier)

// WithModel sets the model to use for classification.
func WithModel(model string) ModelClassifierOption {
	return func(c *ModelClassifier) {
		c.model = model
	}
}

// NewModelClassifier creates a model-backed classifier.
func NewModelClassifier(llmClient llm.LLM, opts ...ModelClassifierOption) *ModelClassifier {
	c := &ModelClassifier{
		llmClient: llmClient,
		model:     llm.DefaultModel,
		fallback:  NewKeywordClassifier(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// profileResponse is the structured output expected from the model.
type profileResponse struct {
	Domain              string  `json:"domain"`
	Intent              string  `json:"intent"`
	Complexity          float64 `json:"complexity"`
	ExpectedSourceCount int     `json:"expected_source_count"`
	Confidence          float64 `json:"confidence"`
}

// Classify asks the model for a structured profile and validates it against
// the known domains and intents.
func (c *ModelClassifier) Classify(ctx context.Context, query string) (retrieval.QueryProfile, error) {
	prompt := buildProfilePrompt(query)
	response, err := c.llmClient.Generate(ctx, prompt, llm.GenerateOptions{
		Model:       c.model,
		Temperature: 0.0,
		MaxTokens:   256,
	})
	if err != nil {
		return c.fallback.Classify(ctx, query)
	}

	profile, err := parseProfile(response)
	if err != nil {
		return c.fallback.Classify(ctx, query)
	}
	return profile, nil
}

func buildProfilePrompt(query string) string {
	var sb strings.Builder
	sb.WriteString("Classify this productivity query.\n\nQuery: ")
	sb.WriteString(query)
	sb.WriteString(`

Output ONLY valid JSON in this exact format:
{"domain": "task", "intent": "count", "complexity": 0.4, "expected_source_count": 3, "confidence": 0.8}

domain must be one of: task, project, productivity, time, general
intent must be one of: count, analysis, comparison, timeline, relationship, general
complexity and confidence are in [0,1]; expected_source_count is 0 when unsure.
Output only JSON, no explanation:`)
	return sb.String()
}

func parseProfile(response string) (retrieval.QueryProfile, error) {
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

	var parsed profileResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return retrieval.QueryProfile{}, fmt.Errorf("parsing profile response: %w", err)
	}

	domain := retrieval.QueryDomain(parsed.Domain)
	switch domain {
	case retrieval.DomainTask, retrieval.DomainProject, retrieval.DomainProductivity,
		retrieval.DomainTime, retrieval.DomainGeneral:
	default:
		return retrieval.QueryProfile{}, fmt.Errorf("unknown domain %q", parsed.Domain)
	}

	intent := retrieval.QueryIntent(parsed.Intent)
	switch intent {
	case retrieval.IntentCount, retrieval.IntentAnalysis, retrieval.IntentComparison,
		retrieval.IntentTimeline, retrieval.IntentRelationship, retrieval.IntentGeneral:
	default:
		return retrieval.QueryProfile{}, fmt.Errorf("unknown intent %q", parsed.Intent)
	}

	return retrieval.QueryProfile{
		Domain:              domain,
		PrimaryIntent:       intent,
		Complexity:          clamp01(parsed.Complexity),
		ExpectedSourceCount: max(0, parsed.ExpectedSourceCount),
		Confidence:          clamp01(parsed.Confidence),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Ensure ModelClassifier implements Classifier.
var _ Classifier = (*ModelClassifier)(nil)

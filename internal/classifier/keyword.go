package classifier

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// domainKeywords maps signal words to the domain they vote for. Read-only
// after initialization.
var domainKeywords = map[retrieval.QueryDomain][]string{
	retrieval.DomainTask: {
		"task", "tasks", "todo", "todos", "complete", "completed",
		"finish", "finished", "done", "pending", "overdue", "deadline",
	},
	retrieval.DomainProject: {
		"project", "projects", "milestone", "milestones", "initiative",
		"roadmap", "epic", "deliverable",
	},
	retrieval.DomainProductivity: {
		"productive", "productivity", "focus", "focused", "efficiency",
		"performance", "streak", "habit", "habits", "score",
	},
	retrieval.DomainTime: {
		"today", "yesterday", "week", "weekly", "month", "monthly",
		"hour", "hours", "minute", "minutes", "morning", "afternoon",
		"evening", "schedule", "session", "sessions",
	},
}

// intentKeywords maps signal words to the intent they vote for.
var intentKeywords = map[retrieval.QueryIntent][]string{
	retrieval.IntentCount: {
		"how", "many", "much", "count", "total", "number", "sum",
	},
	retrieval.IntentAnalysis: {
		"why", "analyze", "analysis", "insight", "insights", "pattern",
		"patterns", "trend", "trends", "breakdown",
	},
	retrieval.IntentComparison: {
		"compare", "comparison", "versus", "vs", "better", "worse",
		"more", "less", "difference", "between",
	},
	retrieval.IntentTimeline: {
		"when", "timeline", "history", "progress", "over", "since",
		"recently", "latest", "last",
	},
	retrieval.IntentRelationship: {
		"related", "relationship", "between", "connect", "connected",
		"linked", "depends", "dependency",
	},
}

// KeywordClassifier profiles queries with static keyword votes. Fully
// deterministic and allocation-light; the default when no model is wired.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify tallies keyword votes per domain and intent and scales complexity
// with query length and intent spread. Never fails.
func (c *KeywordClassifier) Classify(_ context.Context, query string) (retrieval.QueryProfile, error) {
	// Question words like "how" and "when" carry the intent signal, so stop
	// words are kept here, unlike the ranking tokenizer.
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
	}

	domain, domainVotes := bestDomain(tokenSet)
	intent, intentVotes, intentSpread := bestIntent(tokenSet)

	// Complexity grows with query length and with how many distinct intents
	// the query touches. Capped at 1.
	complexity := float64(len(tokens))/12.0 + float64(intentSpread-1)*0.2
	complexity = math.Max(0.1, math.Min(1.0, complexity))

	// Confidence reflects how decisively the votes landed.
	confidence := 0.4
	if domainVotes > 0 {
		confidence += 0.2
	}
	if intentVotes > 0 {
		confidence += 0.2
	}
	if domainVotes > 1 {
		confidence += 0.1
	}

	return retrieval.QueryProfile{
		Domain:        domain,
		Complexity:    complexity,
		PrimaryIntent: intent,
		Confidence:    math.Min(0.9, confidence),
	}, nil
}

func bestDomain(tokens map[string]struct{}) (retrieval.QueryDomain, int) {
	best := retrieval.DomainGeneral
	bestVotes := 0
	// Iterate in a fixed order so ties resolve the same way every call.
	for _, domain := range []retrieval.QueryDomain{
		retrieval.DomainTask,
		retrieval.DomainProject,
		retrieval.DomainProductivity,
		retrieval.DomainTime,
	} {
		votes := 0
		for _, kw := range domainKeywords[domain] {
			if _, ok := tokens[kw]; ok {
				votes++
			}
		}
		if votes > bestVotes {
			best = domain
			bestVotes = votes
		}
	}
	return best, bestVotes
}

func bestIntent(tokens map[string]struct{}) (retrieval.QueryIntent, int, int) {
	best := retrieval.IntentGeneral
	bestVotes := 0
	spread := 0
	for _, intent := range []retrieval.QueryIntent{
		retrieval.IntentCount,
		retrieval.IntentAnalysis,
		retrieval.IntentComparison,
		retrieval.IntentTimeline,
		retrieval.IntentRelationship,
	} {
		votes := 0
		for _, kw := range intentKeywords[intent] {
			if _, ok := tokens[kw]; ok {
				votes++
			}
		}
		if votes > 0 {
			spread++
		}
		if votes > bestVotes {
			best = intent
			bestVotes = votes
		}
	}
	if spread == 0 {
		spread = 1
	}
	return best, bestVotes, spread
}

// Ensure KeywordClassifier implements Classifier.
var _ Classifier = (*KeywordClassifier)(nil)

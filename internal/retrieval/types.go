// Package retrieval defines the domain model shared by the hybrid retrieval
// pipeline: chunks, ranked lists, scored candidates, query profiles, and
// selection results. All values are created fresh per query and never mutated
// after the pipeline returns.
package retrieval

import (
	"time"
)

// ContentType tags the granularity of the productivity record a chunk
// summarizes.
type ContentType string

const (
	ContentTaskSummary    ContentType = "task_summary"
	ContentProjectSummary ContentType = "project_summary"
	ContentSessionSummary ContentType = "session_summary"
	ContentDailySummary   ContentType = "daily_summary"
	ContentWeeklySummary  ContentType = "weekly_summary"
	ContentMonthlySummary ContentType = "monthly_summary"
	ContentGeneric        ContentType = "generic"
)

// Analytics carries the opaque numeric signals attached to a chunk by the
// summarization side. The pipeline only reads them.
type Analytics struct {
	TotalMinutes      float64 `json:"total_minutes"`
	SessionCount      int     `json:"session_count"`
	CompletionRate    float64 `json:"completion_rate"`
	ProductivityScore float64 `json:"productivity_score"`
}

// Chunk is one retrievable text unit. Chunks are produced and owned
// externally; the pipeline treats them as immutable for the duration of one
// query.
type Chunk struct {
	ID          string
	Content     string
	ContentType ContentType
	CreatedAt   time.Time
	SourceIDs   []string
	Level       int // priority tier, lower = coarser/more important
	ProjectID   string
	TaskID      string
	UserID      string
	Analytics   Analytics
}

// RankedItem is one entry of a ranked list. Rank is 1-based and
// authoritative; Score is the channel's raw score and advisory only.
type RankedItem struct {
	Chunk Chunk
	Rank  int
	Score float64
}

// RankedList is the ordered output of one retrieval channel.
type RankedList struct {
	Channel string // e.g. "vector", "lexical"
	Items   []RankedItem
}

// ScoredCandidate is a chunk annotated with every score the pipeline computes
// for it. Exactly one exists per distinct chunk ID within a run. Rank is
// assigned only after the terminal sort and is 1-based with no gaps.
type ScoredCandidate struct {
	Chunk        Chunk
	VectorScore  float64
	KeywordScore float64
	FusedScore   float64
	RerankScore  float64
	Confidence   float64
	Rank         int
	Breakdown    map[string]float64
}

// QueryDomain classifies which slice of the productivity data a query targets.
type QueryDomain string

const (
	DomainTask         QueryDomain = "task"
	DomainProject      QueryDomain = "project"
	DomainProductivity QueryDomain = "productivity"
	DomainTime         QueryDomain = "time"
	DomainGeneral      QueryDomain = "general"
)

// QueryIntent classifies the shape of answer a query expects.
type QueryIntent string

const (
	IntentCount        QueryIntent = "count"
	IntentAnalysis     QueryIntent = "analysis"
	IntentComparison   QueryIntent = "comparison"
	IntentTimeline     QueryIntent = "timeline"
	IntentRelationship QueryIntent = "relationship"
	IntentGeneral      QueryIntent = "general"
)

// QueryProfile is the externally supplied classification of a query.
// Immutable per query.
type QueryProfile struct {
	Domain              QueryDomain
	Complexity          float64 // 0-1
	PrimaryIntent       QueryIntent
	ExpectedSourceCount int
	Confidence          float64 // 0-1
}

// SelectionOptions are the caller-supplied knobs for source selection.
type SelectionOptions struct {
	PrioritizeCost      bool
	MaxTokenBudget      int // 0 means unlimited
	MinQualityThreshold float64
	IncludeRecentBias   bool
	ContentTypeWeights  map[ContentType]float64
}

// SelectionResult is the terminal output of a pipeline run, handed to the
// answer synthesizer. Never mutated after creation.
type SelectionResult struct {
	Chunks          []Chunk
	EstimatedTokens int
	EstimatedCost   float64
	StrategyTags    []string
	Confidence      float64
}

// TagBudgetExhausted marks a result where the token budget was too small for
// any candidate and a single best-effort source was kept by policy.
const TagBudgetExhausted = "budget_exhausted"

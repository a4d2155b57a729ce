// Package pipeline runs the full hybrid retrieval pass: lexical scoring,
// rank fusion with the vector channel, multi-signal reranking, and adaptive
// source selection.
//
// The pipeline is pure computation over immutable inputs: it performs no I/O,
// holds no resources, and may be abandoned between stages. Failures local to
// one candidate never escalate; only configuration errors surface to the
// caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/fusion"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/lexical"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/reranker"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/selector"
)

// ErrInvalidConfig is returned when the pipeline configuration cannot be
// honored. Wrapped with detail; test with errors.Is.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config holds the per-pipeline knobs. Validated once at construction and
// read-only afterwards.
type Config struct {
	// FusionK is the RRF dampening constant.
	FusionK float64

	// VectorWeight and LexicalWeight scale the two channels inside fusion.
	VectorWeight  float64
	LexicalWeight float64

	// Strategy selects the reranker scoring strategy.
	Strategy reranker.Strategy

	// MinRelevance drops reranked candidates below this score.
	MinRelevance float64

	// FreshnessHalfLife configures the reranker's freshness decay. Zero
	// selects the reranker default.
	FreshnessHalfLife time.Duration

	// PricingModel keys the selector's price table.
	PricingModel string

	// Now pins the clock for freshness and selection; zero means wall clock.
	// Pinned in tests so identical inputs produce identical results.
	Now time.Time
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		FusionK:       fusion.DefaultK,
		VectorWeight:  1.0,
		LexicalWeight: 1.0,
		Strategy:      reranker.StrategyHybrid,
		MinRelevance:  0.05,
	}
}

// Validate rejects configurations the pipeline cannot honor.
func (c Config) Validate() error {
	if c.FusionK <= 0 {
		return fmt.Errorf("%w: fusion constant k must be positive, got %v", ErrInvalidConfig, c.FusionK)
	}
	if c.VectorWeight < 0 || c.LexicalWeight < 0 {
		return fmt.Errorf("%w: channel weights must be non-negative", ErrInvalidConfig)
	}
	if c.VectorWeight+c.LexicalWeight == 0 {
		return fmt.Errorf("%w: channel weights sum to zero", ErrInvalidConfig)
	}
	if c.MinRelevance < 0 || c.MinRelevance > 1 {
		return fmt.Errorf("%w: min relevance must be in [0,1], got %v", ErrInvalidConfig, c.MinRelevance)
	}
	return nil
}

// Pipeline wires the four ranking stages together.
type Pipeline struct {
	cfg    Config
	rerank reranker.Reranker
	logger *slog.Logger
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithReranker substitutes the reranker implementation, e.g. a model-backed
// one.
func WithReranker(r reranker.Reranker) Option {
	return func(p *Pipeline) {
		p.rerank = r
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New validates the configuration and builds a pipeline. The default
// reranker is the heuristic one.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		rerank: reranker.NewHeuristicReranker(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one retrieval pass. The vector list may be nil when the
// vector channel is unavailable; the pipeline then ranks lexically alone.
// Empty input yields an empty, zero-cost result, not an error.
func (p *Pipeline) Run(ctx context.Context, query string, profile retrieval.QueryProfile, chunks []retrieval.Chunk, vectorList *retrieval.RankedList, opts retrieval.SelectionOptions) (retrieval.SelectionResult, retrieval.Diagnostics, error) {
	start := time.Now()
	diag := retrieval.Diagnostics{CandidatesIn: len(chunks)}

	if err := validateOptions(opts); err != nil {
		return retrieval.SelectionResult{}, diag, err
	}
	if len(chunks) == 0 {
		diag.ProcessingTime = time.Since(start)
		return retrieval.SelectionResult{}, diag, nil
	}
	if err := ctx.Err(); err != nil {
		return retrieval.SelectionResult{}, diag, err
	}

	// Stage 1: lexical channel.
	lexList := lexical.Rank(query, chunks)

	// Stage 2: fuse with the vector channel by rank position.
	lists := []retrieval.RankedList{lexList}
	weights := []float64{p.cfg.LexicalWeight}
	if vectorList != nil && len(vectorList.Items) > 0 {
		lists = append(lists, *vectorList)
		weights = append(weights, p.cfg.VectorWeight)
	}
	fused := fusion.Fuse(lists, fusion.Config{K: p.cfg.FusionK, Weights: weights})
	diag.CandidatesFused = len(fused)

	if err := ctx.Err(); err != nil {
		return retrieval.SelectionResult{}, diag, err
	}

	// Stage 3: rerank.
	reranked, err := p.rerank.Rerank(ctx, query, profile, fused, reranker.Options{
		Strategy:           p.cfg.Strategy,
		MinScore:           p.cfg.MinRelevance,
		FreshnessHalfLife:  p.cfg.FreshnessHalfLife,
		ContentTypeWeights: opts.ContentTypeWeights,
		Now:                p.cfg.Now,
	})
	if err != nil {
		return retrieval.SelectionResult{}, diag, fmt.Errorf("reranking: %w", err)
	}
	diag.CandidatesRanked = len(reranked)
	for _, cand := range reranked {
		diag.Buckets.Bucket(cand.RerankScore)
	}

	if err := ctx.Err(); err != nil {
		return retrieval.SelectionResult{}, diag, err
	}

	// Stage 4: adaptive selection.
	policy := selector.DerivePolicy(profile, opts)
	sel := selector.Selector{PricingModel: p.cfg.PricingModel, Now: p.cfg.Now}
	result := sel.Select(ctx, query, reranked, policy)

	diag.CandidatesFinal = len(result.Chunks)
	for _, tag := range result.StrategyTags {
		if tag == retrieval.TagBudgetExhausted {
			diag.Warnings = append(diag.Warnings, "token budget below smallest candidate; kept one best-effort source")
		}
	}
	diag.ProcessingTime = time.Since(start)

	p.logger.Debug("retrieval pass complete",
		"candidates_in", diag.CandidatesIn,
		"fused", diag.CandidatesFused,
		"ranked", diag.CandidatesRanked,
		"selected", diag.CandidatesFinal,
		"policy", policy.Describe(),
		"duration", diag.ProcessingTime,
	)

	return result, diag, nil
}

func validateOptions(opts retrieval.SelectionOptions) error {
	if opts.MinQualityThreshold < 0 || opts.MinQualityThreshold > 1 {
		return fmt.Errorf("%w: quality threshold must be in [0,1], got %v", ErrInvalidConfig, opts.MinQualityThreshold)
	}
	if opts.MaxTokenBudget < 0 {
		return fmt.Errorf("%w: token budget must be non-negative, got %d", ErrInvalidConfig, opts.MaxTokenBudget)
	}
	for ct, w := range opts.ContentTypeWeights {
		if w < 0 {
			return fmt.Errorf("%w: content type weight for %q is negative", ErrInvalidConfig, ct)
		}
	}
	return nil
}

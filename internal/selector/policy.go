// Package selector turns a query profile and a pool of reranked candidates
// into the final source list under count, quality, diversity, and token
// budget constraints.
package selector

import (
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// Policy is the derived configuration for one selection pass. Computed once
// per query and read-only afterwards.
type Policy struct {
	RelevanceWeight float64
	QualityWeight   float64
	FreshnessWeight float64
	DiversityWeight float64

	MinSources     int
	OptimalSources int
	MaxSources     int

	MinQualityThreshold float64
	MaxTokenBudget      int
	ContentTypeWeights  map[retrieval.ContentType]float64

	prioritizeCost bool
}

// PrioritizeCost reports whether the caller asked for a cost-reduced target.
func (p Policy) PrioritizeCost() bool {
	return p.prioritizeCost
}

// signalPreset is the starting weight mix for a query domain.
type signalPreset struct {
	relevance float64
	quality   float64
	freshness float64
	diversity float64
}

// domainPresets holds the per-domain starting weights. Read-only after
// initialization.
var domainPresets = map[retrieval.QueryDomain]signalPreset{
	retrieval.DomainTask:         {relevance: 0.45, quality: 0.25, freshness: 0.20, diversity: 0.10},
	retrieval.DomainProject:      {relevance: 0.40, quality: 0.25, freshness: 0.10, diversity: 0.25},
	retrieval.DomainProductivity: {relevance: 0.35, quality: 0.30, freshness: 0.20, diversity: 0.15},
	retrieval.DomainTime:         {relevance: 0.35, quality: 0.20, freshness: 0.35, diversity: 0.10},
	retrieval.DomainGeneral:      {relevance: 0.40, quality: 0.25, freshness: 0.15, diversity: 0.20},
}

const (
	defaultMinSources = 2
	defaultMaxSources = 8
)

// DerivePolicy computes the selection policy from the query profile and the
// caller's options. Intent shifts the weight mix: counting queries lean on
// fresh, high-quality aggregates while analytical queries need breadth.
func DerivePolicy(profile retrieval.QueryProfile, opts retrieval.SelectionOptions) Policy {
	preset, ok := domainPresets[profile.Domain]
	if !ok {
		preset = domainPresets[retrieval.DomainGeneral]
	}

	p := Policy{
		RelevanceWeight:     preset.relevance,
		QualityWeight:       preset.quality,
		FreshnessWeight:     preset.freshness,
		DiversityWeight:     preset.diversity,
		MinSources:          defaultMinSources,
		MaxSources:          defaultMaxSources,
		MinQualityThreshold: opts.MinQualityThreshold,
		MaxTokenBudget:      opts.MaxTokenBudget,
		ContentTypeWeights:  opts.ContentTypeWeights,
		prioritizeCost:      opts.PrioritizeCost,
	}

	switch profile.PrimaryIntent {
	case retrieval.IntentCount:
		p.FreshnessWeight += 0.10
		p.QualityWeight += 0.10
	case retrieval.IntentAnalysis:
		p.DiversityWeight += 0.10
		p.QualityWeight += 0.10
	case retrieval.IntentComparison:
		p.DiversityWeight += 0.15
		p.MaxSources += 2
	case retrieval.IntentTimeline:
		p.FreshnessWeight += 0.15
	}
	if opts.IncludeRecentBias {
		p.FreshnessWeight += 0.10
	}
	normalizeWeights(&p)

	// Target count scales with complexity unless the classifier supplied an
	// explicit expectation.
	if profile.ExpectedSourceCount > 0 {
		p.OptimalSources = profile.ExpectedSourceCount
	} else {
		complexity := profile.Complexity
		if complexity < 0 {
			complexity = 0
		}
		if complexity > 1 {
			complexity = 1
		}
		span := float64(p.MaxSources - p.MinSources)
		p.OptimalSources = p.MinSources + int(complexity*span+0.5)
	}
	if p.OptimalSources < p.MinSources {
		p.OptimalSources = p.MinSources
	}
	if p.OptimalSources > p.MaxSources {
		p.OptimalSources = p.MaxSources
	}

	return p
}

func normalizeWeights(p *Policy) {
	sum := p.RelevanceWeight + p.QualityWeight + p.FreshnessWeight + p.DiversityWeight
	if sum <= 0 {
		return
	}
	p.RelevanceWeight /= sum
	p.QualityWeight /= sum
	p.FreshnessWeight /= sum
	p.DiversityWeight /= sum
}

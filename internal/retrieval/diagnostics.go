package retrieval

import "time"

// ScoreBuckets counts rerank scores by band for observability.
type ScoreBuckets struct {
	High   int `json:"high"`   // > 0.8
	Medium int `json:"medium"` // 0.4 - 0.8
	Low    int `json:"low"`    // < 0.4
}

// Bucket assigns one score to its band.
func (b *ScoreBuckets) Bucket(score float64) {
	switch {
	case score > 0.8:
		b.High++
	case score >= 0.4:
		b.Medium++
	default:
		b.Low++
	}
}

// Diagnostics is per-run metadata for observability. It rides alongside the
// SelectionResult and never influences selection.
type Diagnostics struct {
	CandidatesIn     int           `json:"candidates_in"`
	CandidatesFused  int           `json:"candidates_fused"`
	CandidatesRanked int           `json:"candidates_ranked"`
	CandidatesFinal  int           `json:"candidates_final"`
	Buckets          ScoreBuckets  `json:"score_buckets"`
	ProcessingTime   time.Duration `json:"processing_time"`
	Warnings         []string      `json:"warnings,omitempty"`
}

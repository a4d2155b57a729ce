package fusion

import "github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"

// GroupKeyFunc maps a candidate to its diversity group, typically the project
// it belongs to.
type GroupKeyFunc func(retrieval.ScoredCandidate) string

// ProjectGroupKey groups candidates by project; chunks without a project fall
// into a shared bucket.
func ProjectGroupKey(c retrieval.ScoredCandidate) string {
	if c.Chunk.ProjectID != "" {
		return c.Chunk.ProjectID
	}
	return "_ungrouped"
}

// Diversify interleaves fused candidates across groups so one group cannot
// dominate the head of the list. Any single group is capped at
// max(2, resultSize/groupCount) selections. Input order within a group is
// preserved, so callers pass the already-sorted fused list.
func Diversify(cands []retrieval.ScoredCandidate, key GroupKeyFunc, resultSize int) []retrieval.ScoredCandidate {
	if resultSize <= 0 || len(cands) <= 1 {
		if resultSize > 0 && len(cands) > resultSize {
			return cands[:resultSize]
		}
		return cands
	}

	// Bucket by group, keeping first-seen group order for determinism.
	var order []string
	groups := make(map[string][]retrieval.ScoredCandidate)
	for _, c := range cands {
		k := key(c)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	perGroup := resultSize / len(order)
	if perGroup < 2 {
		perGroup = 2
	}

	out := make([]retrieval.ScoredCandidate, 0, resultSize)
	taken := make(map[string]int, len(order))
	for len(out) < resultSize {
		progressed := false
		for _, k := range order {
			if len(out) >= resultSize {
				break
			}
			n := taken[k]
			if n >= perGroup || n >= len(groups[k]) {
				continue
			}
			out = append(out, groups[k][n])
			taken[k] = n + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}

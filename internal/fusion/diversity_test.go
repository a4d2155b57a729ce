package fusion

import (
	"testing"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

func projCand(id, project string) retrieval.ScoredCandidate {
	return retrieval.ScoredCandidate{Chunk: retrieval.Chunk{ID: id, ProjectID: project}}
}

func TestDiversifyInterleavesGroups(t *testing.T) {
	cands := []retrieval.ScoredCandidate{
		projCand("a1", "alpha"),
		projCand("a2", "alpha"),
		projCand("a3", "alpha"),
		projCand("b1", "beta"),
		projCand("b2", "beta"),
	}

	got := Diversify(cands, ProjectGroupKey, 4)
	wantOrder := []string{"a1", "b1", "a2", "b2"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d candidates, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].Chunk.ID != want {
			t.Errorf("got[%d] = %s, want %s", i, got[i].Chunk.ID, want)
		}
	}
}

func TestDiversifyGroupCap(t *testing.T) {
	// Six slots over three groups caps each group at two.
	cands := []retrieval.ScoredCandidate{
		projCand("a1", "alpha"), projCand("a2", "alpha"), projCand("a3", "alpha"),
		projCand("b1", "beta"), projCand("b2", "beta"), projCand("b3", "beta"),
		projCand("c1", "gamma"),
	}

	got := Diversify(cands, ProjectGroupKey, 6)
	counts := make(map[string]int)
	for _, c := range got {
		counts[c.Chunk.ProjectID]++
	}
	for project, n := range counts {
		if n > 2 {
			t.Errorf("group %s took %d slots, cap is 2", project, n)
		}
	}
}

func TestDiversifyUngroupedBucket(t *testing.T) {
	cands := []retrieval.ScoredCandidate{
		projCand("p1", "alpha"),
		projCand("n1", ""),
		projCand("n2", ""),
	}

	got := Diversify(cands, ProjectGroupKey, 3)
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	// Ungrouped chunks share one bucket and interleave with the project group.
	if got[0].Chunk.ID != "p1" || got[1].Chunk.ID != "n1" {
		t.Errorf("order = %s, %s; want p1, n1", got[0].Chunk.ID, got[1].Chunk.ID)
	}
}

func TestDiversifySmallInputsPassThrough(t *testing.T) {
	single := []retrieval.ScoredCandidate{projCand("only", "alpha")}
	if got := Diversify(single, ProjectGroupKey, 5); len(got) != 1 {
		t.Errorf("got %d, want 1", len(got))
	}
	if got := Diversify(nil, ProjectGroupKey, 5); len(got) != 0 {
		t.Errorf("got %d for nil input, want 0", len(got))
	}
}

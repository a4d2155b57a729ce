package fusion

import (
	"math"
	"testing"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

func rankedList(channel string, ids ...string) retrieval.RankedList {
	list := retrieval.RankedList{Channel: channel}
	for i, id := range ids {
		list.Items = append(list.Items, retrieval.RankedItem{
			Chunk: retrieval.Chunk{ID: id},
			Rank:  i + 1,
		})
	}
	return list
}

func TestFuseTwoChannels(t *testing.T) {
	// vector: A, B, C and lexical: B, C, A at k=60. B leads because it ranks
	// high in both lists; A's single first place does not outweigh that.
	lists := []retrieval.RankedList{
		rankedList("vector", "A", "B", "C"),
		rankedList("lexical", "B", "C", "A"),
	}

	fused := Fuse(lists, Config{K: 60})
	if len(fused) != 3 {
		t.Fatalf("got %d candidates, want 3", len(fused))
	}

	wantOrder := []string{"B", "A", "C"}
	for i, want := range wantOrder {
		if fused[i].Chunk.ID != want {
			t.Errorf("fused[%d].ID = %q, want %q", i, fused[i].Chunk.ID, want)
		}
	}

	wantScores := map[string]float64{
		"A": 1.0/61.0 + 1.0/63.0,
		"B": 1.0/62.0 + 1.0/61.0,
		"C": 1.0/63.0 + 1.0/62.0,
	}
	for _, cand := range fused {
		want := wantScores[cand.Chunk.ID]
		if math.Abs(cand.FusedScore-want) > 1e-9 {
			t.Errorf("fused score for %s = %v, want %v", cand.Chunk.ID, cand.FusedScore, want)
		}
	}
}

func TestFuseUnionCoverage(t *testing.T) {
	// Every chunk in any input list appears exactly once in the output.
	lists := []retrieval.RankedList{
		rankedList("vector", "A", "B"),
		rankedList("lexical", "C", "D", "B"),
	}

	fused := Fuse(lists, Config{K: 60})
	seen := make(map[string]int)
	for _, cand := range fused {
		seen[cand.Chunk.ID]++
	}
	for _, id := range []string{"A", "B", "C", "D"} {
		if seen[id] != 1 {
			t.Errorf("chunk %s appears %d times, want 1", id, seen[id])
		}
	}
}

func TestFuseChannelWeights(t *testing.T) {
	// Weighting the lexical channel heavier flips the winner.
	lists := []retrieval.RankedList{
		rankedList("vector", "A", "B"),
		rankedList("lexical", "B", "A"),
	}

	fused := Fuse(lists, Config{K: 60, Weights: []float64{1.0, 3.0}})
	if fused[0].Chunk.ID != "B" {
		t.Errorf("top candidate = %s, want B", fused[0].Chunk.ID)
	}
}

func TestFuseCarriesChannelScores(t *testing.T) {
	vec := rankedList("vector", "A")
	vec.Items[0].Score = 0.87
	lex := rankedList("lexical", "A")
	lex.Items[0].Score = 4.2

	fused := Fuse([]retrieval.RankedList{vec, lex}, Config{K: 60})
	if fused[0].VectorScore != 0.87 {
		t.Errorf("VectorScore = %v, want 0.87", fused[0].VectorScore)
	}
	if fused[0].KeywordScore != 4.2 {
		t.Errorf("KeywordScore = %v, want 4.2", fused[0].KeywordScore)
	}
}

func TestFuseTieBreakByID(t *testing.T) {
	// Symmetric ranks produce equal scores; ID ascending decides.
	lists := []retrieval.RankedList{
		rankedList("vector", "zeta", "echo"),
		rankedList("lexical", "echo", "zeta"),
	}

	fused := Fuse(lists, Config{K: 60})
	if fused[0].Chunk.ID != "echo" || fused[1].Chunk.ID != "zeta" {
		t.Errorf("order = %s, %s; want echo, zeta", fused[0].Chunk.ID, fused[1].Chunk.ID)
	}
}

func TestFuseEmptyInput(t *testing.T) {
	if got := Fuse(nil, Config{K: 60}); len(got) != 0 {
		t.Errorf("got %d candidates for empty input, want 0", len(got))
	}
}

func TestFuseSingleList(t *testing.T) {
	fused := Fuse([]retrieval.RankedList{rankedList("lexical", "A", "B")}, Config{K: 60})
	if len(fused) != 2 || fused[0].Chunk.ID != "A" {
		t.Fatalf("single list order not preserved: %+v", fused)
	}
}

func TestFuseFreshnessDecay(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	old := retrieval.RankedList{Channel: "lexical", Items: []retrieval.RankedItem{
		{Chunk: retrieval.Chunk{ID: "old", CreatedAt: now.Add(-60 * 24 * time.Hour)}, Rank: 1},
		{Chunk: retrieval.Chunk{ID: "new", CreatedAt: now.Add(-time.Hour)}, Rank: 2},
	}}

	fused := Fuse([]retrieval.RankedList{old}, Config{
		K:                 60,
		FreshnessHalfLife: 30 * 24 * time.Hour,
		Now:               now,
	})
	// Two half-lives cut the older chunk to a quarter; rank 2 fresh beats it.
	if fused[0].Chunk.ID != "new" {
		t.Errorf("top candidate = %s, want new", fused[0].Chunk.ID)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}, wantErr: false},
		{name: "negative k", cfg: Config{K: -1}, wantErr: true},
		{name: "negative weight", cfg: Config{Weights: []float64{1, -0.5}}, wantErr: true},
		{name: "all zero weights", cfg: Config{Weights: []float64{0, 0}}, wantErr: true},
		{name: "valid weights", cfg: Config{K: 60, Weights: []float64{1, 2}}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

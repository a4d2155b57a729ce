package lexical

import (
	"testing"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

func chunk(id, content string) retrieval.Chunk {
	return retrieval.Chunk{ID: id, Content: content}
}

func TestScoreNonNegative(t *testing.T) {
	// Terms appearing in more than half the corpus drive idf negative; the
	// final score must still clamp at zero.
	chunks := []retrieval.Chunk{
		chunk("a", "focus session on the billing project"),
		chunk("b", "focus session on the search project"),
		chunk("c", "focus session notes"),
		chunk("d", "unrelated grocery list"),
	}

	scores := Score("focus session", chunks)
	if len(scores) != len(chunks) {
		t.Fatalf("got %d scores, want %d", len(scores), len(chunks))
	}
	for i, s := range scores {
		if s < 0 {
			t.Errorf("scores[%d] = %v, want >= 0", i, s)
		}
	}
}

func TestScoreRelevanceOrdering(t *testing.T) {
	chunks := []retrieval.Chunk{
		chunk("match", "completed the quarterly report for the design team"),
		chunk("partial", "the design team met on monday"),
		chunk("miss", "grocery shopping and errands"),
	}

	scores := Score("quarterly report design", chunks)
	if !(scores[0] > scores[1]) {
		t.Errorf("full match scored %v, partial %v; want full > partial", scores[0], scores[1])
	}
	if scores[2] != 0 {
		t.Errorf("non-matching chunk scored %v, want 0", scores[2])
	}
}

func TestScoreEdgeCases(t *testing.T) {
	chunks := []retrieval.Chunk{
		chunk("a", "some content here"),
		chunk("b", ""),
	}

	t.Run("empty query scores all zero", func(t *testing.T) {
		for i, s := range Score("", chunks) {
			if s != 0 {
				t.Errorf("scores[%d] = %v, want 0", i, s)
			}
		}
	})

	t.Run("stop word only query scores all zero", func(t *testing.T) {
		for i, s := range Score("the a of", chunks) {
			if s != 0 {
				t.Errorf("scores[%d] = %v, want 0", i, s)
			}
		}
	})

	t.Run("empty chunk content scores zero without error", func(t *testing.T) {
		scores := Score("content", chunks)
		if scores[1] != 0 {
			t.Errorf("empty chunk scored %v, want 0", scores[1])
		}
		if scores[0] <= 0 {
			t.Errorf("matching chunk scored %v, want > 0", scores[0])
		}
	})

	t.Run("no chunks", func(t *testing.T) {
		if got := Score("anything", nil); len(got) != 0 {
			t.Errorf("got %d scores for empty corpus, want 0", len(got))
		}
	})
}

func TestRankDeterministicTieBreak(t *testing.T) {
	// Identical content forces identical scores; order must fall back to ID.
	chunks := []retrieval.Chunk{
		chunk("charlie", "deep work session"),
		chunk("alpha", "deep work session"),
		chunk("bravo", "deep work session"),
	}

	list := Rank("deep work", chunks)
	if list.Channel != "lexical" {
		t.Fatalf("channel = %q, want %q", list.Channel, "lexical")
	}

	wantOrder := []string{"alpha", "bravo", "charlie"}
	for i, want := range wantOrder {
		if list.Items[i].Chunk.ID != want {
			t.Errorf("items[%d].ID = %q, want %q", i, list.Items[i].Chunk.ID, want)
		}
		if list.Items[i].Rank != i+1 {
			t.Errorf("items[%d].Rank = %d, want %d", i, list.Items[i].Rank, i+1)
		}
	}
}

func TestRankStableAcrossRuns(t *testing.T) {
	chunks := []retrieval.Chunk{
		chunk("one", "project planning and estimation"),
		chunk("two", "planning the sprint backlog"),
		chunk("three", "sprint retro notes"),
	}

	first := Rank("sprint planning", chunks)
	for run := 0; run < 10; run++ {
		got := Rank("sprint planning", chunks)
		for i := range first.Items {
			if got.Items[i].Chunk.ID != first.Items[i].Chunk.ID {
				t.Fatalf("run %d: items[%d].ID = %q, want %q",
					run, i, got.Items[i].Chunk.ID, first.Items[i].Chunk.ID)
			}
		}
	}
}

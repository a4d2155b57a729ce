package cache

import (
	"testing"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

func testEntry(id string) Entry {
	return Entry{
		Result: retrieval.SelectionResult{
			Chunks:          []retrieval.Chunk{{ID: id, Content: "cached content"}},
			EstimatedTokens: 42,
			Confidence:      0.7,
		},
		Profile: retrieval.QueryProfile{
			Domain:        retrieval.DomainTask,
			PrimaryIntent: retrieval.IntentCount,
		},
		Diagnostics: retrieval.Diagnostics{CandidatesIn: 10},
	}
}

func TestCacheSetGet(t *testing.T) {
	c := NewResultCache(time.Minute)
	defer c.Close()

	key := Key("u1", "what did I finish today", retrieval.SelectionOptions{})
	if _, ok := c.Get(key); ok {
		t.Fatal("Get() on empty cache returned a hit")
	}

	c.Set(key, testEntry("a"))
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() after Set() missed")
	}
	if got.Result.Chunks[0].ID != "a" || got.Result.EstimatedTokens != 42 {
		t.Errorf("got %+v, want cached result", got.Result)
	}
	if got.Profile.Domain != retrieval.DomainTask {
		t.Errorf("Profile.Domain = %s, want %s", got.Profile.Domain, retrieval.DomainTask)
	}
	if got.Diagnostics.CandidatesIn != 10 {
		t.Errorf("Diagnostics.CandidatesIn = %d, want 10", got.Diagnostics.CandidatesIn)
	}
}

func TestCacheKeyIsolation(t *testing.T) {
	c := NewResultCache(time.Minute)
	defer c.Close()

	c.Set(Key("u1", "same query", retrieval.SelectionOptions{}), testEntry("a"))

	// Another user or another query must not hit the same entry.
	if _, ok := c.Get(Key("u2", "same query", retrieval.SelectionOptions{})); ok {
		t.Error("different user hit the same cache entry")
	}
	if _, ok := c.Get(Key("u1", "other query", retrieval.SelectionOptions{})); ok {
		t.Error("different query hit the same cache entry")
	}
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	base := Key("u1", "query", retrieval.SelectionOptions{})

	variants := []retrieval.SelectionOptions{
		{MaxTokenBudget: 600},
		{MinQualityThreshold: 0.3},
		{PrioritizeCost: true},
		{IncludeRecentBias: true},
		{ContentTypeWeights: map[retrieval.ContentType]float64{retrieval.ContentDailySummary: 2.0}},
	}
	for i, opts := range variants {
		if Key("u1", "query", opts) == base {
			t.Errorf("variant %d: options did not change the key", i)
		}
	}

	// Equal option sets hash identically regardless of map construction order.
	a := retrieval.SelectionOptions{
		MaxTokenBudget: 600,
		ContentTypeWeights: map[retrieval.ContentType]float64{
			retrieval.ContentDailySummary:  2.0,
			retrieval.ContentWeeklySummary: 1.5,
		},
	}
	b := retrieval.SelectionOptions{
		MaxTokenBudget: 600,
		ContentTypeWeights: map[retrieval.ContentType]float64{
			retrieval.ContentWeeklySummary: 1.5,
			retrieval.ContentDailySummary:  2.0,
		},
	}
	if Key("u1", "query", a) != Key("u1", "query", b) {
		t.Error("equal option sets produced different keys")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewResultCache(10 * time.Millisecond)
	defer c.Close()

	key := Key("u1", "query", retrieval.SelectionOptions{})
	c.Set(key, testEntry("a"))
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewResultCache(time.Minute)
	defer c.Close()

	key := Key("u1", "query", retrieval.SelectionOptions{})
	c.Set(key, testEntry("a"))
	c.Clear()

	if _, ok := c.Get(key); ok {
		t.Error("Get() after Clear() returned a hit")
	}
}

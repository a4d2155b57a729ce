// Package cache provides short-lived result caching for retrieval passes.
// Identical queries within the TTL window return the cached selection instead
// of re-running the pipeline.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// Entry is one cached retrieval pass: the selection plus the profile and
// diagnostics it was produced under, so cache hits answer with the same
// shape as a fresh run.
type Entry struct {
	Result      retrieval.SelectionResult
	Profile     retrieval.QueryProfile
	Diagnostics retrieval.Diagnostics
}

// cached pairs an entry with its expiry.
type cached struct {
	entry     Entry
	expiresAt time.Time
}

// ResultCache provides in-memory caching of selection results.
// For production across replicas, consider Redis instead.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]cached
	ttl     time.Duration
	done    chan struct{}
}

// NewResultCache creates a cache with the given TTL and starts its cleanup
// loop. Close stops the loop.
func NewResultCache(ttl time.Duration) *ResultCache {
	c := &ResultCache{
		entries: make(map[string]cached),
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// DefaultResultCache creates a cache with a 5 minute TTL.
func DefaultResultCache() *ResultCache {
	return NewResultCache(5 * time.Minute)
}

// Key derives the cache key from the user, the query, and the selection
// options. Options are part of the key because they change the result: a
// selection computed under one token budget or weight map must never answer
// a request made under another. Weight map keys are sorted so equal option
// sets always hash identically.
func Key(userID, query string, opts retrieval.SelectionOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%t|%t|%d|%g",
		userID, query,
		opts.PrioritizeCost, opts.IncludeRecentBias,
		opts.MaxTokenBudget, opts.MinQualityThreshold)

	weights := make([]string, 0, len(opts.ContentTypeWeights))
	for ct := range opts.ContentTypeWeights {
		weights = append(weights, string(ct))
	}
	sort.Strings(weights)
	for _, ct := range weights {
		fmt.Fprintf(h, "|%s=%g", ct, opts.ContentTypeWeights[retrieval.ContentType(ct)])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for a key, if present and unexpired.
func (c *ResultCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return Entry{}, false
	}
	return e.entry, true
}

// Set stores an entry under the key for the cache TTL.
func (c *ResultCache) Set(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cached{
		entry:     entry,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// InvalidateUser drops every entry. Called when a user's chunks change;
// entries are keyed by hash so a per-user sweep is not possible without a
// secondary index, and full invalidation is cheap at this cache's size.
func (c *ResultCache) InvalidateUser(_ string) {
	c.Clear()
}

// Clear drops all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cached)
}

// Close stops the cleanup loop.
func (c *ResultCache) Close() {
	close(c.done)
}

// cleanupLoop periodically removes expired entries.
func (c *ResultCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

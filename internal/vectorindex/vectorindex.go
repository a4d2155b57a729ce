// Package vectorindex provides interfaces and implementations for vector
// similarity search over summarized chunks. Two backends exist: Qdrant and
// Postgres with pgvector. The index stores only vectors and light payload;
// the chunk catalog remains the source of truth for content.
package vectorindex

import (
	"context"
)

// Point is one chunk embedding to index.
type Point struct {
	ChunkID     string
	Vector      []float32
	ContentType string
	ProjectID   string
}

// Hit is one similarity search result. Score is the backend's similarity in
// [0,1], higher is better.
type Hit struct {
	ChunkID string
	Score   float32
}

// Index defines the interface for vector index operations. Implementations
// keep one namespace per user.
type Index interface {
	// EnsureNamespace creates the per-user storage if it does not exist.
	EnsureNamespace(ctx context.Context, userID string, dimension int) error

	// Upsert inserts or replaces points in the user's namespace.
	Upsert(ctx context.Context, userID string, points []Point) error

	// Search returns the topK nearest chunks to the query vector, best
	// first, filtered at minScore.
	Search(ctx context.Context, userID string, vector []float32, topK int, minScore float32) ([]Hit, error)

	// Delete removes points by chunk ID.
	Delete(ctx context.Context, userID string, chunkIDs []string) error

	// DropNamespace removes the user's entire namespace.
	DropNamespace(ctx context.Context, userID string) error
}

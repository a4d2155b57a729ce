package vectorindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// PgvectorIndex implements Index on Postgres with the pgvector extension.
// All users share one table, partitioned logically by user_id. An alternative
// to Qdrant for deployments that already run Postgres.
type PgvectorIndex struct {
	pool *pgxpool.Pool
}

// NewPgvectorIndex creates an index backed by the given connection pool. The
// pool is owned by the caller.
func NewPgvectorIndex(pool *pgxpool.Pool) *PgvectorIndex {
	return &PgvectorIndex{pool: pool}
}

// EnsureNamespace installs the extension and table on first use. The table is
// shared, so the schema is created once regardless of userID.
func (s *PgvectorIndex) EnsureNamespace(ctx context.Context, _ string, dimension int) error {
	q := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS chunk_vectors (
  chunk_id     UUID NOT NULL,
  user_id      TEXT NOT NULL,
  content_type TEXT NOT NULL DEFAULT '',
  project_id   TEXT NOT NULL DEFAULT '',
  embedding    vector(%d) NOT NULL,
  PRIMARY KEY (user_id, chunk_id)
);

CREATE INDEX IF NOT EXISTS chunk_vectors_user_idx
  ON chunk_vectors (user_id);

CREATE INDEX IF NOT EXISTS chunk_vectors_embedding_idx
  ON chunk_vectors USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`, dimension)

	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to ensure vector schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces vectors for the user's chunks.
func (s *PgvectorIndex) Upsert(ctx context.Context, userID string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	const q = `
		INSERT INTO chunk_vectors (chunk_id, user_id, content_type, project_id, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, chunk_id) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			project_id   = EXCLUDED.project_id,
			embedding    = EXCLUDED.embedding`

	for _, p := range points {
		_, err := s.pool.Exec(ctx, q,
			p.ChunkID, userID, p.ContentType, p.ProjectID, pgvector.NewVector(p.Vector))
		if err != nil {
			return fmt.Errorf("failed to upsert vector for chunk %s: %w", p.ChunkID, err)
		}
	}
	return nil
}

// Search returns the user's topK nearest chunks by cosine similarity.
func (s *PgvectorIndex) Search(ctx context.Context, userID string, vector []float32, topK int, minScore float32) ([]Hit, error) {
	const q = `
		SELECT chunk_id,
		       LEAST(GREATEST(1.0 - (embedding <=> $2), 0), 1) AS score
		FROM chunk_vectors
		WHERE user_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3`

	rows, err := s.pool.Query(ctx, q, userID, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var score float64
		if err := rows.Scan(&h.ChunkID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		h.Score = float32(score)
		if h.Score >= minScore {
			hits = append(hits, h)
		}
	}
	return hits, rows.Err()
}

// Delete removes vectors by chunk ID.
func (s *PgvectorIndex) Delete(ctx context.Context, userID string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	const q = `DELETE FROM chunk_vectors WHERE user_id = $1 AND chunk_id = ANY($2)`
	if _, err := s.pool.Exec(ctx, q, userID, chunkIDs); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// DropNamespace removes all of the user's vectors.
func (s *PgvectorIndex) DropNamespace(ctx context.Context, userID string) error {
	const q = `DELETE FROM chunk_vectors WHERE user_id = $1`
	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("failed to drop user vectors: %w", err)
	}
	return nil
}

// Ensure PgvectorIndex implements Index.
var _ Index = (*PgvectorIndex)(nil)

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/repository"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// ChunkRepo implements repository.ChunkRepository
type ChunkRepo struct {
	db *DB
}

// NewChunkRepo creates a new chunk repository
func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Upsert inserts or replaces a chunk record.
func (r *ChunkRepo) Upsert(ctx context.Context, chunk *repository.ChunkRecord) error {
	analyticsJSON, err := json.Marshal(chunk.Analytics)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}

	query := `
		INSERT INTO chunks (id, user_id, content, content_type, level, project_id, task_id, source_ids, analytics, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			content      = EXCLUDED.content,
			content_type = EXCLUDED.content_type,
			level        = EXCLUDED.level,
			project_id   = EXCLUDED.project_id,
			task_id      = EXCLUDED.task_id,
			source_ids   = EXCLUDED.source_ids,
			analytics    = EXCLUDED.analytics,
			updated_at   = NOW()
	`
	_, err = r.db.Pool.Exec(ctx, query,
		chunk.ID, chunk.UserID, chunk.Content, chunk.ContentType, chunk.Level,
		chunk.ProjectID, chunk.TaskID, chunk.SourceIDs, analyticsJSON,
		chunk.CreatedAt, chunk.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

// GetByID retrieves a chunk by ID
func (r *ChunkRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.ChunkRecord, error) {
	query := `
		SELECT id, user_id, content, content_type, level, project_id, task_id, source_ids, analytics, created_at, updated_at
		FROM chunks
		WHERE id = $1
	`

	var rec repository.ChunkRecord
	var analyticsJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.UserID, &rec.Content, &rec.ContentType, &rec.Level,
		&rec.ProjectID, &rec.TaskID, &rec.SourceIDs, &analyticsJSON,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}

	if err := json.Unmarshal(analyticsJSON, &rec.Analytics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analytics: %w", err)
	}

	return &rec, nil
}

// ListByUser retrieves a user's chunks, newest first.
func (r *ChunkRepo) ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*repository.ChunkRecord, error) {
	query := `
		SELECT id, user_id, content, content_type, level, project_id, task_id, source_ids, analytics, created_at, updated_at
		FROM chunks
		WHERE user_id = $1
	`
	args := []any{userID}

	if !since.IsZero() {
		query += ` AND created_at >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var records []*repository.ChunkRecord
	for rows.Next() {
		var rec repository.ChunkRecord
		var analyticsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Content, &rec.ContentType, &rec.Level,
			&rec.ProjectID, &rec.TaskID, &rec.SourceIDs, &analyticsJSON,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		rec.Analytics = retrieval.Analytics{}
		if err := json.Unmarshal(analyticsJSON, &rec.Analytics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analytics: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Delete deletes a chunk
func (r *ChunkRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM chunks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByUser returns the number of chunks a user has.
func (r *ChunkRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// Ensure ChunkRepo implements the interface
var _ repository.ChunkRepository = (*ChunkRepo)(nil)

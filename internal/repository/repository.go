// Package repository defines domain models and data access interfaces for the
// chunk catalog, the durable source of truth for summarized chunks.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ChunkRecord is a summarized chunk as persisted in the catalog.
type ChunkRecord struct {
	ID          uuid.UUID
	UserID      string
	Content     string
	ContentType string
	Level       int
	ProjectID   string
	TaskID      string
	SourceIDs   []string
	Analytics   retrieval.Analytics
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToChunk converts a persisted record into the in-memory candidate form the
// ranking pipeline consumes.
func (r *ChunkRecord) ToChunk() retrieval.Chunk {
	return retrieval.Chunk{
		ID:          r.ID.String(),
		Content:     r.Content,
		ContentType: retrieval.ContentType(r.ContentType),
		CreatedAt:   r.CreatedAt,
		SourceIDs:   r.SourceIDs,
		Level:       r.Level,
		ProjectID:   r.ProjectID,
		TaskID:      r.TaskID,
		UserID:      r.UserID,
		Analytics:   r.Analytics,
	}
}

// ChunkRepository defines operations for chunk persistence
type ChunkRepository interface {
	Upsert(ctx context.Context, chunk *ChunkRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ChunkRecord, error)

	// ListByUser returns the user's chunks newest first. A non-zero since
	// bounds the window; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*ChunkRecord, error)

	Delete(ctx context.Context, id uuid.UUID) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

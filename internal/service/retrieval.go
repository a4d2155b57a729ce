// Package service coordinates the retrieval engine: chunk catalog, vector
// index, embedder, classifier, ranking pipeline, and result cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/cache"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/classifier"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/embedder"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/pipeline"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/repository"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/vectorindex"
)

// ErrInvalidRequest is returned for requests the service cannot act on.
var ErrInvalidRequest = errors.New("invalid request")

const (
	// defaultVectorTopK bounds the vector channel; the pipeline prunes
	// further, so the channel retrieves generously.
	defaultVectorTopK = 50

	defaultVectorMinScore = 0.2

	// defaultCandidateWindow bounds how many catalog chunks feed one pass.
	defaultCandidateWindow = 500
)

// RetrievalService answers retrieval requests over a user's chunk catalog.
type RetrievalService struct {
	chunkRepo  repository.ChunkRepository
	index      vectorindex.Index
	embed      embedder.Embedder
	classify   classifier.Classifier
	pipe       *pipeline.Pipeline
	results    *cache.ResultCache
	logger     *slog.Logger
	vectorTopK int
	vectorMin  float32
	window     int
}

// RetrievalServiceOption is a functional option for configuring
// RetrievalService.
type RetrievalServiceOption func(*RetrievalService)

// WithResultCache enables result caching.
func WithResultCache(c *cache.ResultCache) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.results = c
	}
}

// WithClassifier substitutes the query classifier.
func WithClassifier(c classifier.Classifier) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.classify = c
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.logger = logger
	}
}

// WithVectorSearch tunes the vector channel's breadth and score floor.
func WithVectorSearch(topK int, minScore float32) RetrievalServiceOption {
	return func(s *RetrievalService) {
		if topK > 0 {
			s.vectorTopK = topK
		}
		s.vectorMin = minScore
	}
}

// WithCandidateWindow bounds how many catalog chunks feed one pass.
func WithCandidateWindow(n int) RetrievalServiceOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.window = n
		}
	}
}

// NewRetrievalService creates a new RetrievalService.
func NewRetrievalService(
	chunkRepo repository.ChunkRepository,
	index vectorindex.Index,
	embed embedder.Embedder,
	pipe *pipeline.Pipeline,
	opts ...RetrievalServiceOption,
) *RetrievalService {
	s := &RetrievalService{
		chunkRepo:  chunkRepo,
		index:      index,
		embed:      embed,
		classify:   classifier.NewKeywordClassifier(),
		pipe:       pipe,
		logger:     slog.Default(),
		vectorTopK: defaultVectorTopK,
		vectorMin:  defaultVectorMinScore,
		window:     defaultCandidateWindow,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RetrieveRequest is one retrieval query.
type RetrieveRequest struct {
	UserID  string
	Query   string
	Options retrieval.SelectionOptions
}

// RetrieveResponse carries the selected sources plus the derived profile and
// run diagnostics.
type RetrieveResponse struct {
	Result      retrieval.SelectionResult
	Profile     retrieval.QueryProfile
	Diagnostics retrieval.Diagnostics
	CacheHit    bool
}

// Retrieve runs one full retrieval pass for a user query.
func (s *RetrievalService) Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}

	// Options are part of the key, so a budgeted or reweighted request never
	// answers from a pass computed under different constraints.
	cacheKey := cache.Key(req.UserID, req.Query, req.Options)
	if s.results != nil {
		if hit, ok := s.results.Get(cacheKey); ok {
			return &RetrieveResponse{
				Result:      hit.Result,
				Profile:     hit.Profile,
				Diagnostics: hit.Diagnostics,
				CacheHit:    true,
			}, nil
		}
	}

	profile, err := s.classify.Classify(ctx, req.Query)
	if err != nil {
		// Classification is advisory; fall back to the general profile.
		s.logger.Warn("query classification failed", "error", err)
		profile = retrieval.QueryProfile{
			Domain:        retrieval.DomainGeneral,
			PrimaryIntent: retrieval.IntentGeneral,
			Complexity:    0.5,
		}
	}

	records, err := s.chunkRepo.ListByUser(ctx, req.UserID, time.Time{}, s.window)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	chunks := make([]retrieval.Chunk, len(records))
	byID := make(map[string]struct{}, len(records))
	for i, rec := range records {
		chunks[i] = rec.ToChunk()
		byID[chunks[i].ID] = struct{}{}
	}

	vectorList := s.vectorChannel(ctx, req.UserID, req.Query, byID)

	result, diag, err := s.pipe.Run(ctx, req.Query, profile, chunks, vectorList, req.Options)
	if err != nil {
		return nil, err
	}

	if s.results != nil {
		s.results.Set(cacheKey, cache.Entry{
			Result:      result,
			Profile:     profile,
			Diagnostics: diag,
		})
	}

	return &RetrieveResponse{
		Result:      result,
		Profile:     profile,
		Diagnostics: diag,
	}, nil
}

// vectorChannel embeds the query and searches the vector index. Any failure
// degrades to lexical-only retrieval rather than failing the query.
func (s *RetrievalService) vectorChannel(ctx context.Context, userID, query string, known map[string]struct{}) *retrieval.RankedList {
	if s.embed == nil || s.index == nil {
		return nil
	}

	queryVector, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, continuing lexical-only", "error", err)
		return nil
	}

	hits, err := s.index.Search(ctx, userID, queryVector, s.vectorTopK, s.vectorMin)
	if err != nil {
		s.logger.Warn("vector search failed, continuing lexical-only", "error", err)
		return nil
	}

	list := &retrieval.RankedList{Channel: "vector"}
	rank := 0
	for _, hit := range hits {
		// Drop hits whose chunk is no longer in the catalog window.
		if _, ok := known[hit.ChunkID]; !ok {
			continue
		}
		rank++
		list.Items = append(list.Items, retrieval.RankedItem{
			Chunk: retrieval.Chunk{ID: hit.ChunkID},
			Rank:  rank,
			Score: float64(hit.Score),
		})
	}
	if len(list.Items) == 0 {
		return nil
	}
	return list
}

// IndexChunk catalogs a chunk and indexes its embedding. An embedding
// failure leaves the chunk cataloged for lexical retrieval.
func (s *RetrievalService) IndexChunk(ctx context.Context, rec *repository.ChunkRecord) error {
	if rec.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if rec.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.ContentType == "" {
		rec.ContentType = string(retrieval.ContentGeneric)
	}

	if err := s.chunkRepo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("cataloging chunk: %w", err)
	}

	if s.embed != nil && s.index != nil {
		vector, err := s.embed.Embed(ctx, rec.Content)
		if err != nil {
			s.logger.Warn("chunk embedding failed, cataloged for lexical retrieval only",
				"chunk_id", rec.ID, "error", err)
		} else {
			if err := s.index.EnsureNamespace(ctx, rec.UserID, s.embed.Dimension()); err != nil {
				return fmt.Errorf("ensuring vector namespace: %w", err)
			}
			err = s.index.Upsert(ctx, rec.UserID, []vectorindex.Point{{
				ChunkID:     rec.ID.String(),
				Vector:      vector,
				ContentType: rec.ContentType,
				ProjectID:   rec.ProjectID,
			}})
			if err != nil {
				return fmt.Errorf("indexing chunk vector: %w", err)
			}
		}
	}

	if s.results != nil {
		s.results.InvalidateUser(rec.UserID)
	}
	return nil
}

// DeleteChunk removes a chunk from the catalog and the vector index.
func (s *RetrievalService) DeleteChunk(ctx context.Context, userID string, id uuid.UUID) error {
	rec, err := s.chunkRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.UserID != userID {
		return repository.ErrNotFound
	}

	if err := s.chunkRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Delete(ctx, userID, []string{id.String()}); err != nil {
			s.logger.Warn("vector index delete failed", "chunk_id", id, "error", err)
		}
	}

	if s.results != nil {
		s.results.InvalidateUser(userID)
	}
	return nil
}

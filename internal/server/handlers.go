package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/auth"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/pipeline"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/repository"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/service"
)

type handlers struct {
	svc    *service.RetrievalService
	logger *slog.Logger
}

type retrieveRequest struct {
	Query               string             `json:"query"`
	PrioritizeCost      bool               `json:"prioritize_cost,omitempty"`
	MaxTokenBudget      int                `json:"max_token_budget,omitempty"`
	MinQualityThreshold float64            `json:"min_quality_threshold,omitempty"`
	IncludeRecentBias   bool               `json:"include_recent_bias,omitempty"`
	ContentTypeWeights  map[string]float64 `json:"content_type_weights,omitempty"`
}

type chunkResponse struct {
	ID          string              `json:"id"`
	Content     string              `json:"content"`
	ContentType string              `json:"content_type"`
	Level       int                 `json:"level"`
	ProjectID   string              `json:"project_id,omitempty"`
	TaskID      string              `json:"task_id,omitempty"`
	SourceIDs   []string            `json:"source_ids,omitempty"`
	Analytics   retrieval.Analytics `json:"analytics"`
	CreatedAt   time.Time           `json:"created_at"`
}

type profileResponse struct {
	Domain              string  `json:"domain"`
	Intent              string  `json:"intent"`
	Complexity          float64 `json:"complexity"`
	ExpectedSourceCount int     `json:"expected_source_count,omitempty"`
	Confidence          float64 `json:"confidence"`
}

type retrieveResponse struct {
	Chunks          []chunkResponse       `json:"chunks"`
	EstimatedTokens int                   `json:"estimated_tokens"`
	EstimatedCost   float64               `json:"estimated_cost"`
	StrategyTags    []string              `json:"strategy_tags"`
	Confidence      float64               `json:"confidence"`
	Profile         profileResponse       `json:"profile"`
	Diagnostics     retrieval.Diagnostics `json:"diagnostics"`
	CacheHit        bool                  `json:"cache_hit"`
}

func (h *handlers) retrieve(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	opts := retrieval.SelectionOptions{
		PrioritizeCost:      req.PrioritizeCost,
		MaxTokenBudget:      req.MaxTokenBudget,
		MinQualityThreshold: req.MinQualityThreshold,
		IncludeRecentBias:   req.IncludeRecentBias,
	}
	if len(req.ContentTypeWeights) > 0 {
		opts.ContentTypeWeights = make(map[retrieval.ContentType]float64, len(req.ContentTypeWeights))
		for ct, weight := range req.ContentTypeWeights {
			opts.ContentTypeWeights[retrieval.ContentType(ct)] = weight
		}
	}

	resp, err := h.svc.Retrieve(r.Context(), service.RetrieveRequest{
		UserID:  userID,
		Query:   req.Query,
		Options: opts,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := retrieveResponse{
		Chunks:          make([]chunkResponse, len(resp.Result.Chunks)),
		EstimatedTokens: resp.Result.EstimatedTokens,
		EstimatedCost:   resp.Result.EstimatedCost,
		StrategyTags:    resp.Result.StrategyTags,
		Confidence:      resp.Result.Confidence,
		Profile: profileResponse{
			Domain:              string(resp.Profile.Domain),
			Intent:              string(resp.Profile.PrimaryIntent),
			Complexity:          resp.Profile.Complexity,
			ExpectedSourceCount: resp.Profile.ExpectedSourceCount,
			Confidence:          resp.Profile.Confidence,
		},
		Diagnostics: resp.Diagnostics,
		CacheHit:    resp.CacheHit,
	}
	for i, chunk := range resp.Result.Chunks {
		out.Chunks[i] = chunkResponse{
			ID:          chunk.ID,
			Content:     chunk.Content,
			ContentType: string(chunk.ContentType),
			Level:       chunk.Level,
			ProjectID:   chunk.ProjectID,
			TaskID:      chunk.TaskID,
			SourceIDs:   chunk.SourceIDs,
			Analytics:   chunk.Analytics,
			CreatedAt:   chunk.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, out)
}

type createChunkRequest struct {
	ID          string              `json:"id,omitempty"`
	Content     string              `json:"content"`
	ContentType string              `json:"content_type,omitempty"`
	Level       int                 `json:"level,omitempty"`
	ProjectID   string              `json:"project_id,omitempty"`
	TaskID      string              `json:"task_id,omitempty"`
	SourceIDs   []string            `json:"source_ids,omitempty"`
	Analytics   retrieval.Analytics `json:"analytics,omitempty"`
	CreatedAt   time.Time           `json:"created_at,omitempty"`
}

func (h *handlers) createChunk(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req createChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec := &repository.ChunkRecord{
		UserID:      userID,
		Content:     req.Content,
		ContentType: req.ContentType,
		Level:       req.Level,
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		SourceIDs:   req.SourceIDs,
		Analytics:   req.Analytics,
		CreatedAt:   req.CreatedAt,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be a UUID")
			return
		}
		rec.ID = id
	}

	if err := h.svc.IndexChunk(r.Context(), rec); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID.String()})
}

func (h *handlers) deleteChunk(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	if err := h.svc.DeleteChunk(r.Context(), userID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, pipeline.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/auth"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/cache"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/classifier"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/config"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/embedder"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/llm"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/pipeline"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/repository"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/repository/postgres"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/reranker"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/server"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/service"
	"github.com/Ngocphuc1910/make10000hours-sub001/internal/vectorindex"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting retrieval service",
		"http_port", cfg.HTTPPort,
		"vector_backend", cfg.VectorBackend,
		"environment", cfg.Environment,
	)

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	slog.Info("connected to PostgreSQL")

	chunkRepo := postgres.NewChunkRepo(db)

	// Initialize the vector index backend
	var index vectorindex.Index
	switch cfg.VectorBackend {
	case "pgvector":
		index = vectorindex.NewPgvectorIndex(db.Pool)
		slog.Info("using pgvector index")
	default:
		qdrantIndex, err := vectorindex.NewQdrantIndex(ctx, cfg.QdrantGRPCURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		defer qdrantIndex.Close()
		index = qdrantIndex
		slog.Info("connected to Qdrant")
	}

	// Initialize Ollama embedder
	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})
	slog.Info("initialized Ollama embedder", "model", cfg.OllamaEmbeddingModel)

	// Initialize Ollama LLM for optional model-backed stages
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	slog.Info("initialized Ollama LLM", "model", cfg.OllamaLLMModel)

	// Build the ranking pipeline
	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.FusionK = cfg.FusionK
	pipeCfg.VectorWeight = cfg.VectorWeight
	pipeCfg.LexicalWeight = cfg.LexicalWeight
	pipeCfg.Strategy = reranker.Strategy(cfg.RerankStrategy)
	pipeCfg.MinRelevance = cfg.MinRelevance
	pipeCfg.PricingModel = cfg.PricingModel

	var pipeOpts []pipeline.Option
	if cfg.UseModelReranker {
		pipeOpts = append(pipeOpts, pipeline.WithReranker(
			reranker.NewModelReranker(llmClient, reranker.WithModel(cfg.OllamaLLMModel))))
		slog.Info("using model-backed reranker")
	}
	pipe, err := pipeline.New(pipeCfg, pipeOpts...)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	// Result cache
	results := cache.NewResultCache(cfg.CacheTTL)
	defer results.Close()

	// Initialize the retrieval service
	svcOpts := []service.RetrievalServiceOption{
		service.WithResultCache(results),
		service.WithVectorSearch(cfg.VectorSearchTopK, cfg.VectorSearchMin),
		service.WithCandidateWindow(cfg.CandidateWindow),
	}
	if cfg.UseModelClassifier {
		svcOpts = append(svcOpts, service.WithClassifier(
			classifier.NewModelClassifier(llmClient, classifier.WithModel(cfg.OllamaLLMModel))))
		slog.Info("using model-backed classifier")
	}
	svc := service.NewRetrievalService(chunkRepo, index, embed, pipe, svcOpts...)

	// Auth middleware
	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Expiry: cfg.JWTExpiry,
	})
	authMW := auth.NewMiddleware(cfg.APIKeys, jwtManager)

	// Create HTTP server
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		Auth:           authMW,
		Ready:          db.Ping,
	}, svc)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// Ensure interfaces are satisfied at compile time
var (
	_ repository.ChunkRepository = (*postgres.ChunkRepo)(nil)
	_ vectorindex.Index          = (*vectorindex.QdrantIndex)(nil)
	_ vectorindex.Index          = (*vectorindex.PgvectorIndex)(nil)
	_ embedder.Embedder          = (*embedder.OllamaEmbedder)(nil)
	_ llm.LLM                    = (*llm.OllamaClient)(nil)
)

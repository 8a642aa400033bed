package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"docqa/internal/config"
	"docqa/internal/corpus"
	"docqa/internal/http"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/session"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx := context.Background()

	// Generative provider is optional; without one answers fall back to
	// extractive snippets.
	var generator llm.Generator
	if cfg.ProviderEnabled() {
		generator = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
		slog.Info("LLM provider configured", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	} else {
		slog.Info("No LLM provider configured, running extractive-only")
	}

	// Dense retrieval stack is optional as well.
	var embedder corpus.Embedder
	var vectorStore vectorstore.VectorStore
	if cfg.DenseEnabled() {
		embeddings := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingSize)
		embedder = embeddings

		qdrant, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		if err := qdrant.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		vectorStore = qdrant
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingSize)
	}

	synonyms, err := rag.LoadSynonymTable(cfg.SynonymsPath)
	if err != nil {
		log.Fatalf("Failed to load synonym table: %v", err)
	}

	rewriter := rag.NewRewriter(synonyms)
	retriever := rag.NewRetriever(rewriter, cfg.RetrievalBoost)
	answerer := rag.NewAnswerer(generator, cfg.GroundingMin)
	engine := rag.NewEngine(retriever, answerer, rag.Options{
		MaxK:          cfg.MaxK,
		MaxBlocks:     cfg.ContextMaxBlocks,
		BudgetChars:   cfg.ContextBudget,
		AnswerTimeout: time.Duration(cfg.AnswerTimeoutSecs) * time.Second,
	})
	slog.Info("Pipeline engine initialized")

	sessions := session.NewMemoryStore(cfg.SessionTTL)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if dropped := sessions.Sweep(); dropped > 0 {
				slog.Debug("Expired sessions evicted", "count", dropped)
			}
		}
	}()

	// Persistent index: readers always see a complete snapshot; indexing
	// swaps the pointer when done.
	var indexSnapshot atomic.Pointer[corpus.Corpus]
	if cfg.DocsDir != "" {
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()
		if err := db.Migrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		slog.Info("Database initialized", "path", cfg.DBPath)

		docRepo := storage.NewDocumentRepository(db)
		chunkRepo := storage.NewChunkRepository(db)
		pipeline := ingest.NewPipeline(docRepo, chunkRepo, embedder, vectorStore, cfg.QdrantCollection)

		// Index in background after the router is up; queries against the
		// persistent index 404 until the first snapshot lands.
		go func() {
			indexCtx := context.Background()
			slog.Info("Starting background indexing", "dir", cfg.DocsDir)
			if _, err := pipeline.IndexDir(indexCtx, cfg.DocsDir); err != nil {
				slog.Error("Indexing failed", "error", err)
				return
			}
			snapshot, err := pipeline.Snapshot(indexCtx)
			if err != nil {
				slog.Error("Failed to build index snapshot", "error", err)
				return
			}
			indexSnapshot.Store(snapshot)
			slog.Info("Index snapshot ready", "chunks", snapshot.Len())
		}()
	}

	deps := &http.Deps{
		Sessions:    sessions,
		Engine:      engine,
		Corpus:      indexSnapshot.Load,
		VectorStore: vectorStore,
		Collection:  cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

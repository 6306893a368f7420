package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oluseyi-dev/paperscope/internal/config"
	"github.com/oluseyi-dev/paperscope/internal/core"
	"github.com/oluseyi-dev/paperscope/internal/core/ingestion_engine"
	"github.com/oluseyi-dev/paperscope/internal/core/llm"
	"github.com/oluseyi-dev/paperscope/internal/core/vectorstore"
	"github.com/oluseyi-dev/paperscope/internal/services"
)

// App owns the wired service graph and its closeable resources.
type App struct {
	Index    core.VectorIndex
	Embedder *llm.GeminiEmbedder
	LLM      *llm.GeminiLLM
	Ingestor *ingestion_engine.Ingestor
	RAG      *services.RAGService
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	index, err := vectorstore.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init vector index: %w", err)
	}
	log.Info("vector index initialized", "backend", cfg.VectorBackend)

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	provider, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	extractor := ingestion_engine.NewPageExtractor(
		ingestion_engine.NewTesseractOCR(cfg.OCRLang),
		log,
	)
	ingestor := ingestion_engine.NewIngestor(
		index, embedder, extractor,
		cfg.CollectionName, cfg.ChunkSize, cfg.ChunkOverlap, cfg.RenderDPI,
		cfg.DownloadTimeout, log,
	)
	rag := services.NewRAGService(index, embedder, provider, cfg.MaxSourceChars, log)

	server := NewServer(cfg, ingestor, rag, log)

	return &App{
		Index:    index,
		Embedder: embedder,
		LLM:      provider,
		Ingestor: ingestor,
		RAG:      rag,
		Server:   server,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.Index != nil {
		_ = a.Index.Close()
	}
}

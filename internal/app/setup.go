package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"golang.org/x/time/rate"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/course"
	"github.com/studyowl/studyowl/internal/orchestrator"
	"github.com/studyowl/studyowl/internal/rag"
	"github.com/studyowl/studyowl/internal/session"
	"github.com/studyowl/studyowl/internal/tools"
	"github.com/studyowl/studyowl/internal/vectorstore"
)

// Setup builds the application. The configured docs directory is
// ingested before returning, so queries always see the full corpus.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	limiter := rate.NewLimiter(rate.Limit(cfg.EmbedRateLimit), 1)
	embedFn := vectorstore.WithRateLimit(vectorstore.NewEmbeddingFunc(embedder), limiter)

	store, err := vectorstore.Open(cfg.StoragePath, cfg.MaxResults, embedFn,
		logger.With("component", "vectorstore"))
	if err != nil {
		return nil, err
	}
	a.Store = store

	registry, err := provideRegistry(store, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry
	toolRefs := tools.RegisterAll(g, registry)

	client := orchestrator.NewGenkitClient(g, cfg.FullModelName(), toolRefs,
		logger.With("component", "model"))
	a.Orch = orchestrator.New(client, registry, logger.With("component", "orchestrator"))

	a.Sessions = session.NewStore(cfg.MaxHistory, logger.With("component", "session"))

	processor := course.NewProcessor(cfg.ChunkSize, cfg.ChunkOverlap,
		logger.With("component", "processor"))
	a.RAG = rag.New(processor, store, registry, a.Orch, a.Sessions,
		logger.With("component", "rag"))

	if cfg.DocsDir != "" {
		courses, chunks, err := a.RAG.AddCourseFolder(ctx, cfg.DocsDir)
		if err != nil {
			return nil, fmt.Errorf("ingesting course documents: %w", err)
		}
		if courses > 0 {
			logger.Info("startup ingestion complete", "courses", courses, "chunks", chunks)
		}
	}

	return a, nil
}

// provideGenkit initializes genkit with the configured AI provider.
// The gemini path reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		slog.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		slog.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
		return g, nil
	}
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. Ollama embedders are keyed by server address, gemini ones by
// model name.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideRegistry builds the tool registry with both retrieval tools.
func provideRegistry(store *vectorstore.Store, logger *slog.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearch(store, logger.With("tool", tools.SearchToolName))); err != nil {
		return nil, fmt.Errorf("registering search tool: %w", err)
	}
	if err := registry.Register(tools.NewCourseOutline(store, logger.With("tool", tools.OutlineToolName))); err != nil {
		return nil, fmt.Errorf("registering outline tool: %w", err)
	}
	return registry, nil
}

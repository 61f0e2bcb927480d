// Package app wires configuration, the model provider, the vector
// store, tools, orchestration and sessions into one runnable unit.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/orchestrator"
	"github.com/studyowl/studyowl/internal/rag"
	"github.com/studyowl/studyowl/internal/session"
	"github.com/studyowl/studyowl/internal/tools"
	"github.com/studyowl/studyowl/internal/vectorstore"
)

// App holds the constructed components. Fields are exported so command
// handlers can reach the layer they need directly.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Store    *vectorstore.Store
	Registry *tools.Registry
	Orch     *orchestrator.Orchestrator
	Sessions *session.Store
	RAG      *rag.System
}

// Close releases resources. The vector store persists synchronously on
// every write, so shutdown has nothing to flush; the method exists so
// callers can defer a single cleanup point as the app grows.
func (a *App) Close() error {
	a.Logger.Debug("application closed")
	return nil
}

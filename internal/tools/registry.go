package tools

import (
	"context"
	"fmt"
	"sync"
)

// Registry holds the tools available to the model and routes execution
// requests by name. It also aggregates source provenance from all
// registered SourceTrackers.
//
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string // registration order, for stable iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a second tool under an existing
// name is a programming error.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Execute runs the named tool. An unregistered name is an error, not a
// model-visible message.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("tool %q not found", name)
	}
	return t.Execute(ctx, input)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// LastSources returns the sources recorded by the first tool that has
// any, and resets that tool. Mirrors the per-query provenance handoff:
// collect once, then clear.
func (r *Registry) LastSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		tracker, ok := r.tools[name].(SourceTracker)
		if !ok {
			continue
		}
		if sources := tracker.LastSources(); len(sources) > 0 {
			tracker.ResetSources()
			return sources
		}
	}
	return nil
}

// ResetSources clears recorded sources on every tracking tool. Called
// at the start of each query so stale provenance never leaks across
// requests.
func (r *Registry) ResetSources() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tools {
		if tracker, ok := t.(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}

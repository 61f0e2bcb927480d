package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitClient implements ModelClient on top of a genkit instance.
type GenkitClient struct {
	g      *genkit.Genkit
	model  string
	tools  []ai.Tool
	logger *slog.Logger
}

// NewGenkitClient creates a client. model is the provider-qualified
// name (e.g. "googleai/gemini-2.5-flash"); toolRefs are the genkit
// declarations whose schemas the decision phase exposes.
func NewGenkitClient(g *genkit.Genkit, model string, toolRefs []ai.Tool, logger *slog.Logger) *GenkitClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenkitClient{g: g, model: model, tools: toolRefs, logger: logger}
}

// Decide runs the decision pass. Tool requests come back to the caller
// instead of being auto-executed, so the orchestrator stays in charge
// of the single-round-trip bound.
func (c *GenkitClient) Decide(ctx context.Context, system string, msgs []*ai.Message) (*Decision, error) {
	refs := make([]ai.ToolRef, len(c.tools))
	for i, t := range c.tools {
		refs[i] = t
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithSystem(system),
		ai.WithMessages(msgs...),
		ai.WithTools(refs...),
		ai.WithReturnToolRequests(true),
	)
	if err != nil {
		return nil, fmt.Errorf("decision generation: %w", err)
	}

	dec := &Decision{Answer: resp.Text(), Message: resp.Message}
	for _, tr := range resp.ToolRequests() {
		dec.Requests = append(dec.Requests, ToolRequest{
			Name:  tr.Name,
			Ref:   tr.Ref,
			Input: toArgumentMap(tr.Input),
		})
	}
	return dec, nil
}

// Synthesize runs the final pass without tools.
func (c *GenkitClient) Synthesize(ctx context.Context, system string, msgs []*ai.Message) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithSystem(system),
		ai.WithMessages(msgs...),
	)
	if err != nil {
		return "", fmt.Errorf("synthesis generation: %w", err)
	}
	return resp.Text(), nil
}

// toArgumentMap normalizes a tool request input to the map form the
// registry expects. Providers deliver JSON objects, so the fallback
// round trip rarely runs.
func toArgumentMap(input any) map[string]any {
	if m, ok := input.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

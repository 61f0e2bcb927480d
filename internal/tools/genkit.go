package tools

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Define declares search_course_content to genkit with its typed
// schema. The model sees the schema; execution runs the same code path
// as Registry.Execute, so source tracking stays intact.
func (t *CourseSearch) Define(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, t.Name(), t.Description(),
		func(ctx *ai.ToolContext, in SearchInput) (string, error) {
			return t.run(ctx, in)
		})
}

// Define declares get_course_outline to genkit with its typed schema.
func (t *CourseOutline) Define(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, t.Name(), t.Description(),
		func(ctx *ai.ToolContext, in OutlineInput) (string, error) {
			return t.run(ctx, in)
		})
}

// Definer is implemented by tools that can declare a typed genkit
// schema for themselves.
type Definer interface {
	Define(g *genkit.Genkit) ai.Tool
}

// RegisterAll declares every registry tool that supports it to genkit
// and returns the refs to pass into generation calls.
func RegisterAll(g *genkit.Genkit, r *Registry) []ai.Tool {
	var refs []ai.Tool
	for _, name := range r.Names() {
		t, ok := r.Lookup(name)
		if !ok {
			continue
		}
		if d, ok := t.(Definer); ok {
			refs = append(refs, d.Define(g))
		}
	}
	return refs
}

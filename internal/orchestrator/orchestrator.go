// Package orchestrator drives the two-phase generation protocol: the
// model first decides whether to call a retrieval tool, the requested
// tool (if any) runs exactly once, and a final synthesis pass produces
// the answer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"

	"github.com/studyowl/studyowl/internal/tools"
)

// ErrGeneration tags failures of the model backend (timeouts, malformed
// responses, rate limits). They surface to the caller unretried; retry
// policy belongs to the transport layer.
var ErrGeneration = errors.New("generation failed")

// SystemPrompt frames the model's tool usage and answer style. Static
// on purpose: per-query context travels in the message list, not here.
const SystemPrompt = `You are an AI assistant specialized in course materials and educational content, with access to tools for searching course content and retrieving course outlines.

Tool usage:
- search_course_content: for questions about specific course content or detailed educational materials
- get_course_outline: for questions about course structure, lesson lists, or what topics a course covers
- At most one tool call per query
- Synthesize tool results into accurate, fact-based responses
- If a tool yields no results, state this clearly without offering alternatives

Response protocol:
- General knowledge questions: answer using existing knowledge without tools
- Course-specific questions: use the appropriate tool first, then answer
- No meta-commentary: provide direct answers only, without reasoning process or question-type explanations

All responses must be brief, concise and focused. Provide only the direct answer to what was asked.`

// ToolRequest is one structured tool invocation asked for by the model
// during the decision phase.
type ToolRequest struct {
	Name  string
	Ref   string
	Input map[string]any
}

// Decision is the outcome of the decision phase: either a direct
// answer (no requests) or one or more tool requests plus the model
// message that carried them.
type Decision struct {
	Answer   string
	Requests []ToolRequest
	Message  *ai.Message
}

// ModelClient is the orchestrator's view of the generation backend.
// Decide runs with tool schemas declared and tool requests returned
// rather than auto-executed; Synthesize runs without tools.
type ModelClient interface {
	Decide(ctx context.Context, system string, msgs []*ai.Message) (*Decision, error)
	Synthesize(ctx context.Context, system string, msgs []*ai.Message) (string, error)
}

// phase is the orchestrator's position in the per-query protocol.
type phase int

const (
	awaitingDecision phase = iota
	toolRequested
	toolExecuted
	awaitingSynthesis
	answered
	failed
)

func (p phase) String() string {
	switch p {
	case awaitingDecision:
		return "awaiting_decision"
	case toolRequested:
		return "tool_requested"
	case toolExecuted:
		return "tool_executed"
	case awaitingSynthesis:
		return "awaiting_synthesis"
	case answered:
		return "answered"
	case failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is one completed query: the final answer and the name of the
// tool that contributed to it, empty for direct answers.
type Result struct {
	Answer   string
	ToolUsed string
}

// Orchestrator runs the protocol against a ModelClient and a tool
// registry. Stateless between queries; safe for concurrent use.
type Orchestrator struct {
	client   ModelClient
	registry *tools.Registry
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(client ModelClient, registry *tools.Registry, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, registry: registry, logger: logger}
}

// Respond answers one query. history carries the session's previous
// exchanges as alternating user/model messages; the query is appended
// as the final user message. At most one tool round-trip happens, and
// only the first requested call is honoured.
func (o *Orchestrator) Respond(ctx context.Context, query string, history []*ai.Message) (Result, error) {
	msgs := make([]*ai.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(query)))

	st := awaitingDecision
	dec, err := o.client.Decide(ctx, SystemPrompt, msgs)
	if err != nil {
		o.fail(&st, "decision phase", err)
		return Result{}, fmt.Errorf("%w: decision phase: %v", ErrGeneration, err)
	}

	if len(dec.Requests) == 0 {
		st = answered
		o.logger.Debug("query answered directly", "state", st.String())
		return Result{Answer: dec.Answer}, nil
	}

	st = toolRequested
	req := dec.Requests[0]
	if extra := len(dec.Requests) - 1; extra > 0 {
		o.logger.Warn("ignoring extra tool requests", "honoured", req.Name, "ignored", extra)
	}

	output, err := o.registry.Execute(ctx, req.Name, req.Input)
	if err != nil {
		o.fail(&st, "tool execution", err)
		return Result{}, fmt.Errorf("executing tool %q: %w", req.Name, err)
	}
	st = toolExecuted

	synthMsgs := make([]*ai.Message, 0, len(msgs)+2)
	synthMsgs = append(synthMsgs, msgs...)
	synthMsgs = append(synthMsgs, dec.Message)
	synthMsgs = append(synthMsgs, ai.NewMessage(ai.RoleTool, nil,
		ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: output,
		})))

	st = awaitingSynthesis
	answer, err := o.client.Synthesize(ctx, SystemPrompt, synthMsgs)
	if err != nil {
		o.fail(&st, "synthesis phase", err)
		return Result{}, fmt.Errorf("%w: synthesis phase: %v", ErrGeneration, err)
	}

	st = answered
	o.logger.Debug("query answered with retrieval", "tool", req.Name, "state", st.String())
	return Result{Answer: answer, ToolUsed: req.Name}, nil
}

func (o *Orchestrator) fail(st *phase, stage string, err error) {
	*st = failed
	o.logger.Error("orchestration failed", "stage", stage, "error", err)
}

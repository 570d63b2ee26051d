// Package agent runs one role-bound conversation loop against an LLM
// provider, dispatching tool calls through the capability and permission
// gates.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/emperor-ai/emperor/pkg/core"
	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/llm"
	"github.com/emperor-ai/emperor/pkg/memory"
	"github.com/emperor-ai/emperor/pkg/resilience"
	"github.com/emperor-ai/emperor/pkg/roles"
	"github.com/emperor-ai/emperor/pkg/telemetry"
	"github.com/emperor-ai/emperor/pkg/tools"
)

const defaultMaxTurns = 10

// Agent is one role-bound conversational agent.
type Agent struct {
	role       roles.Role
	provider   llm.Provider
	dispatcher *tools.Dispatcher
	registry   *tools.Registry

	model       string
	temperature float64
	maxTurns    int
	callTimeout time.Duration

	sessions memory.SessionStore
	retry    resilience.RetryConfig
	breaker  *resilience.Breaker
	events   core.EventEmitter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an Agent.
type Option func(*Agent)

// WithModel sets the model name sent to the provider.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithMaxTurns overrides the role's turn budget.
func WithMaxTurns(n int) Option {
	return func(a *Agent) { a.maxTurns = n }
}

// WithCallTimeout bounds each provider call. Zero means no limit beyond
// the request context.
func WithCallTimeout(d time.Duration) Option {
	return func(a *Agent) { a.callTimeout = d }
}

// WithSessions enables persistent conversation history.
func WithSessions(store memory.SessionStore) Option {
	return func(a *Agent) { a.sessions = store }
}

// WithRetry sets the retry policy around provider calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(a *Agent) { a.retry = cfg }
}

// WithBreaker guards provider calls with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(a *Agent) { a.breaker = b }
}

// WithEvents attaches a semantic event emitter.
func WithEvents(emitter core.EventEmitter) Option {
	return func(a *Agent) {
		if emitter != nil {
			a.events = emitter
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an agent for the given role.
func New(role roles.Role, provider llm.Provider, dispatcher *tools.Dispatcher, registry *tools.Registry, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, errors.New(errors.CodeInvalidInput, "agent requires an llm provider", nil)
	}
	if dispatcher == nil || registry == nil {
		return nil, errors.New(errors.CodeInvalidInput, "agent requires a tool dispatcher and registry", nil)
	}

	a := &Agent{
		role:       role,
		provider:   provider,
		dispatcher: dispatcher,
		registry:   registry,
		maxTurns:   role.MaxTurns,
		retry:      resilience.DefaultRetryConfig(),
		events:     core.NoopEventEmitter{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("emperor/agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxTurns <= 0 {
		a.maxTurns = defaultMaxTurns
	}
	return a, nil
}

// Role returns the agent's role name.
func (a *Agent) Role() string {
	return a.role.Name
}

// Result is the outcome of one agent run.
type Result struct {
	Output    string
	Turns     int
	ToolCalls int
	Usage     llm.Usage
}

// Run executes one conversation turn for the user input and returns the
// final text answer. Tool calls run inline until the model answers in
// text or the turn budget is exhausted.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	res, err := a.RunDetailed(ctx, "", input)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// RunDetailed is Run with session support and run statistics. An empty
// sessionID runs stateless.
func (a *Agent) RunDetailed(ctx context.Context, sessionID, input string) (*Result, error) {
	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := a.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(telemetry.RoleAttrs(a.role.Name, a.model)...))
	defer span.End()

	messages, err := a.buildMessages(ctx, sessionID, input)
	if err != nil {
		return nil, err
	}

	a.events.Emit(ctx, core.NewEvent(core.EventAgentRunStarted, a.role.Name, runID,
		map[string]any{"input_chars": len(input)}))

	defs := a.registry.Definitions(a.role.Capabilities)

	result := &Result{}
	for turn := 0; turn < a.maxTurns; turn++ {
		span.SetAttributes(attribute.Int(telemetry.AttrAgentTurn, turn))

		resp, err := a.chat(ctx, llm.ChatRequest{
			Model:       a.model,
			Messages:    messages,
			Tools:       defs,
			Temperature: a.temperature,
		})
		if err != nil {
			a.events.Emit(ctx, core.NewEvent(core.EventAgentError, a.role.Name, runID,
				map[string]any{"error": err.Error()}))
			span.SetStatus(codes.Error, err.Error())
			return nil, errors.New(errors.CodeLLMError, "provider call failed", err).WithRecoverable(true)
		}
		result.Turns++
		result.Usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			result.Output = resp.Content
			a.persistTurn(ctx, sessionID, input, resp.Content)
			a.events.Emit(ctx, core.NewEvent(core.EventAgentRunCompleted, a.role.Name, runID,
				map[string]any{"turns": result.Turns, "tool_calls": result.ToolCalls}))
			return result, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result.ToolCalls++
			messages = append(messages, a.runToolCall(ctx, runID, call))
		}
	}

	err = errors.New(errors.CodeInternal,
		fmt.Sprintf("agent %q exceeded %d turns without a final answer", a.role.Name, a.maxTurns), nil)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// runToolCall dispatches one tool call and converts the outcome into a
// tool message. Gate denials and tool failures are reported back to the
// model rather than aborting the run; the model can adjust course.
func (a *Agent) runToolCall(ctx context.Context, runID string, call llm.ToolCall) llm.Message {
	name := call.Function.Name
	a.events.Emit(ctx, core.NewEvent(core.EventAgentToolCall, a.role.Name, runID,
		map[string]any{"tool": name}))

	input := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
			return llm.ToolResultMessage(call.ID,
				fmt.Sprintf("error: invalid arguments for %s: %v", name, err))
		}
	}

	output, err := a.dispatcher.Dispatch(ctx, a.role, name, input)
	if err != nil {
		if errors.IsCode(err, errors.CodePermissionDenied) {
			a.events.Emit(ctx, core.NewEvent(core.EventAgentToolDenied, a.role.Name, runID,
				map[string]any{"tool": name}))
		}
		return llm.ToolResultMessage(call.ID, "error: "+err.Error())
	}
	return llm.ToolResultMessage(call.ID, output)
}

// chat calls the provider under the breaker, retry policy, and per-call
// timeout.
func (a *Agent) chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var resp *llm.ChatResponse
	call := func() error {
		return resilience.WithTimeout(ctx, a.callTimeout, func(ctx context.Context) error {
			r, err := a.provider.Chat(ctx, req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
	}

	err := a.retry.Do(ctx, func() error {
		if a.breaker != nil {
			return a.breaker.Call(call)
		}
		return call()
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// buildMessages assembles system prompt, session history, and the new
// user input.
func (a *Agent) buildMessages(ctx context.Context, sessionID, input string) ([]llm.Message, error) {
	messages := []llm.Message{llm.SystemMessage(a.role.SystemPrompt())}

	if a.sessions != nil && sessionID != "" {
		history, err := a.sessions.History(ctx, sessionID, 0)
		if err != nil {
			return nil, errors.New(errors.CodeMemoryError, "loading session history", err)
		}
		for _, msg := range history {
			if msg.Role == string(llm.RoleSystem) {
				continue // the live system prompt wins
			}
			messages = append(messages, llm.Message{Role: llm.Role(msg.Role), Content: msg.Content})
		}
	}
	return append(messages, llm.UserMessage(input)), nil
}

func (a *Agent) persistTurn(ctx context.Context, sessionID, input, output string) {
	if a.sessions == nil || sessionID == "" {
		return
	}
	now := time.Now().UTC()
	for _, msg := range []memory.SessionMessage{
		{Role: string(llm.RoleUser), Content: input, CreatedAt: now},
		{Role: string(llm.RoleAssistant), Content: output, CreatedAt: now},
	} {
		if err := a.sessions.Append(ctx, sessionID, msg); err != nil {
			a.logger.Warn("session append failed",
				slog.String("session", sessionID), slog.Any("error", err))
		}
	}
}

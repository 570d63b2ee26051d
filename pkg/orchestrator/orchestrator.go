package orchestrator

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/emperor-ai/emperor/pkg/agent"
	"github.com/emperor-ai/emperor/pkg/core"
	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/guardrails"
	"github.com/emperor-ai/emperor/pkg/llm"
	"github.com/emperor-ai/emperor/pkg/roles"
	"github.com/emperor-ai/emperor/pkg/telemetry"
)

// DefaultRole answers messages that no lead role claims.
const DefaultRole = "emperor"

// AgentFactory builds an agent for a role. The orchestrator calls it
// once per handled message, so factories can attach per-run options.
type AgentFactory func(role roles.Role) (*agent.Agent, error)

// Result is the outcome of handling one message.
type Result struct {
	Output         string
	Role           string
	Delegated      bool
	Classification Classification
	Turns          int
	ToolCalls      int
	Usage          llm.Usage
}

// Orchestrator classifies incoming messages and runs them through the
// right role-bound agent.
type Orchestrator struct {
	registry   *roles.Registry
	factory    AgentFactory
	classifier *Classifier

	defaultRole string
	threshold   float64
	guards      *guardrails.Pipeline
	events      core.EventEmitter
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDefaultRole overrides the role used for direct handling.
func WithDefaultRole(name string) Option {
	return func(o *Orchestrator) { o.defaultRole = name }
}

// WithThreshold overrides the delegation confidence threshold.
func WithThreshold(t float64) Option {
	return func(o *Orchestrator) { o.threshold = t }
}

// WithGuardrails screens input before classification and filters the
// final output.
func WithGuardrails(pipeline *guardrails.Pipeline) Option {
	return func(o *Orchestrator) {
		if pipeline != nil && !pipeline.Empty() {
			o.guards = pipeline
		}
	}
}

// WithEvents attaches a semantic event emitter.
func WithEvents(emitter core.EventEmitter) Option {
	return func(o *Orchestrator) {
		if emitter != nil {
			o.events = emitter
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator over a role registry and agent factory.
func New(registry *roles.Registry, factory AgentFactory, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New(errors.CodeInvalidInput, "orchestrator requires a role registry", nil)
	}
	if factory == nil {
		return nil, errors.New(errors.CodeInvalidInput, "orchestrator requires an agent factory", nil)
	}

	o := &Orchestrator{
		registry:    registry,
		factory:     factory,
		classifier:  NewClassifier(),
		defaultRole: DefaultRole,
		threshold:   ConfidenceThreshold,
		events:      core.NoopEventEmitter{},
		logger:      slog.Default(),
		tracer:      otel.Tracer("emperor/orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, err := registry.Lookup(o.defaultRole); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "default role not registered", err).
			WithContext("role", o.defaultRole)
	}
	return o, nil
}

// Classify exposes the classifier for callers that only want routing
// info, such as the CLI's dry-run mode.
func (o *Orchestrator) Classify(message string) Classification {
	return o.classifier.Classify(message)
}

// Handle classifies a message, routes it to the right role, and runs
// the agent. A failed delegation falls back to the default role rather
// than surfacing the lead's failure to the user.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.handle")
	defer span.End()

	if o.guards != nil {
		if check := o.guards.CheckInput(ctx, message); check.Blocked {
			return nil, errors.New(errors.CodeInvalidInput, "message rejected by guardrails", nil).
				WithContext("guardrail", check.Source).
				WithContext("reason", check.Reason)
		}
	}

	cls := o.classifier.Classify(message)
	span.SetAttributes(
		attribute.String(telemetry.AttrIntentType, string(cls.Intent)),
		attribute.Float64(telemetry.AttrIntentConfidence, cls.Confidence),
		attribute.String(telemetry.AttrIntentDelegation, cls.TargetRole),
	)
	o.logger.Info("intent classified",
		slog.String("intent", string(cls.Intent)),
		slog.Float64("confidence", cls.Confidence),
		slog.String("target", cls.TargetRole))

	if cls.ShouldDelegate() && cls.Confidence >= o.threshold {
		result, err := o.runRole(ctx, cls.TargetRole, sessionID, message, cls, true)
		if err == nil {
			return o.filterOutput(ctx, result), nil
		}
		o.logger.Warn("delegation failed, handling directly",
			slog.String("role", cls.TargetRole), slog.Any("error", err))
	}
	result, err := o.runRole(ctx, o.defaultRole, sessionID, message, cls, false)
	if err != nil {
		return nil, err
	}
	return o.filterOutput(ctx, result), nil
}

func (o *Orchestrator) filterOutput(ctx context.Context, result *Result) *Result {
	if o.guards == nil {
		return result
	}
	filtered := o.guards.FilterOutput(ctx, result.Output)
	if filtered.Modified {
		result.Output = filtered.Content
	}
	return result
}

func (o *Orchestrator) runRole(ctx context.Context, roleName, sessionID, message string, cls Classification, delegated bool) (*Result, error) {
	role, err := o.registry.Lookup(roleName)
	if err != nil {
		return nil, err
	}

	if delegated {
		var runID string
		ctx, runID = core.EnsureRunID(ctx)
		o.events.Emit(ctx, core.NewEvent(core.EventAgentDelegation, o.defaultRole, runID,
			map[string]any{
				"target":     roleName,
				"intent":     string(cls.Intent),
				"confidence": cls.Confidence,
			}))
	}

	a, err := o.factory(role)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "building agent", err).
			WithContext("role", roleName)
	}
	run, err := a.RunDetailed(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}
	return &Result{
		Output:         run.Output,
		Role:           roleName,
		Delegated:      delegated,
		Classification: cls,
		Turns:          run.Turns,
		ToolCalls:      run.ToolCalls,
		Usage:          run.Usage,
	}, nil
}

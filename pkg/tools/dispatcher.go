// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/permissions"
	"github.com/emperor-ai/emperor/pkg/roles"
	"github.com/emperor-ai/emperor/pkg/telemetry"
)

// Dispatcher routes tool calls through two gates before execution: the
// role's capability set and the permission policy. Every decision is
// measured and logged.
type Dispatcher struct {
	registry *Registry
	perms    *permissions.Manager
	metrics  *telemetry.DispatchMetrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPermissions attaches a permission manager. Without one, only the
// capability gate applies.
func WithPermissions(perms *permissions.Manager) DispatcherOption {
	return func(d *Dispatcher) { d.perms = perms }
}

// WithMetrics attaches dispatch metrics.
func WithMetrics(metrics *telemetry.DispatchMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = metrics }
}

// WithDispatchLogger sets the structured logger.
func WithDispatchLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   slog.Default(),
		tracer:   otel.Tracer("emperor/tools"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes a tool call on behalf of a role.
//
// Gate order: capability first, then permission policy. A role without
// the capability is denied before any risk classification or approval
// workflow runs.
func (d *Dispatcher) Dispatch(ctx context.Context, role roles.Role, toolName string, input map[string]any) (string, error) {
	ctx, span := d.tracer.Start(ctx, "tools.dispatch",
		trace.WithAttributes(
			attribute.String(telemetry.AttrAgentRole, role.Name),
			attribute.String(telemetry.AttrToolName, toolName),
		))
	defer span.End()

	tool, ok := d.registry.Get(toolName)
	if !ok {
		err := errors.New(errors.CodeNotFound, fmt.Sprintf("tool %q is not registered", toolName), nil)
		d.deny(ctx, span, role.Name, toolName, "unregistered", err)
		return "", err
	}

	if !role.Can(toolName) {
		err := errors.New(errors.CodePermissionDenied,
			fmt.Sprintf("role %q has no capability %q", role.Name, toolName), nil).
			WithAttribute(telemetry.AttrAgentRole, role.Name).
			WithAttribute(telemetry.AttrToolName, toolName)
		d.deny(ctx, span, role.Name, toolName, "capability", err)
		return "", err
	}

	if d.perms != nil {
		result, err := d.perms.Check(ctx, role.Name, toolName, input)
		if err != nil {
			d.metrics.RecordError(ctx, err, "permissions")
			span.SetStatus(codes.Error, err.Error())
			return "", errors.New(errors.CodeInternal, "permission check failed", err)
		}
		span.SetAttributes(attribute.String(telemetry.AttrPermissionRisk, string(result.RiskLevel)))
		if !result.Allowed {
			err := errors.New(errors.CodePermissionDenied, result.Reason, nil).
				WithAttribute(telemetry.AttrPermissionRisk, string(result.RiskLevel))
			d.deny(ctx, span, role.Name, toolName, "policy", err)
			return "", err
		}
	}

	d.metrics.RecordToolCall(ctx, role.Name, toolName, true)
	start := time.Now()
	output, err := tool.Call(ctx, input)
	d.metrics.RecordToolDuration(ctx, role.Name, toolName, float64(time.Since(start).Milliseconds()))

	if err != nil {
		wrapped, ok := err.(*errors.EmperorError)
		if !ok {
			wrapped = errors.New(errors.CodeToolFailure,
				fmt.Sprintf("tool %q failed", toolName), err).WithRecoverable(true)
		}
		d.metrics.RecordError(ctx, wrapped, "tools")
		span.SetStatus(codes.Error, wrapped.Error())
		d.logger.Error("tool call failed",
			slog.String("role", role.Name),
			slog.String("tool", toolName),
			slog.Any("error", err))
		return "", wrapped
	}

	d.logger.Debug("tool call completed",
		slog.String("role", role.Name),
		slog.String("tool", toolName),
		slog.Int("output_bytes", len(output)))
	return output, nil
}

func (d *Dispatcher) deny(ctx context.Context, span trace.Span, role, tool, reason string, err error) {
	d.metrics.RecordToolCall(ctx, role, tool, false)
	d.metrics.RecordDenied(ctx, role, tool, reason)
	span.SetStatus(codes.Error, err.Error())
	d.logger.Warn("tool call denied",
		slog.String("role", role),
		slog.String("tool", tool),
		slog.String("gate", reason))
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/emperor-ai/emperor/pkg/errors"
)

// DispatchMetrics tracks tool dispatch outcomes for production monitoring.
type DispatchMetrics struct {
	// toolCounter tracks tool calls by role, tool, and decision
	toolCounter metric.Int64Counter

	// deniedCounter tracks gated tool calls by role and reason
	deniedCounter metric.Int64Counter

	// errorCounter tracks errors by code and component
	errorCounter metric.Int64Counter

	// toolDuration tracks tool execution time in milliseconds
	toolDuration metric.Float64Histogram

	mu sync.RWMutex
}

// NewDispatchMetrics creates a dispatch metrics tracker with OTEL meters.
func NewDispatchMetrics(ctx context.Context) (*DispatchMetrics, error) {
	meter := otel.Meter("emperor/dispatch")

	toolCounter, err := meter.Int64Counter(
		"emperor.tools.calls",
		metric.WithDescription("Tool calls by role, tool, and decision"),
	)
	if err != nil {
		return nil, err
	}

	deniedCounter, err := meter.Int64Counter(
		"emperor.tools.denied",
		metric.WithDescription("Tool calls blocked by capability or permission gates"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"emperor.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	toolDuration, err := meter.Float64Histogram(
		"emperor.tools.duration_ms",
		metric.WithDescription("Tool execution duration in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		toolCounter:   toolCounter,
		deniedCounter: deniedCounter,
		errorCounter:  errorCounter,
		toolDuration:  toolDuration,
	}, nil
}

// RecordToolCall increments the tool call counter for the given outcome.
func (dm *DispatchMetrics) RecordToolCall(ctx context.Context, role, tool string, allowed bool) {
	if dm == nil {
		return
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	dm.toolCounter.Add(ctx, 1, metric.WithAttributes(ToolAttrs(role, tool, allowed)...))
}

// RecordDenied increments the denied counter with the gate reason.
func (dm *DispatchMetrics) RecordDenied(ctx context.Context, role, tool, reason string) {
	if dm == nil {
		return
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	dm.deniedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrAgentRole, role),
			attribute.String(AttrToolName, tool),
			attribute.String(AttrPermissionReason, reason),
		),
	)
}

// RecordToolDuration records a tool execution duration in milliseconds.
func (dm *DispatchMetrics) RecordToolDuration(ctx context.Context, role, tool string, ms float64) {
	if dm == nil {
		return
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	dm.toolDuration.Record(ctx, ms,
		metric.WithAttributes(
			attribute.String(AttrAgentRole, role),
			attribute.String(AttrToolName, tool),
		),
	)
}

// RecordError increments the error counter for the given error and component.
func (dm *DispatchMetrics) RecordError(ctx context.Context, err error, component string) {
	if dm == nil || err == nil {
		return
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if ee, ok := err.(*errors.EmperorError); ok {
		dm.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", string(ee.Code)),
				attribute.String("component", component),
				attribute.String("recoverable", ee.RecoverableString()),
			),
		)
	} else {
		dm.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", "UNKNOWN"),
				attribute.String("component", component),
				attribute.String("recoverable", "unknown"),
			),
		)
	}
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

// Package guardrails screens message content on the way in and out of
// the assistant. Input checkers run before a message reaches the
// classifier or an LLM, output filters run on the final response.
//
// Guardrails complement the permission layer: permissions gate tool
// actions, guardrails inspect the text itself.
package guardrails

import (
	"context"
	"log/slog"
)

// CheckResult is the outcome of one input check.
type CheckResult struct {
	Blocked    bool
	Reason     string
	Source     string
	Confidence float64
}

// Redaction records one substitution made by an output filter.
type Redaction struct {
	Kind        string
	Replacement string
	Position    int
}

// FilterResult is the outcome of output filtering.
type FilterResult struct {
	Content    string
	Modified   bool
	Redactions []Redaction
}

// InputChecker validates content before the assistant processes it.
type InputChecker interface {
	ID() string
	CheckInput(ctx context.Context, input string) CheckResult
}

// OutputFilter rewrites assistant output before it reaches the caller.
type OutputFilter interface {
	ID() string
	FilterOutput(ctx context.Context, output string) FilterResult
}

// Pipeline runs a fixed sequence of input checkers and output filters.
type Pipeline struct {
	checkers []InputChecker
	filters  []OutputFilter
	failOpen bool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChecker appends an input checker.
func WithChecker(c InputChecker) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.checkers = append(p.checkers, c)
		}
	}
}

// WithFilter appends an output filter.
func WithFilter(f OutputFilter) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.filters = append(p.filters, f)
		}
	}
}

// WithFailOpen lets content through when a check cannot finish, for
// example on context cancellation. The default is fail closed.
func WithFailOpen(open bool) Option {
	return func(p *Pipeline) { p.failOpen = open }
}

// WithPipelineLogger sets the structured logger.
func WithPipelineLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds a pipeline from the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckInput runs the checkers in order and returns the first blocking
// result. An unfinished check blocks unless the pipeline is fail-open.
func (p *Pipeline) CheckInput(ctx context.Context, input string) CheckResult {
	for _, checker := range p.checkers {
		select {
		case <-ctx.Done():
			if p.failOpen {
				return CheckResult{}
			}
			return CheckResult{Blocked: true, Reason: "guardrail check interrupted", Source: "pipeline"}
		default:
		}

		result := checker.CheckInput(ctx, input)
		if result.Blocked {
			result.Source = checker.ID()
			p.logger.Warn("input blocked",
				slog.String("guardrail", result.Source),
				slog.String("reason", result.Reason))
			return result
		}
	}
	return CheckResult{}
}

// FilterOutput chains the filters, feeding each one the previous
// filter's content.
func (p *Pipeline) FilterOutput(ctx context.Context, output string) FilterResult {
	result := FilterResult{Content: output}
	for _, filter := range p.filters {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		next := filter.FilterOutput(ctx, result.Content)
		if next.Modified {
			result.Content = next.Content
			result.Modified = true
			result.Redactions = append(result.Redactions, next.Redactions...)
		}
	}
	if result.Modified {
		p.logger.Info("output filtered", slog.Int("redactions", len(result.Redactions)))
	}
	return result
}

// Empty reports whether the pipeline has no checkers or filters.
func (p *Pipeline) Empty() bool {
	return len(p.checkers) == 0 && len(p.filters) == 0
}

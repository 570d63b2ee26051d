// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"regexp"
)

// injectionPatterns covers the common instruction-override, persona
// swap, prompt extraction, and delimiter smuggling attempts. Matching
// is heuristic; a miss here is not a safety guarantee.
var injectionPatterns = compilePatterns(
	`(?i)(ignore|disregard|forget|override)\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
	`(?i)you\s+are\s+now\s+(a|an)\s+`,
	`(?i)pretend\s+(you\s+are|to\s+be)\s+`,
	`(?i)roleplay\s+as\s+`,
	`(?i)(what\s+(is|are)|show\s+me|reveal|print|display)\s+your\s+(system\s+)?(prompt|instructions?)`,
	`(?i)do\s+anything\s+now`,
	`(?i)jailbreak`,
	`(?i)bypass\s+(safety|content|filter)`,
	`(?i)(developer|debug|sudo|admin|maintenance)\s+mode`,
	`(?i)\]\]\s*system\s*:`,
	`(?i)<\|.*\|>`,
	`(?i)\[\/?INST\]`,
	`(?i)<<\/?SYS>>`,
)

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

// InjectionDetector flags likely prompt injection attempts in input.
type InjectionDetector struct {
	patterns  []*regexp.Regexp
	threshold float64
}

// InjectionOption configures an InjectionDetector.
type InjectionOption func(*InjectionDetector)

// WithInjectionPatterns adds extra patterns to the default set.
func WithInjectionPatterns(exprs ...string) InjectionOption {
	return func(d *InjectionDetector) {
		for _, expr := range exprs {
			if re, err := regexp.Compile(expr); err == nil {
				d.patterns = append(d.patterns, re)
			}
		}
	}
}

// WithInjectionThreshold sets the confidence below which matches are
// allowed through. Zero blocks on any match.
func WithInjectionThreshold(t float64) InjectionOption {
	return func(d *InjectionDetector) {
		if t >= 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// NewInjectionDetector builds a detector over the default patterns.
func NewInjectionDetector(opts ...InjectionOption) *InjectionDetector {
	d := &InjectionDetector{patterns: injectionPatterns}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *InjectionDetector) ID() string { return "prompt_injection" }

// CheckInput blocks when enough patterns match. Confidence starts at
// 0.7 for a single match and grows 0.1 per extra match.
func (d *InjectionDetector) CheckInput(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}

	matches := 0
	for _, pattern := range d.patterns {
		select {
		case <-ctx.Done():
			return CheckResult{}
		default:
		}
		if pattern.MatchString(input) {
			matches++
		}
	}
	if matches == 0 {
		return CheckResult{}
	}

	confidence := 0.7 + float64(matches-1)*0.1
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < d.threshold {
		return CheckResult{Confidence: confidence}
	}
	return CheckResult{
		Blocked:    true,
		Reason:     "possible prompt injection",
		Confidence: confidence,
	}
}

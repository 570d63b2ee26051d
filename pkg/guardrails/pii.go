// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
)

// PIIMode determines what replaces detected PII.
type PIIMode int

const (
	// PIIMask substitutes a typed placeholder such as "[EMAIL]".
	PIIMask PIIMode = iota
	// PIIRedact removes the match entirely.
	PIIRedact
	// PIIHash substitutes a stable short hash so records stay
	// correlatable without exposing the value.
	PIIHash
)

type piiPattern struct {
	kind    string
	pattern *regexp.Regexp
	mask    string
}

// Ordered most-specific first: card and SSN shapes overlap the phone
// pattern and must win.
var piiPatterns = []piiPattern{
	{"credit_card", regexp.MustCompile(`\b[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}\b`), "[CREDIT_CARD]"},
	{"ssn", regexp.MustCompile(`\b[0-9]{3}[-\s]?[0-9]{2}[-\s]?[0-9]{4}\b`), "[SSN]"},
	{"email", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "[EMAIL]"},
	{"phone", regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`), "[PHONE]"},
	{"ip_address", regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`), "[IP_ADDRESS]"},
}

// PIIFilter masks, removes, or hashes personal data in output. It also
// works as an input checker for flows that must reject PII outright.
type PIIFilter struct {
	mode     PIIMode
	patterns []piiPattern
}

// NewPIIFilter builds a filter over the default pattern set.
func NewPIIFilter(mode PIIMode) *PIIFilter {
	return &PIIFilter{mode: mode, patterns: piiPatterns}
}

func (f *PIIFilter) ID() string { return "pii" }

// FilterOutput rewrites every PII match according to the filter mode.
func (f *PIIFilter) FilterOutput(ctx context.Context, output string) FilterResult {
	result := FilterResult{Content: output}
	if output == "" {
		return result
	}

	for _, p := range f.patterns {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		matches := p.pattern.FindAllStringIndex(result.Content, -1)
		// Rewrite back to front so earlier offsets stay valid.
		for i := len(matches) - 1; i >= 0; i-- {
			start, end := matches[i][0], matches[i][1]
			replacement := f.replacement(p, result.Content[start:end])
			result.Redactions = append(result.Redactions, Redaction{
				Kind:        p.kind,
				Replacement: replacement,
				Position:    start,
			})
			result.Content = result.Content[:start] + replacement + result.Content[end:]
			result.Modified = true
		}
	}
	return result
}

// CheckInput blocks input that contains any PII match.
func (f *PIIFilter) CheckInput(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}
	for _, p := range f.patterns {
		select {
		case <-ctx.Done():
			return CheckResult{}
		default:
		}
		if p.pattern.MatchString(input) {
			return CheckResult{
				Blocked:    true,
				Reason:     "personal data in input: " + p.kind,
				Confidence: 1.0,
			}
		}
	}
	return CheckResult{}
}

func (f *PIIFilter) replacement(p piiPattern, original string) string {
	switch f.mode {
	case PIIRedact:
		return ""
	case PIIHash:
		h := fnv.New32a()
		h.Write([]byte(original))
		return fmt.Sprintf("%s:%08x]", p.mask[:len(p.mask)-1], h.Sum32())
	default:
		return p.mask
	}
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

// Package permissions centralizes tool access control: risk classification,
// permission presets, approval workflows, and audit logging.
package permissions

import (
	"regexp"
	"strings"
)

// RiskLevel classifies the potential impact of a tool invocation.
type RiskLevel string

const (
	// RiskLow covers read-only operations with no system impact.
	RiskLow RiskLevel = "low"

	// RiskMedium covers write operations within project scope.
	RiskMedium RiskLevel = "medium"

	// RiskHigh covers system-affecting operations.
	RiskHigh RiskLevel = "high"

	// RiskCritical covers potentially destructive operations.
	RiskCritical RiskLevel = "critical"
)

// rank orders risk levels for comparisons.
func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 3
	}
}

// AtLeast reports whether r is at or above the given level.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

// defaultToolRisk holds the baseline risk for each known tool.
var defaultToolRisk = map[string]RiskLevel{
	"read_file":          RiskLow,
	"list_directory":     RiskLow,
	"write_file":         RiskMedium,
	"grep":               RiskLow,
	"glob":               RiskLow,
	"web_search":         RiskLow,
	"remember":           RiskLow,
	"recall":             RiskLow,
	"forget":             RiskMedium,
	"list_memories":      RiskLow,
	"execute_command":    RiskHigh,
	"background_command": RiskHigh,
}

type escalation struct {
	pattern *regexp.Regexp
	level   RiskLevel
}

// escalations raise the baseline risk when the tool input matches a pattern.
// write_file patterns match the target path; command patterns match the
// command line.
var escalations = map[string][]escalation{
	"write_file": {
		{regexp.MustCompile(`^/etc/`), RiskCritical},
		{regexp.MustCompile(`^/usr/`), RiskCritical},
		{regexp.MustCompile(`^/bin/`), RiskCritical},
		{regexp.MustCompile(`^/sbin/`), RiskCritical},
		{regexp.MustCompile(`^/var/`), RiskHigh},
		{regexp.MustCompile(`\.(sh|bash|zsh|py|rb|pl)$`), RiskHigh},
		{regexp.MustCompile(`\.(env|config|conf|ini)$`), RiskHigh},
	},
	"execute_command": {
		{regexp.MustCompile(`\bsudo\b`), RiskCritical},
		{regexp.MustCompile(`\bsu\b`), RiskCritical},
		{regexp.MustCompile(`\brm\s+-[rfR]`), RiskCritical},
		{regexp.MustCompile(`\brmdir\b`), RiskHigh},
		{regexp.MustCompile(`\bmkfs\b`), RiskCritical},
		{regexp.MustCompile(`\bdd\b`), RiskCritical},
		{regexp.MustCompile(`\bsystemctl\b`), RiskCritical},
		{regexp.MustCompile(`\bservice\b`), RiskCritical},
		{regexp.MustCompile(`\bchmod\s+777\b`), RiskHigh},
		{regexp.MustCompile(`\bkill(all)?\b`), RiskHigh},
		{regexp.MustCompile(`>\s*/(etc|dev|sys|proc)/`), RiskCritical},
		{regexp.MustCompile(`\bgit\s+push\s+.*--force\b`), RiskHigh},
		{regexp.MustCompile(`\bgit\s+reset\s+--hard\b`), RiskHigh},
	},
}

// Classifier resolves the risk level of a tool invocation from the tool
// name plus its input. Unknown tools classify as critical so a
// misconfigured registry fails safe.
type Classifier struct {
	overrides map[string]RiskLevel
}

// NewClassifier creates a classifier with no overrides.
func NewClassifier() *Classifier {
	return &Classifier{overrides: make(map[string]RiskLevel)}
}

// RegisterToolRisk sets or overrides the baseline risk for a tool.
func (c *Classifier) RegisterToolRisk(tool string, level RiskLevel) {
	c.overrides[tool] = level
}

// Classify returns the risk level for a tool call with the given input.
func (c *Classifier) Classify(tool string, input map[string]any) RiskLevel {
	base, ok := c.overrides[tool]
	if !ok {
		base, ok = defaultToolRisk[tool]
	}
	if !ok {
		return RiskCritical
	}

	subject := escalationSubject(tool, input)
	if subject == "" {
		return base
	}
	level := base
	for _, esc := range escalations[normalizeEscalationTool(tool)] {
		if esc.pattern.MatchString(subject) && esc.level.AtLeast(level) {
			level = esc.level
		}
	}
	return level
}

// background_command shares the execute_command escalation patterns.
func normalizeEscalationTool(tool string) string {
	if tool == "background_command" {
		return "execute_command"
	}
	return tool
}

func escalationSubject(tool string, input map[string]any) string {
	if input == nil {
		return ""
	}
	key := ""
	switch tool {
	case "write_file":
		key = "path"
	case "execute_command", "background_command":
		key = "command"
	default:
		return ""
	}
	if v, ok := input[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Emperor agent telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Agent attributes
	AttrAgentRole     = "emperor.agent.role"
	AttrAgentModel    = "emperor.agent.model"
	AttrAgentTurn     = "emperor.agent.turn"
	AttrAgentMaxTurns = "emperor.agent.max_turns"

	// Tool attributes
	AttrToolName       = "emperor.tool.name"
	AttrToolCallID     = "emperor.tool.call_id"
	AttrToolDurationMs = "emperor.tool.duration_ms"
	AttrToolSuccess    = "emperor.tool.success"

	// Permission attributes
	AttrPermissionRisk     = "emperor.permission.risk"
	AttrPermissionDecision = "emperor.permission.decision"
	AttrPermissionReason   = "emperor.permission.reason"

	// Memory attributes
	AttrMemoryCategory = "emperor.memory.category"
	AttrMemoryAgent    = "emperor.memory.agent"

	// Intent attributes
	AttrIntentType       = "emperor.intent.type"
	AttrIntentConfidence = "emperor.intent.confidence"
	AttrIntentDelegation = "emperor.intent.delegation"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMTokensTotal  = "gen_ai.usage.total_tokens"
)

// RoleAttrs returns the standard attribute set for an agent role span.
func RoleAttrs(role, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAgentRole, role),
		attribute.String(AttrAgentModel, model),
	}
}

// ToolAttrs returns the standard attribute set for a tool dispatch span.
func ToolAttrs(role, tool string, allowed bool) []attribute.KeyValue {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	return []attribute.KeyValue{
		attribute.String(AttrAgentRole, role),
		attribute.String(AttrToolName, tool),
		attribute.String(AttrPermissionDecision, decision),
	}
}

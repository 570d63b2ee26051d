// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools implements the built-in tool set and the dispatcher that
// gates tool calls by role capability and permission policy.
package tools

import (
	"context"

	"github.com/emperor-ai/emperor/pkg/llm"
)

// Parameter describes one tool input field.
type Parameter struct {
	Name        string
	Type        string // string, integer, boolean
	Description string
	Required    bool
	Enum        []string
}

// Definition is the model-facing description of a tool.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Tool is an executable capability. Input arrives as decoded JSON
// arguments; output is text handed back to the model.
type Tool interface {
	Definition() Definition
	Call(ctx context.Context, input map[string]any) (string, error)
}

// LLMTool converts the definition into the provider tool format.
func (d Definition) LLMTool() llm.Tool {
	properties := make(map[string]any, len(d.Parameters))
	var required []string
	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// stringArg extracts a required string argument.
func stringArg(input map[string]any, key string) (string, bool) {
	v, ok := input[key].(string)
	return v, ok && v != ""
}

// intArg extracts an integer argument, tolerating JSON float decoding.
func intArg(input map[string]any, key string) (int, bool) {
	switch v := input[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

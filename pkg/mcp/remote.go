// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/tools"
)

// RemoteTool adapts a tool on an external MCP server to the local tool
// interface. Registered remote tools pass through the same dispatch
// gates as built-ins.
type RemoteTool struct {
	def    tools.Definition
	client *Client
}

// Definition implements tools.Tool.
func (r *RemoteTool) Definition() tools.Definition {
	return r.def
}

// Call implements tools.Tool by forwarding to the remote server.
func (r *RemoteTool) Call(ctx context.Context, input map[string]any) (string, error) {
	result, err := r.client.CallTool(ctx, r.def.Name, input)
	if err != nil {
		return "", errors.New(errors.CodeToolFailure, "mcp call failed", err).
			WithContext("tool", r.def.Name).
			WithRecoverable(true)
	}
	text := textContent(result.Content)
	if result.IsError {
		if text == "" {
			text = "remote tool returned an error"
		}
		return "", errors.New(errors.CodeToolFailure, text, nil).
			WithContext("tool", r.def.Name)
	}
	return text, nil
}

// Mount discovers the tools of an external MCP server and registers
// them locally. It returns the registered tool names.
func Mount(ctx context.Context, registry *tools.Registry, client *Client) ([]string, error) {
	remote, err := client.ListTools(ctx)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "listing remote tools", err)
	}
	names := make([]string, 0, len(remote))
	for _, t := range remote {
		registry.Register(&RemoteTool{def: definitionFromTool(t), client: client})
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

// definitionFromTool converts an MCP tool schema into a registry
// definition. Unknown property shapes degrade to plain strings.
func definitionFromTool(t mcp.Tool) tools.Definition {
	def := tools.Definition{Name: t.Name, Description: t.Description}

	propNames := make([]string, 0, len(t.InputSchema.Properties))
	for name := range t.InputSchema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	required := map[string]bool{}
	for _, name := range t.InputSchema.Required {
		required[name] = true
	}

	for _, name := range propNames {
		param := tools.Parameter{Name: name, Type: "string", Required: required[name]}
		if prop, ok := t.InputSchema.Properties[name].(map[string]any); ok {
			if typ, ok := prop["type"].(string); ok && typ != "" {
				param.Type = typ
			}
			param.Description, _ = prop["description"].(string)
			if enum, ok := prop["enum"].([]any); ok {
				for _, v := range enum {
					if s, ok := v.(string); ok {
						param.Enum = append(param.Enum, s)
					}
				}
			}
		}
		def.Parameters = append(def.Parameters, param)
	}
	return def
}

func textContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the gated tool registry over the Model Context
// Protocol and mounts external MCP servers as local tools.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/roles"
	"github.com/emperor-ai/emperor/pkg/tools"
)

// Server serves one role's tool set over MCP. Every call runs through
// the same capability and permission gates as an agent run, so an MCP
// client gets exactly what the role itself would get.
type Server struct {
	role       roles.Role
	dispatcher *tools.Dispatcher
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer builds an MCP server for the role's capabilities. Tool
// names on the wire match the registry names exactly.
func NewServer(name, version string, role roles.Role, dispatcher *tools.Dispatcher, registry *tools.Registry, logger *slog.Logger) (*Server, error) {
	if dispatcher == nil || registry == nil {
		return nil, errors.New(errors.CodeInvalidInput, "mcp server requires a dispatcher and registry", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		role:       role,
		dispatcher: dispatcher,
		mcpServer:  server.NewMCPServer(name, version),
		logger:     logger,
	}
	// Capabilities without a registered tool are skipped, matching the
	// agent loop: a role may declare memory tools while memory is off.
	for _, capability := range role.Capabilities {
		tool, ok := registry.Get(capability)
		if !ok {
			continue
		}
		def := tool.Definition()
		s.mcpServer.AddTool(toolFromDefinition(def), s.handler(def.Name))
	}
	return s, nil
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server starting",
		slog.String("role", s.role.Name),
		slog.Int("tools", len(s.role.Capabilities)))
	return server.ServeStdio(s.mcpServer)
}

// handler dispatches one named tool. Gate denials and tool failures
// become MCP error results, not protocol errors.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		output, err := s.dispatcher.Dispatch(ctx, s.role, name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(output), nil
	}
}

// toolFromDefinition converts a registry definition into the MCP tool
// schema.
func toolFromDefinition(def tools.Definition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Parameters {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			propOpts = append(propOpts, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(def.Name, opts...)
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"time"

	"github.com/emperor-ai/emperor/pkg/memory"
)

// BuiltinConfig collects what the standard tool set needs.
type BuiltinConfig struct {
	Workspace      *Workspace
	SearchEndpoint string
	SearchResults  int
	CommandTimeout time.Duration

	// Memory is the agent's memory service. Memory tools are only
	// registered when it is set.
	Memory *memory.Service
}

// NewBuiltinRegistry registers the full built-in tool set. Role
// capabilities decide which of these an agent may actually call; the
// registry itself is shared.
func NewBuiltinRegistry(cfg BuiltinConfig) *Registry {
	r := NewRegistry()
	ws := cfg.Workspace

	r.Register(NewReadFileTool(ws))
	r.Register(NewWriteFileTool(ws))
	r.Register(NewListDirectoryTool(ws))
	r.Register(NewGrepTool(ws))
	r.Register(NewGlobTool(ws))
	r.Register(NewExecuteCommandTool(ws, cfg.CommandTimeout))
	r.Register(NewBackgroundCommandTool(ws))
	r.Register(NewWebSearchTool(cfg.SearchEndpoint, cfg.SearchResults))

	if cfg.Memory != nil {
		for _, tool := range NewMemoryTools(cfg.Memory).All() {
			r.Register(tool)
		}
	}
	return r
}

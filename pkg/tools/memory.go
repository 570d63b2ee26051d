// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/memory"
)

// MemoryTools binds the four memory tools to one agent's memory service.
type MemoryTools struct {
	svc *memory.Service
}

// NewMemoryTools creates the tool set for an agent's memory service.
func NewMemoryTools(svc *memory.Service) *MemoryTools {
	return &MemoryTools{svc: svc}
}

// All returns the four memory tools.
func (m *MemoryTools) All() []Tool {
	return []Tool{
		&rememberTool{svc: m.svc},
		&recallTool{svc: m.svc},
		&forgetTool{svc: m.svc},
		&listMemoriesTool{svc: m.svc},
	}
}

func categoryParameter(svc *memory.Service) Parameter {
	return Parameter{
		Name:        "category",
		Type:        "string",
		Description: "Memory category",
		Enum:        svc.Categories(),
	}
}

type rememberTool struct {
	svc *memory.Service
}

func (t *rememberTool) Definition() Definition {
	cat := categoryParameter(t.svc)
	cat.Required = true
	return Definition{
		Name:        "remember",
		Description: "Store a memory for later recall.",
		Parameters: []Parameter{
			{Name: "content", Type: "string", Description: "What to remember", Required: true},
			cat,
			{Name: "context", Type: "string", Description: "Optional note on when this applies"},
		},
	}
}

func (t *rememberTool) Call(ctx context.Context, input map[string]any) (string, error) {
	content, ok := stringArg(input, "content")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "remember requires content", nil)
	}
	category, _ := input["category"].(string)
	note, _ := input["context"].(string)

	rec, err := t.svc.Remember(ctx, category, note, content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("remembered %s under %s", rec.ID, rec.Category), nil
}

type recallTool struct {
	svc *memory.Service
}

func (t *recallTool) Definition() Definition {
	return Definition{
		Name:        "recall",
		Description: "Recall memories relevant to a query.",
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "What to look for", Required: true},
			categoryParameter(t.svc),
			{Name: "limit", Type: "integer", Description: "Maximum results. Defaults to 5."},
		},
	}
}

func (t *recallTool) Call(ctx context.Context, input map[string]any) (string, error) {
	query, ok := stringArg(input, "query")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "recall requires a query", nil)
	}
	category, _ := input["category"].(string)
	limit, _ := intArg(input, "limit")

	records, err := t.svc.Recall(ctx, query, category, limit)
	if err != nil {
		return "", err
	}
	return formatRecords(records), nil
}

type forgetTool struct {
	svc *memory.Service
}

func (t *forgetTool) Definition() Definition {
	return Definition{
		Name:        "forget",
		Description: "Delete a memory by its ID.",
		Parameters: []Parameter{
			{Name: "id", Type: "string", Description: "Memory ID to delete", Required: true},
		},
	}
}

func (t *forgetTool) Call(ctx context.Context, input map[string]any) (string, error) {
	id, ok := stringArg(input, "id")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "forget requires an id", nil)
	}
	if err := t.svc.Forget(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("forgot %s", id), nil
}

type listMemoriesTool struct {
	svc *memory.Service
}

func (t *listMemoriesTool) Definition() Definition {
	return Definition{
		Name:        "list_memories",
		Description: "List stored memories, newest first.",
		Parameters: []Parameter{
			categoryParameter(t.svc),
			{Name: "limit", Type: "integer", Description: "Maximum results"},
		},
	}
}

func (t *listMemoriesTool) Call(ctx context.Context, input map[string]any) (string, error) {
	category, _ := input["category"].(string)
	limit, _ := intArg(input, "limit")

	records, err := t.svc.List(ctx, category, limit)
	if err != nil {
		return "", err
	}
	return formatRecords(records), nil
}

func formatRecords(records []memory.Record) string {
	if len(records) == 0 {
		return "no memories"
	}
	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "[%s] (%s) %s", rec.ID, rec.Category, rec.Content)
		if rec.Context != "" {
			fmt.Fprintf(&b, " (%s)", rec.Context)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

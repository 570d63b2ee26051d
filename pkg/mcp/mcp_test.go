// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/emperor-ai/emperor/pkg/roles"
	"github.com/emperor-ai/emperor/pkg/tools"
)

type echoTool struct{}

func (echoTool) Definition() tools.Definition {
	return tools.Definition{
		Name:        "echo",
		Description: "echoes the text argument",
		Parameters: []tools.Parameter{
			{Name: "text", Type: "string", Description: "text to echo", Required: true},
		},
	}
}

func (echoTool) Call(_ context.Context, input map[string]any) (string, error) {
	text, _ := input["text"].(string)
	return text, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	role := roles.Role{
		Name:         "scribe",
		Description:  "test role",
		Capabilities: []string{"echo"},
	}
	s, err := NewServer("emperor", "0.1.0", role, tools.NewDispatcher(registry), registry, slog.Default())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestServerHandlerDispatches(t *testing.T) {
	s := testServer(t)

	result, err := s.handler("echo")(context.Background(), callRequest("echo", map[string]any{"text": "hello"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", textContent(result.Content))
	}
	if got := textContent(result.Content); got != "hello" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestServerHandlerDeniesOutsideCapabilities(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	registry.Register(&RemoteTool{def: tools.Definition{Name: "other", Description: "x"}})
	role := roles.Role{Name: "scribe", Description: "test role", Capabilities: []string{"echo"}}
	s, err := NewServer("emperor", "0.1.0", role, tools.NewDispatcher(registry), registry, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	result, err := s.handler("other")(context.Background(), callRequest("other", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for a tool outside the role's capabilities")
	}
}

func TestToolFromDefinition(t *testing.T) {
	def := tools.Definition{
		Name:        "remember",
		Description: "stores a memory",
		Parameters: []tools.Parameter{
			{Name: "content", Type: "string", Description: "what to store", Required: true},
			{Name: "category", Type: "string", Description: "category", Enum: []string{"fact", "preference"}},
			{Name: "limit", Type: "integer", Description: "max results"},
		},
	}

	tool := toolFromDefinition(def)
	if tool.Name != "remember" || tool.Description != "stores a memory" {
		t.Errorf("unexpected tool %+v", tool)
	}
	if len(tool.InputSchema.Properties) != 3 {
		t.Errorf("expected 3 properties, got %d", len(tool.InputSchema.Properties))
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "content" {
		t.Errorf("unexpected required %v", tool.InputSchema.Required)
	}
}

type fakeRPC struct {
	failures  int
	listCalls int
	callCalls int
	tools     []mcp.Tool
	output    string
	isError   bool
}

func (f *fakeRPC) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	f.listCalls++
	if f.failures > 0 {
		f.failures--
		return nil, stderrors.New("transient")
	}
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeRPC) CallTool(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.callCalls++
	if f.failures > 0 {
		f.failures--
		return nil, stderrors.New("transient")
	}
	if f.isError {
		return mcp.NewToolResultError(f.output), nil
	}
	return mcp.NewToolResultText(f.output), nil
}

func (f *fakeRPC) Close() error { return nil }

func TestClientRetriesTransientFailures(t *testing.T) {
	rpc := &fakeRPC{failures: 2, output: "done"}
	c := NewClient(rpc, WithRetry(2, time.Millisecond))

	result, err := c.CallTool(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := textContent(result.Content); got != "done" {
		t.Errorf("unexpected output %q", got)
	}
	if rpc.callCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", rpc.callCalls)
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	rpc := &fakeRPC{failures: 10}
	c := NewClient(rpc, WithRetry(1, time.Millisecond))

	if _, err := c.CallTool(context.Background(), "echo", nil); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if rpc.callCalls != 2 {
		t.Errorf("expected 2 attempts, got %d", rpc.callCalls)
	}
}

func TestClientToolCache(t *testing.T) {
	rpc := &fakeRPC{tools: []mcp.Tool{mcp.NewTool("search", mcp.WithDescription("web search"))}}
	c := NewClient(rpc)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		listed, err := c.ListTools(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(listed) != 1 || listed[0].Name != "search" {
			t.Errorf("unexpected tools %+v", listed)
		}
	}
	if rpc.listCalls != 1 {
		t.Errorf("expected cached listing, got %d rpc calls", rpc.listCalls)
	}
}

func TestMountRegistersRemoteTools(t *testing.T) {
	remote := mcp.NewTool("web_fetch",
		mcp.WithDescription("fetches a url"),
		mcp.WithString("url", mcp.Required(), mcp.Description("the url")),
	)
	rpc := &fakeRPC{tools: []mcp.Tool{remote}, output: "<html>"}
	c := NewClient(rpc)
	registry := tools.NewRegistry()

	names, err := Mount(context.Background(), registry, c)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if len(names) != 1 || names[0] != "web_fetch" {
		t.Fatalf("unexpected names %v", names)
	}

	tool, ok := registry.Get("web_fetch")
	if !ok {
		t.Fatal("remote tool not registered")
	}
	def := tool.Definition()
	if len(def.Parameters) != 1 || def.Parameters[0].Name != "url" || !def.Parameters[0].Required {
		t.Errorf("unexpected definition %+v", def)
	}

	out, err := tool.Call(context.Background(), map[string]any{"url": "http://example.com"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out != "<html>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRemoteToolErrorResult(t *testing.T) {
	rpc := &fakeRPC{output: "upstream broke", isError: true}
	tool := &RemoteTool{def: tools.Definition{Name: "web_fetch"}, client: NewClient(rpc)}

	_, err := tool.Call(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "upstream broke") {
		t.Fatalf("expected remote error surfaced, got %v", err)
	}
}

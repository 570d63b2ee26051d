package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emperor-ai/emperor/pkg/config"
	"github.com/emperor-ai/emperor/pkg/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseGlobalFlags(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{
		"--json", "--timeout", "45s", "--set", "llm.provider=mock", "ask", "hello",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.JSON {
		t.Error("expected json flag")
	}
	if flags.Timeout != 45*time.Second {
		t.Errorf("unexpected timeout %s", flags.Timeout)
	}
	if len(flags.ConfigArgs) != 1 || flags.ConfigArgs[0] != "llm.provider=mock" {
		t.Errorf("unexpected config args %v", flags.ConfigArgs)
	}
	if len(args) != 2 || args[0] != "ask" || args[1] != "hello" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestParseGlobalFlagsUnknown(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--verbose"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParseGlobalFlagsInvalidTimeout(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--timeout", "soon"}); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestGalleryPage(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handleGallery(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Emperor Widgets",
		"bg-destructive",          // destructive button rendered
		"from-indigo-500",         // premium button rendered
		"Styled link, no wrapper", // asChild anchor
		`type="email"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in page", want)
		}
	}
	if strings.Contains(body, "<button class=") && !strings.Contains(body, "inline-flex") {
		t.Error("buttons missing base classes")
	}
}

func TestGalleryNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	handleGallery(rec, httptest.NewRequest("GET", "/missing", nil))
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthEndpointReflectsReloads(t *testing.T) {
	reloadable := config.NewReloadableConfig(&config.Config{
		LLM: config.LLMConfig{Provider: "ollama", Model: "first"},
		Log: config.LogConfig{Level: "info"},
	})
	handler := handleHealth(reloadable)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"model":"first"`) {
		t.Errorf("expected initial model in %q", rec.Body.String())
	}

	reloadable.Update(&config.Config{
		LLM: config.LLMConfig{Provider: "ollama", Model: "second"},
		Log: config.LogConfig{Level: "debug"},
	})
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/healthz", nil))
	if !strings.Contains(rec.Body.String(), `"model":"second"`) {
		t.Errorf("expected reloaded model in %q", rec.Body.String())
	}
}

func TestConfigFilePath(t *testing.T) {
	if got := configFilePath([]string{"llm.provider=mock", "emperor.yaml"}); got != "emperor.yaml" {
		t.Errorf("expected file path, got %q", got)
	}
	if got := configFilePath([]string{"llm.provider=mock"}); got != "" {
		t.Errorf("expected empty path for overrides only, got %q", got)
	}
}

func TestAgentRunsWithMemoryDisabled(t *testing.T) {
	cfg := &config.Config{
		LLM:         config.LLMConfig{Provider: "mock"},
		Agent:       config.AgentConfig{DefaultRole: "emperor"},
		Permissions: config.PermissionsConfig{Preset: "moderate"},
		Workspace:   config.WorkspaceConfig{Root: t.TempDir()},
	}
	a, err := newApp(cfg, quietLogger(), false)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	// Every built-in role declares memory capabilities; with memory off
	// the registry holds no memory tools and the run must still work.
	role, err := a.roles.Lookup("emperor")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	ag, err := a.agentFor(role)
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	out, err := ag.Run(context.Background(), "hello")
	if err != nil {
		t.Fatalf("run with memory disabled: %v", err)
	}
	if out != "mock response" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewAppWiresFallbackProvider(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLMConfig{
			Provider:        "ollama",
			BaseURL:         "http://localhost:11434",
			FallbackBaseURL: "http://localhost:11435",
		},
		Permissions: config.PermissionsConfig{Preset: "moderate"},
		Workspace:   config.WorkspaceConfig{Root: t.TempDir()},
	}
	a, err := newApp(cfg, quietLogger(), false)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if _, ok := a.provider.(*llm.FallbackProvider); !ok {
		t.Fatalf("expected fallback provider, got %T", a.provider)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default llm provider ollama, got %q", cfg.LLM.Provider)
	}
	if cfg.Permissions.Preset != "moderate" {
		t.Errorf("expected default permissions preset moderate, got %q", cfg.Permissions.Preset)
	}
	if cfg.Agent.MaxTurns != 10 {
		t.Errorf("expected default max turns 10, got %d", cfg.Agent.MaxTurns)
	}
	if cfg.Web.Addr != ":8088" {
		t.Errorf("expected default web addr :8088, got %q", cfg.Web.Addr)
	}
	if cfg.Guardrails.Enabled {
		t.Error("guardrails should be off by default")
	}
	if cfg.Guardrails.PIIMode != "mask" {
		t.Errorf("expected default pii mode mask, got %q", cfg.Guardrails.PIIMode)
	}
	if cfg.LLM.RequestTimeout != 120 {
		t.Errorf("expected default request timeout 120s, got %d", cfg.LLM.RequestTimeout)
	}
	if cfg.Memory.VectorSize != 768 {
		t.Errorf("expected default vector size 768, got %d", cfg.Memory.VectorSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emperor.yaml")
	content := []byte(`
log:
  level: debug
  format: json
permissions:
  preset: strict
memory:
  provider: inmemory
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("file values not applied: %+v", cfg.Log)
	}
	if cfg.Permissions.Preset != "strict" {
		t.Errorf("expected preset strict, got %q", cfg.Permissions.Preset)
	}
	if cfg.Memory.Provider != "inmemory" {
		t.Errorf("expected memory provider inmemory, got %q", cfg.Memory.Provider)
	}
	// Untouched keys keep defaults
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default llm provider to survive, got %q", cfg.LLM.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EMPEROR_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected env override warn, got %q", cfg.Log.Level)
	}
}

func TestLoadWithCLI(t *testing.T) {
	cfg, err := LoadWithCLI([]string{"log.level=error", "agent.default_role=code_lead"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected cli override error, got %q", cfg.Log.Level)
	}
	if cfg.Agent.DefaultRole != "code_lead" {
		t.Errorf("expected cli override code_lead, got %q", cfg.Agent.DefaultRole)
	}
}

func TestLoadWithCLIRejectsMalformed(t *testing.T) {
	if _, err := LoadWithCLI([]string{"=oops"}); err == nil {
		t.Fatal("expected error for malformed override")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emperor.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher([]string{path})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	var reloaded *Config
	w.OnChange(func(cfg *Config) { reloaded = cfg })

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	// Force the mtime forward so the poll sees the change regardless
	// of filesystem timestamp granularity.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if !w.checkForChanges() {
		t.Fatal("expected change detection")
	}
	w.reload()

	if reloaded == nil {
		t.Fatal("listener not notified")
	}
	if reloaded.Log.Level != "debug" {
		t.Errorf("expected reloaded level debug, got %q", reloaded.Log.Level)
	}
	if w.Config().Log.Level != "debug" {
		t.Errorf("watcher config not updated: %q", w.Config().Log.Level)
	}
}

func TestWatcherIgnoresUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emperor.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := NewWatcher([]string{path})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if w.checkForChanges() {
		t.Error("untouched file reported as changed")
	}
}

func TestReloadableConfig(t *testing.T) {
	first, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rc := NewReloadableConfig(first)

	updated := *first
	updated.LLM.Model = "other-model"
	rc.Update(&updated)

	if rc.Get().LLM.Model != "other-model" {
		t.Errorf("update not visible: %q", rc.Get().LLM.Model)
	}
	if rc.LLM().Model != "other-model" {
		t.Errorf("section accessor stale: %q", rc.LLM().Model)
	}
}

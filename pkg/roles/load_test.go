package roles

import (
	"os"
	"path/filepath"
	"testing"
)

const validRoleMD = `---
name: scribe
kind: worker
capabilities:
  - remember
  - recall
memory-categories: [fact, general]
guidelines:
  - Be brief.
response-format: Plain text.
max-turns: 5
---

You take notes for the court.
`

func writeRole(t *testing.T, root, dir, content string) string {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(path, "ROLE.md")
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return file
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	path := writeRole(t, root, "scribe", validRoleMD)

	role, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if role.Name != "scribe" || role.Kind != KindWorker {
		t.Errorf("unexpected identity: %+v", role)
	}
	if role.Description != "You take notes for the court." {
		t.Errorf("unexpected persona: %q", role.Description)
	}
	if !role.Can(ToolRemember) || !role.Can(ToolRecall) {
		t.Errorf("capabilities not parsed: %v", role.Capabilities)
	}
	if !role.AllowsCategory(CategoryFact) {
		t.Errorf("memory categories not parsed: %v", role.MemoryCategories)
	}
	if role.MaxTurns != 5 {
		t.Errorf("expected max turns 5, got %d", role.MaxTurns)
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeRole(t, root, "scribe", validRoleMD)
	// Directories without ROLE.md are skipped.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	loaded, err := LoadDir(root)
	if err != nil {
		t.Fatalf("load dir failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "scribe" {
		t.Fatalf("expected one scribe role, got %v", loaded)
	}
}

func TestLoadDirRejectsNameMismatch(t *testing.T) {
	root := t.TempDir()
	writeRole(t, root, "not-scribe", validRoleMD)

	if _, err := LoadDir(root); err == nil {
		t.Fatal("expected error when directory name differs from role name")
	}
}

func TestLoadFileRejectsUnknownTool(t *testing.T) {
	root := t.TempDir()
	bad := `---
name: scribe
capabilities: [remember, summon_army]
---

Persona.
`
	path := writeRole(t, root, "scribe", bad)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected load to fail fast on unknown tool name")
	}
}

func TestLoadFileRejectsMissingFrontmatter(t *testing.T) {
	root := t.TempDir()
	path := writeRole(t, root, "scribe", "just a body, no frontmatter")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for missing frontmatter")
	}
}

func TestLoadFileCapabilitiesAsString(t *testing.T) {
	root := t.TempDir()
	md := `---
name: scribe
capabilities: remember recall recall
---

Persona.
`
	path := writeRole(t, root, "scribe", md)

	role, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(role.Capabilities) != 2 {
		t.Errorf("expected dedupe to two capabilities, got %v", role.Capabilities)
	}
}

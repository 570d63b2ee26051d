package permissions

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func openTestStore(t *testing.T) *SQLiteAuditStore {
	t.Helper()
	store, err := OpenSQLiteAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAuditRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entries := []AuditEntry{
		{Agent: "task_lead", Tool: "execute_command", Action: AuditApprovalRequested, Risk: RiskHigh},
		{Agent: "task_lead", Tool: "execute_command", Action: AuditApprovalGranted, Risk: RiskHigh, Reason: "approval granted"},
		{Agent: "researcher", Tool: "web_search", Action: AuditToolExecuted, Risk: RiskLow,
			Input: map[string]any{"query": "golang slog"}},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.List(ctx, AuditFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Action != AuditApprovalRequested {
		t.Errorf("expected oldest-first ordering, got %v first", got[0].Action)
	}
	if got[2].Input["query"] != "golang slog" {
		t.Errorf("input not round-tripped: %v", got[2].Input)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestAuditListFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []AuditEntry{
		{Agent: "task_lead", Tool: "execute_command", Action: AuditToolDenied, Risk: RiskCritical},
		{Agent: "task_lead", Tool: "write_file", Action: AuditToolExecuted, Risk: RiskMedium},
		{Agent: "researcher", Tool: "web_search", Action: AuditToolExecuted, Risk: RiskLow},
	}
	for _, e := range seed {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	byAgent, err := store.List(ctx, AuditFilter{Agent: "task_lead"})
	if err != nil {
		t.Fatalf("list by agent: %v", err)
	}
	if len(byAgent) != 2 {
		t.Errorf("expected 2 task_lead entries, got %d", len(byAgent))
	}

	byAction, err := store.List(ctx, AuditFilter{Action: AuditToolDenied})
	if err != nil {
		t.Fatalf("list by action: %v", err)
	}
	if len(byAction) != 1 || byAction[0].Tool != "execute_command" {
		t.Errorf("unexpected denied entries: %v", byAction)
	}

	limited, err := store.List(ctx, AuditFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}
}

func TestAuditStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Record(ctx, AuditEntry{Agent: "a", Tool: "read_file", Action: AuditToolExecuted, Risk: RiskLow}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := store.Record(ctx, AuditEntry{Agent: "a", Tool: "execute_command", Action: AuditToolDenied, Risk: RiskHigh}); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("expected total 4, got %d", stats.Total)
	}
	if stats.ByAction[AuditToolExecuted] != 3 || stats.ByAction[AuditToolDenied] != 1 {
		t.Errorf("unexpected per-action counts: %v", stats.ByAction)
	}
}

func TestSanitizeInput(t *testing.T) {
	long := strings.Repeat("x", 1000)
	out := sanitizeInput(map[string]any{
		"api_key": "sk-12345",
		"content": long,
		"path":    "main.go",
	})

	if out["api_key"] != "[REDACTED]" {
		t.Errorf("secret key not redacted: %v", out["api_key"])
	}
	if s, ok := out["content"].(string); !ok || len(s) >= len(long) {
		t.Error("long value not truncated")
	}
	if out["path"] != "main.go" {
		t.Errorf("plain value altered: %v", out["path"])
	}
}

func TestSanitizeInputKeepsRunesWhole(t *testing.T) {
	// 300 bytes of three-byte runes; a byte-offset cut would split one.
	out := sanitizeInput(map[string]any{"content": strings.Repeat("日", 100)})

	s, ok := out["content"].(string)
	if !ok {
		t.Fatalf("unexpected value %v", out["content"])
	}
	if !strings.HasSuffix(s, "…[truncated]") {
		t.Errorf("long value not truncated: %q", s)
	}
	if !utf8.ValidString(s) {
		t.Error("truncation split a rune")
	}
}

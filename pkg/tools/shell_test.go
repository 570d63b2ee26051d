package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emperor-ai/emperor/pkg/errors"
)

func TestExecuteCommand(t *testing.T) {
	tool := NewExecuteCommandTool(newTestWorkspace(t), 0)

	out, err := tool.Call(context.Background(), map[string]any{"command": "echo hello"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestExecuteCommandNonZeroExit(t *testing.T) {
	tool := NewExecuteCommandTool(newTestWorkspace(t), 0)

	out, err := tool.Call(context.Background(), map[string]any{"command": "exit 3"})
	if err != nil {
		t.Fatalf("non-zero exit should not error: %v", err)
	}
	if !strings.Contains(out, "[exit code 3]") {
		t.Errorf("expected exit code in output, got %q", out)
	}
}

func TestExecuteCommandBlocked(t *testing.T) {
	tool := NewExecuteCommandTool(newTestWorkspace(t), 0)

	_, err := tool.Call(context.Background(), map[string]any{"command": "shutdown now"})
	if !errors.IsCode(err, errors.CodePermissionDenied) {
		t.Fatalf("expected blocked command error, got %v", err)
	}
}

func TestExecuteCommandTimeout(t *testing.T) {
	tool := NewExecuteCommandTool(newTestWorkspace(t), 100*time.Millisecond)

	_, err := tool.Call(context.Background(), map[string]any{"command": "sleep 5"})
	if !errors.IsCode(err, errors.CodeTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestTruncateOutput(t *testing.T) {
	long := strings.Repeat("x", maxCommandOutput+10)
	out := truncateOutput(long)
	if len(out) >= len(long) {
		t.Error("expected output truncated")
	}
	if !strings.HasSuffix(out, "[output truncated]") {
		t.Errorf("expected truncation marker, got tail %q", out[len(out)-30:])
	}
}

func TestIsBlockedCommand(t *testing.T) {
	tests := []struct {
		command string
		blocked bool
	}{
		{"rm -rf /", true},
		{"shutdown -h now", true},
		{"reboot", true},
		{"echo rm", false},
		{"ls -la", false},
	}
	for _, tt := range tests {
		if got := isBlockedCommand(tt.command); got != tt.blocked {
			t.Errorf("isBlockedCommand(%q) = %v, want %v", tt.command, got, tt.blocked)
		}
	}
}

func TestBackgroundCommand(t *testing.T) {
	ws := newTestWorkspace(t)
	tool := NewBackgroundCommandTool(ws)

	out, err := tool.Call(context.Background(), map[string]any{"command": "echo bg"})
	if err != nil {
		t.Fatalf("background: %v", err)
	}
	if !strings.Contains(out, "started job") {
		t.Errorf("unexpected result %q", out)
	}
	if len(tool.Jobs()) != 1 {
		t.Errorf("expected one tracked job, got %v", tool.Jobs())
	}
}

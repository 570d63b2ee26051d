// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emperor-ai/emperor/pkg/errors"
)

const (
	defaultCommandTimeout = 60 * time.Second
	maxCommandOutput      = 10000
)

// blockedCommands are refused outright, before risk classification ever
// sees them. The permission layer handles the merely dangerous ones.
var blockedCommands = []string{
	"rm -rf /",
	"rm -rf /*",
	"mkfs",
	"shutdown",
	"reboot",
	"halt",
	"poweroff",
	":(){",
}

func isBlockedCommand(command string) bool {
	trimmed := strings.TrimSpace(command)
	for _, blocked := range blockedCommands {
		if strings.HasPrefix(trimmed, blocked) || strings.Contains(trimmed, " "+blocked) {
			return true
		}
	}
	return false
}

func truncateOutput(out string) string {
	if len(out) <= maxCommandOutput {
		return out
	}
	return out[:maxCommandOutput] + "\n[output truncated]"
}

// ExecuteCommandTool runs a shell command in the workspace and returns
// its combined output.
type ExecuteCommandTool struct {
	ws      *Workspace
	timeout time.Duration
}

func NewExecuteCommandTool(ws *Workspace, timeout time.Duration) *ExecuteCommandTool {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &ExecuteCommandTool{ws: ws, timeout: timeout}
}

func (t *ExecuteCommandTool) Definition() Definition {
	return Definition{
		Name:        "execute_command",
		Description: "Run a shell command in the workspace and return its output.",
		Parameters: []Parameter{
			{Name: "command", Type: "string", Description: "Shell command to run", Required: true},
			{Name: "timeout", Type: "integer", Description: "Timeout in seconds. Defaults to 60.", Required: false},
		},
	}
}

func (t *ExecuteCommandTool) Call(ctx context.Context, input map[string]any) (string, error) {
	command, ok := stringArg(input, "command")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "execute_command requires a command", nil)
	}
	if isBlockedCommand(command) {
		return "", errors.New(errors.CodePermissionDenied,
			fmt.Sprintf("command is blocked: %s", command), nil)
	}

	timeout := t.timeout
	if secs, ok := intArg(input, "timeout"); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = t.ws.Root()

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := truncateOutput(buf.String())

	if ctx.Err() == context.DeadlineExceeded {
		return "", errors.New(errors.CodeTimeout,
			fmt.Sprintf("command timed out after %s", timeout), nil).WithRecoverable(true)
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Sprintf("%s\n[exit code %d]", output, exitErr.ExitCode()), nil
		}
		return "", errors.New(errors.CodeToolFailure, "command failed to start", err)
	}
	return output, nil
}

// backgroundJob tracks one detached command.
type backgroundJob struct {
	ID      string
	Command string
	PID     int
	LogPath string
	Started time.Time
}

// BackgroundCommandTool starts a command detached from the conversation
// turn, writing output to a log file in the workspace.
type BackgroundCommandTool struct {
	ws   *Workspace
	mu   sync.Mutex
	jobs map[string]*backgroundJob
}

func NewBackgroundCommandTool(ws *Workspace) *BackgroundCommandTool {
	return &BackgroundCommandTool{ws: ws, jobs: make(map[string]*backgroundJob)}
}

func (t *BackgroundCommandTool) Definition() Definition {
	return Definition{
		Name:        "background_command",
		Description: "Start a long-running shell command in the background. Output goes to a log file in the workspace.",
		Parameters: []Parameter{
			{Name: "command", Type: "string", Description: "Shell command to run", Required: true},
		},
	}
}

func (t *BackgroundCommandTool) Call(_ context.Context, input map[string]any) (string, error) {
	command, ok := stringArg(input, "command")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "background_command requires a command", nil)
	}
	if isBlockedCommand(command) {
		return "", errors.New(errors.CodePermissionDenied,
			fmt.Sprintf("command is blocked: %s", command), nil)
	}

	jobID := uuid.NewString()[:8]
	logDir := filepath.Join(t.ws.Root(), ".emperor", "jobs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", err
	}
	logPath := filepath.Join(logDir, jobID+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return "", err
	}

	// Deliberately not CommandContext: the job must outlive the turn.
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = t.ws.Root()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return "", errors.New(errors.CodeToolFailure, "background command failed to start", err)
	}

	job := &backgroundJob{
		ID:      jobID,
		Command: command,
		PID:     cmd.Process.Pid,
		LogPath: logPath,
		Started: time.Now(),
	}
	t.mu.Lock()
	t.jobs[jobID] = job
	t.mu.Unlock()

	go func() {
		cmd.Wait()
		logFile.Close()
	}()

	return fmt.Sprintf("started job %s (pid %d), output: %s", jobID, job.PID, logPath), nil
}

// Jobs returns the tracked background jobs.
func (t *BackgroundCommandTool) Jobs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.jobs))
	for id := range t.jobs {
		out = append(out, id)
	}
	return out
}

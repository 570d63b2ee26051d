// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emperor-ai/emperor/pkg/errors"
)

const maxFileReadBytes = 256 * 1024

// Workspace confines file tools to a root directory.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at dir. Relative tool paths
// resolve against it; escapes via .. or absolute paths outside it fail.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Workspace{root: abs}, nil
}

// Root returns the workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve maps a tool-supplied path into the workspace.
func (w *Workspace) Resolve(p string) (string, error) {
	if p == "" {
		return "", errors.New(errors.CodeInvalidInput, "path is empty", nil)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(w.root, full)
	}
	full = filepath.Clean(full)
	if full != w.root && !strings.HasPrefix(full, w.root+string(filepath.Separator)) {
		return "", errors.New(errors.CodePermissionDenied,
			fmt.Sprintf("path %q escapes the workspace", p), nil)
	}
	return full, nil
}

// ReadFileTool reads a file inside the workspace.
type ReadFileTool struct {
	ws *Workspace
}

func NewReadFileTool(ws *Workspace) *ReadFileTool {
	return &ReadFileTool{ws: ws}
}

func (t *ReadFileTool) Definition() Definition {
	return Definition{
		Name:        "read_file",
		Description: "Read the contents of a file in the workspace.",
		Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "File path, relative to the workspace root", Required: true},
		},
	}
}

func (t *ReadFileTool) Call(_ context.Context, input map[string]any) (string, error) {
	path, ok := stringArg(input, "path")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "read_file requires a path", nil)
	}
	full, err := t.ws.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New(errors.CodeNotFound, fmt.Sprintf("file %q does not exist", path), nil)
		}
		return "", err
	}
	if info.IsDir() {
		return "", errors.New(errors.CodeInvalidInput, fmt.Sprintf("%q is a directory", path), nil)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	if len(data) > maxFileReadBytes {
		return string(data[:maxFileReadBytes]) + "\n[truncated]", nil
	}
	return string(data), nil
}

// WriteFileTool writes a file inside the workspace, creating parent
// directories as needed.
type WriteFileTool struct {
	ws *Workspace
}

func NewWriteFileTool(ws *Workspace) *WriteFileTool {
	return &WriteFileTool{ws: ws}
}

func (t *WriteFileTool) Definition() Definition {
	return Definition{
		Name:        "write_file",
		Description: "Write content to a file in the workspace, replacing any existing content.",
		Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "File path, relative to the workspace root", Required: true},
			{Name: "content", Type: "string", Description: "Full file content to write", Required: true},
		},
	}
}

func (t *WriteFileTool) Call(_ context.Context, input map[string]any) (string, error) {
	path, ok := stringArg(input, "path")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "write_file requires a path", nil)
	}
	content, ok := input["content"].(string)
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "write_file requires content", nil)
	}
	full, err := t.ws.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
}

// ListDirectoryTool lists directory entries inside the workspace.
type ListDirectoryTool struct {
	ws *Workspace
}

func NewListDirectoryTool(ws *Workspace) *ListDirectoryTool {
	return &ListDirectoryTool{ws: ws}
}

func (t *ListDirectoryTool) Definition() Definition {
	return Definition{
		Name:        "list_directory",
		Description: "List files and directories at a path in the workspace.",
		Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "Directory path, relative to the workspace root. Defaults to the root.", Required: false},
		},
	}
}

func (t *ListDirectoryTool) Call(_ context.Context, input map[string]any) (string, error) {
	path, _ := input["path"].(string)
	if path == "" {
		path = "."
	}
	full, err := t.ws.Resolve(path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New(errors.CodeNotFound, fmt.Sprintf("directory %q does not exist", path), nil)
		}
		return "", err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "(empty)", nil
	}
	return strings.Join(names, "\n"), nil
}

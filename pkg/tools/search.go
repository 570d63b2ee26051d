// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/emperor-ai/emperor/pkg/errors"
)

const (
	maxGrepMatches  = 200
	maxGlobMatches  = 500
	maxGrepFileSize = 1 << 20
)

// GrepTool searches file contents in the workspace with a regular
// expression.
type GrepTool struct {
	ws *Workspace
}

func NewGrepTool(ws *Workspace) *GrepTool {
	return &GrepTool{ws: ws}
}

func (t *GrepTool) Definition() Definition {
	return Definition{
		Name:        "grep",
		Description: "Search file contents in the workspace with a regular expression. Returns file:line matches.",
		Parameters: []Parameter{
			{Name: "pattern", Type: "string", Description: "Regular expression to search for", Required: true},
			{Name: "path", Type: "string", Description: "Directory to search, relative to the workspace root. Defaults to the root.", Required: false},
		},
	}
}

func (t *GrepTool) Call(ctx context.Context, input map[string]any) (string, error) {
	pattern, ok := stringArg(input, "pattern")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "grep requires a pattern", nil)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid pattern: %v", err), nil)
	}

	dir, _ := input["path"].(string)
	if dir == "" {
		dir = "."
	}
	root, err := t.ws.Resolve(dir)
	if err != nil {
		return "", err
	}

	var matches []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			name := entry.Name()
			if name == ".git" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := entry.Info()
		if err != nil || info.Size() > maxGrepFileSize {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		rel, _ := filepath.Rel(t.ws.Root(), path)
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), maxGrepFileSize)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				matches = append(matches, fmt.Sprintf("%s:%d:%s", rel, lineNo, line))
				if len(matches) >= maxGrepMatches {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != ctx.Err() {
		return "", walkErr
	}

	if len(matches) == 0 {
		return "no matches", nil
	}
	return strings.Join(matches, "\n"), nil
}

// GlobTool finds files matching a glob pattern.
type GlobTool struct {
	ws *Workspace
}

func NewGlobTool(ws *Workspace) *GlobTool {
	return &GlobTool{ws: ws}
}

func (t *GlobTool) Definition() Definition {
	return Definition{
		Name:        "glob",
		Description: "Find files in the workspace matching a glob pattern, for example **/*.go or cmd/*.go.",
		Parameters: []Parameter{
			{Name: "pattern", Type: "string", Description: "Glob pattern, relative to the workspace root", Required: true},
		},
	}
}

func (t *GlobTool) Call(_ context.Context, input map[string]any) (string, error) {
	pattern, ok := stringArg(input, "pattern")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "glob requires a pattern", nil)
	}

	var matches []string
	if strings.Contains(pattern, "**") {
		// filepath.Glob has no ** support, walk and match around it.
		err := filepath.WalkDir(t.ws.Root(), func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			rel, _ := filepath.Rel(t.ws.Root(), path)
			if matchDoubleStar(pattern, rel) {
				matches = append(matches, rel)
			}
			if len(matches) >= maxGlobMatches {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			return "", err
		}
	} else {
		full, err := filepath.Glob(filepath.Join(t.ws.Root(), pattern))
		if err != nil {
			return "", errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid pattern: %v", err), nil)
		}
		for _, m := range full {
			rel, _ := filepath.Rel(t.ws.Root(), m)
			matches = append(matches, rel)
		}
	}

	if len(matches) == 0 {
		return "no matches", nil
	}
	return strings.Join(matches, "\n"), nil
}

// matchDoubleStar matches rel against a pattern containing one **. The
// segments before ** must match the leading path components and the
// segments after it the trailing ones; ** spans any number of
// directories in between, including none.
func matchDoubleStar(pattern, rel string) bool {
	pattern = filepath.ToSlash(pattern)
	rel = filepath.ToSlash(rel)

	idx := strings.Index(pattern, "**")
	prefix := strings.TrimSuffix(pattern[:idx], "/")
	suffix := strings.TrimPrefix(pattern[idx+2:], "/")

	relParts := strings.Split(rel, "/")

	var preParts []string
	if prefix != "" {
		preParts = strings.Split(prefix, "/")
	}
	var sufParts []string
	if suffix != "" {
		sufParts = strings.Split(suffix, "/")
	}
	if len(relParts) < len(preParts)+len(sufParts) {
		return false
	}

	for i, part := range preParts {
		if ok, _ := path.Match(part, relParts[i]); !ok {
			return false
		}
	}
	tail := relParts[len(relParts)-len(sufParts):]
	for i, part := range sufParts {
		if ok, _ := path.Match(part, tail[i]); !ok {
			return false
		}
	}
	return true
}

// WebSearchTool queries a SearxNG-compatible JSON search endpoint.
type WebSearchTool struct {
	endpoint   string
	maxResults int
	client     *http.Client
}

func NewWebSearchTool(endpoint string, maxResults int) *WebSearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchTool{
		endpoint:   endpoint,
		maxResults: maxResults,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *WebSearchTool) Definition() Definition {
	return Definition{
		Name:        "web_search",
		Description: "Search the web and return titles, URLs, and snippets.",
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "Search query", Required: true},
		},
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (t *WebSearchTool) Call(ctx context.Context, input map[string]any) (string, error) {
	query, ok := stringArg(input, "query")
	if !ok {
		return "", errors.New(errors.CodeInvalidInput, "web_search requires a query", nil)
	}
	if t.endpoint == "" {
		return "", errors.New(errors.CodeInvalidInput, "no search endpoint configured", nil)
	}

	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", errors.New(errors.CodeInvalidInput, "invalid search endpoint", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.New(errors.CodeToolFailure, "search request failed", err).WithRecoverable(true)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.CodeToolFailure,
			fmt.Sprintf("search endpoint returned status %d", resp.StatusCode), nil).WithRecoverable(true)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", errors.New(errors.CodeToolFailure, "decode search response", err)
	}

	if len(sr.Results) == 0 {
		return "no results", nil
	}
	var b strings.Builder
	for i, r := range sr.Results {
		if i >= t.maxResults {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Content)
	}
	return b.String(), nil
}

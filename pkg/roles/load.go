package roles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	maxNameLen        = 64
	maxDescriptionLen = 4096
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:_[a-z0-9]+)*$`)

// LoadDir scans a directory for role subdirectories containing ROLE.md.
// Each subdirectory name must match the role name in its frontmatter.
func LoadDir(root string) ([]Role, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []Role
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rolePath := filepath.Join(root, entry.Name(), "ROLE.md")
		if _, err := os.Stat(rolePath); err != nil {
			continue
		}
		role, err := LoadFile(rolePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rolePath, err)
		}
		if role.Name != entry.Name() {
			return nil, fmt.Errorf("%s: role name %q must match directory name %q",
				rolePath, role.Name, entry.Name())
		}
		out = append(out, role)
	}
	return out, nil
}

// LoadFile parses a single ROLE.md file: YAML frontmatter carrying the
// declared capability set and memory categories, and a Markdown body used
// as the persona description.
func LoadFile(path string) (Role, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Role{}, err
	}
	fm, body, err := splitFrontmatter(string(data))
	if err != nil {
		return Role{}, err
	}
	var parsed frontmatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return Role{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	caps, err := normalizeList(parsed.Capabilities, "capabilities")
	if err != nil {
		return Role{}, err
	}
	cats, err := normalizeList(parsed.MemoryCategories, "memory-categories")
	if err != nil {
		return Role{}, err
	}
	role := Role{
		Name:             strings.TrimSpace(parsed.Name),
		Kind:             Kind(strings.TrimSpace(parsed.Kind)),
		Description:      strings.TrimSpace(body),
		Capabilities:     caps,
		MemoryCategories: cats,
		Guidelines:       trimAll(parsed.Guidelines),
		ResponseFormat:   strings.TrimSpace(parsed.ResponseFormat),
		Rules:            trimAll(parsed.Rules),
		MaxTurns:         parsed.MaxTurns,
	}
	if role.Kind == "" {
		role.Kind = KindWorker
	}
	if err := validateFile(role); err != nil {
		return Role{}, err
	}
	if err := Validate(role); err != nil {
		return Role{}, err
	}
	return role, nil
}

type frontmatter struct {
	Name             string   `yaml:"name"`
	Kind             string   `yaml:"kind"`
	Capabilities     any      `yaml:"capabilities"`
	MemoryCategories any      `yaml:"memory-categories"`
	Guidelines       []string `yaml:"guidelines"`
	ResponseFormat   string   `yaml:"response-format"`
	Rules            []string `yaml:"rules"`
	MaxTurns         int      `yaml:"max-turns"`
}

func splitFrontmatter(content string) (string, string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", errors.New("missing frontmatter")
	}
	parts := strings.SplitN(trimmed, "---", 3)
	if len(parts) < 3 {
		return "", "", errors.New("invalid frontmatter")
	}
	fm := strings.TrimSpace(parts[1])
	body := strings.TrimSpace(parts[2])
	return fm, body, nil
}

func validateFile(r Role) error {
	if utf8.RuneCountInString(r.Name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	if !namePattern.MatchString(r.Name) {
		return fmt.Errorf("name must match %s", namePattern.String())
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	switch r.Kind {
	case KindOrchestrator, KindLead, KindWorker:
	default:
		return fmt.Errorf("unknown role kind %q", r.Kind)
	}
	return nil
}

// normalizeList accepts either a whitespace-separated string or a string
// list, returning a deduplicated slice.
func normalizeList(value any, field string) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		return dedupe(strings.Fields(v)), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string list", field)
			}
			out = append(out, strings.TrimSpace(str))
		}
		return dedupe(out), nil
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, strings.TrimSpace(item))
		}
		return dedupe(out), nil
	default:
		return nil, fmt.Errorf("%s must be string or list", field)
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package roles

import (
	"fmt"
	"strings"
)

// Kind distinguishes domain leads from focused workers.
type Kind string

const (
	KindOrchestrator Kind = "orchestrator"
	KindLead         Kind = "lead"
	KindWorker       Kind = "worker"
)

// Role is an immutable persona configuration constraining an agent's
// declared tool capabilities and behavioral guidelines. The guideline and
// response-format prose is advisory text for the model; it is passed
// through to the system prompt unchanged, never parsed.
type Role struct {
	Name             string
	Kind             Kind
	Description      string
	Capabilities     []string
	MemoryCategories []string
	Guidelines       []string
	ResponseFormat   string
	Rules            []string
	MaxTurns         int
}

// Can reports whether the role declares the given tool capability.
// This is the declared set only; runtime enforcement lives in the dispatcher.
func (r Role) Can(tool string) bool {
	for _, c := range r.Capabilities {
		if c == tool {
			return true
		}
	}
	return false
}

// AllowsCategory reports whether the role may use the given memory category.
func (r Role) AllowsCategory(category string) bool {
	for _, c := range r.MemoryCategories {
		if c == category {
			return true
		}
	}
	return false
}

// SystemPrompt renders the role as a Markdown system prompt with headed
// sections. The output is deterministic for a given role value.
func (r Role) SystemPrompt() string {
	var b strings.Builder

	b.WriteString("# Role\n\n")
	b.WriteString(strings.TrimSpace(r.Description))
	b.WriteString("\n\n## Capabilities\n\n")
	for _, tool := range r.Capabilities {
		fmt.Fprintf(&b, "- `%s`\n", tool)
	}

	if len(r.Guidelines) > 0 {
		b.WriteString("\n## Guidelines\n\n")
		for _, g := range r.Guidelines {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	if r.ResponseFormat != "" {
		b.WriteString("\n## Response Format\n\n")
		b.WriteString(strings.TrimSpace(r.ResponseFormat))
		b.WriteString("\n")
	}

	if len(r.Rules) > 0 {
		b.WriteString("\n## Rules\n\n")
		for _, rule := range r.Rules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
	}

	return b.String()
}

// clone returns a deep copy so registry entries stay immutable.
func (r Role) clone() Role {
	r.Capabilities = append([]string(nil), r.Capabilities...)
	r.MemoryCategories = append([]string(nil), r.MemoryCategories...)
	r.Guidelines = append([]string(nil), r.Guidelines...)
	r.Rules = append([]string(nil), r.Rules...)
	return r
}

package roles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emperor-ai/emperor/pkg/errors"
)

// Registry is an immutable, read-only mapping from role name to Role.
// Roles are validated once at construction; lookups never mutate state.
type Registry struct {
	roles map[string]Role
	names []string
}

// NewRegistry builds a registry from the given roles, failing fast on
// invalid definitions: duplicate names, empty personas, empty or unknown
// capability sets.
func NewRegistry(rs []Role) (*Registry, error) {
	reg := &Registry{roles: make(map[string]Role, len(rs))}
	for _, r := range rs {
		if err := Validate(r); err != nil {
			return nil, err
		}
		if _, dup := reg.roles[r.Name]; dup {
			return nil, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("duplicate role %q", r.Name), nil)
		}
		reg.roles[r.Name] = r.clone()
		reg.names = append(reg.names, r.Name)
	}
	sort.Strings(reg.names)
	return reg, nil
}

// NewBuiltinRegistry builds a registry holding only the built-in roles.
func NewBuiltinRegistry() (*Registry, error) {
	return NewRegistry(Builtin())
}

// Lookup returns the role for the given name, or a CodeNotFound error.
func (reg *Registry) Lookup(name string) (Role, error) {
	r, ok := reg.roles[name]
	if !ok {
		return Role{}, errors.New(errors.CodeNotFound,
			fmt.Sprintf("unknown role %q", name), nil).
			WithContext("role", name)
	}
	return r.clone(), nil
}

// Names returns the registered role names in sorted order.
func (reg *Registry) Names() []string {
	return append([]string(nil), reg.names...)
}

// Len returns the number of registered roles.
func (reg *Registry) Len() int {
	return len(reg.roles)
}

// Merge returns a new registry with extra roles layered over reg.
// Roles with the same name replace the existing definition.
func (reg *Registry) Merge(extra []Role) (*Registry, error) {
	merged := make([]Role, 0, len(reg.roles)+len(extra))
	replaced := make(map[string]bool, len(extra))
	for _, r := range extra {
		replaced[r.Name] = true
	}
	for _, name := range reg.names {
		if !replaced[name] {
			merged = append(merged, reg.roles[name])
		}
	}
	merged = append(merged, extra...)
	return NewRegistry(merged)
}

// Validate checks a single role definition against the registry invariants.
func Validate(r Role) error {
	name := strings.TrimSpace(r.Name)
	if name == "" || name != r.Name {
		return errors.New(errors.CodeInvalidInput, "role name must be non-empty and trimmed", nil)
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("role %q has an empty persona description", r.Name), nil)
	}
	if len(r.Capabilities) == 0 {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("role %q declares no capabilities", r.Name), nil)
	}
	seen := make(map[string]bool, len(r.Capabilities))
	for _, tool := range r.Capabilities {
		if !IsKnownTool(tool) {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("role %q declares unknown tool %q", r.Name, tool), nil).
				WithContext("tool", tool)
		}
		if seen[tool] {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("role %q declares tool %q twice", r.Name, tool), nil)
		}
		seen[tool] = true
	}
	for _, cat := range r.MemoryCategories {
		if strings.TrimSpace(cat) == "" {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("role %q declares an empty memory category", r.Name), nil)
		}
	}
	if r.MaxTurns < 0 {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("role %q has negative max turns", r.Name), nil)
	}
	return nil
}

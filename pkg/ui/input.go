// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import "html/template"

const inputBase = "flex h-9 w-full rounded-md border border-input bg-transparent px-3 py-1 text-sm shadow-sm transition-colors file:border-0 file:bg-transparent file:text-sm file:font-medium placeholder:text-muted-foreground focus-visible:outline-none focus-visible:ring-1 focus-visible:ring-ring disabled:cursor-not-allowed disabled:opacity-50"

// Input is the styled input widget. Native attributes pass through
// verbatim; the ID doubles as the handle page scripts use for
// imperative access.
type Input struct {
	Type        string // defaults to "text"
	Name        string
	Value       string
	Placeholder string
	ID          string
	Class       string // appended to the base classes
	Disabled    bool
	Attrs       map[string]string // extra native attributes
}

// Classes returns the input's computed class string.
func (i Input) Classes() string {
	return joinClasses(inputBase, i.Class)
}

// Render produces the input markup. The disabled attribute appears if
// and only if Disabled is set.
func (i Input) Render() template.HTML {
	attrs := map[string]string{
		"class": i.Classes(),
		"type":  defaultString(i.Type, "text"),
	}
	if i.Name != "" {
		attrs["name"] = i.Name
	}
	if i.Value != "" {
		attrs["value"] = i.Value
	}
	if i.Placeholder != "" {
		attrs["placeholder"] = i.Placeholder
	}
	if i.ID != "" {
		attrs["id"] = i.ID
	}
	if i.Disabled {
		attrs["disabled"] = ""
	}
	for k, v := range i.Attrs {
		attrs[k] = v
	}
	return renderElement(Element{Tag: "input", Attrs: attrs})
}

// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

// Package ui renders the server-side widgets for the demo web page.
// Widgets are pure functions from configuration to markup.
package ui

import (
	"html/template"
	"sort"
	"strings"
)

// ButtonVariant selects the button's visual style.
type ButtonVariant string

const (
	VariantDefault     ButtonVariant = "default"
	VariantDestructive ButtonVariant = "destructive"
	VariantOutline     ButtonVariant = "outline"
	VariantSecondary   ButtonVariant = "secondary"
	VariantGhost       ButtonVariant = "ghost"
	VariantLink        ButtonVariant = "link"
	VariantPremium     ButtonVariant = "premium"
)

// ButtonSize selects the button's dimensions.
type ButtonSize string

const (
	SizeDefault ButtonSize = "default"
	SizeSm      ButtonSize = "sm"
	SizeLg      ButtonSize = "lg"
	SizeIcon    ButtonSize = "icon"
)

const buttonBase = "inline-flex items-center justify-center gap-2 whitespace-nowrap rounded-md text-sm font-medium transition-colors focus-visible:outline-none focus-visible:ring-1 focus-visible:ring-ring disabled:pointer-events-none disabled:opacity-50"

var buttonVariants = map[ButtonVariant]string{
	VariantDefault:     "bg-primary text-primary-foreground shadow hover:bg-primary/90",
	VariantDestructive: "bg-destructive text-destructive-foreground shadow-sm hover:bg-destructive/90",
	VariantOutline:     "border border-input bg-background shadow-sm hover:bg-accent hover:text-accent-foreground",
	VariantSecondary:   "bg-secondary text-secondary-foreground shadow-sm hover:bg-secondary/80",
	VariantGhost:       "hover:bg-accent hover:text-accent-foreground",
	VariantLink:        "text-primary underline-offset-4 hover:underline",
	VariantPremium:     "bg-gradient-to-r from-indigo-500 to-purple-600 text-white shadow-md hover:opacity-90",
}

var buttonSizes = map[ButtonSize]string{
	SizeDefault: "h-9 px-4 py-2",
	SizeSm:      "h-8 rounded-md px-3 text-xs",
	SizeLg:      "h-10 rounded-md px-8",
	SizeIcon:    "h-9 w-9",
}

// ButtonClasses computes the class string for a variant and size. Zero
// values mean the defaults; extra classes are appended verbatim. The
// computation is deterministic and independent of the host element.
func ButtonClasses(variant ButtonVariant, size ButtonSize, extra ...string) string {
	if variant == "" {
		variant = VariantDefault
	}
	if size == "" {
		size = SizeDefault
	}
	parts := []string{buttonBase, buttonVariants[variant], buttonSizes[size]}
	for _, class := range extra {
		if class = strings.TrimSpace(class); class != "" {
			parts = append(parts, class)
		}
	}
	return strings.Join(parts, " ")
}

// Element is a caller-supplied host element for asChild composition.
type Element struct {
	Tag   string
	Attrs map[string]string
	Body  template.HTML
}

// Button is the styled button widget.
type Button struct {
	Variant  ButtonVariant
	Size     ButtonSize
	Class    string // appended to the computed classes
	Label    string
	Type     string // defaults to "button"
	ID       string
	Disabled bool
	Attrs    map[string]string // extra native attributes

	// AsChild composes the computed classes onto Child instead of
	// rendering a <button> wrapper.
	AsChild bool
	Child   *Element
}

// Classes returns the button's computed class string.
func (b Button) Classes() string {
	return ButtonClasses(b.Variant, b.Size, b.Class)
}

// Render produces the button markup. With AsChild set and a child
// present, the child element is rendered carrying the computed classes
// and no wrapper is introduced.
func (b Button) Render() template.HTML {
	if b.AsChild && b.Child != nil {
		child := Element{Tag: b.Child.Tag, Body: b.Child.Body, Attrs: map[string]string{}}
		for k, v := range b.Child.Attrs {
			child.Attrs[k] = v
		}
		child.Attrs["class"] = joinClasses(b.Classes(), child.Attrs["class"])
		return renderElement(child)
	}

	attrs := map[string]string{
		"class": b.Classes(),
		"type":  defaultString(b.Type, "button"),
	}
	if b.ID != "" {
		attrs["id"] = b.ID
	}
	if b.Disabled {
		attrs["disabled"] = ""
	}
	for k, v := range b.Attrs {
		attrs[k] = v
	}
	return renderElement(Element{Tag: "button", Attrs: attrs, Body: template.HTML(template.HTMLEscapeString(b.Label))})
}

func joinClasses(computed, existing string) string {
	if existing == "" {
		return computed
	}
	return computed + " " + existing
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// renderElement writes an element with attributes in sorted order so
// output is deterministic.
func renderElement(e Element) template.HTML {
	names := make([]string, 0, len(e.Attrs))
	for name := range e.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(e.Tag)
	for _, name := range names {
		sb.WriteString(" ")
		sb.WriteString(name)
		if value := e.Attrs[name]; value != "" || !booleanAttr(name) {
			sb.WriteString(`="`)
			sb.WriteString(template.HTMLEscapeString(value))
			sb.WriteString(`"`)
		}
	}
	sb.WriteString(">")
	sb.WriteString(string(e.Body))
	if !voidElement(e.Tag) {
		sb.WriteString("</")
		sb.WriteString(e.Tag)
		sb.WriteString(">")
	}
	return template.HTML(sb.String())
}

func booleanAttr(name string) bool {
	switch name {
	case "disabled", "readonly", "required", "checked", "autofocus":
		return true
	}
	return false
}

func voidElement(tag string) bool {
	switch tag {
	case "input", "img", "br", "hr", "meta", "link":
		return true
	}
	return false
}

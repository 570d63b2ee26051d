// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"html/template"
	"strings"
	"testing"
)

func TestButtonClassesCoverAllVariantsAndSizes(t *testing.T) {
	variants := []ButtonVariant{
		VariantDefault, VariantDestructive, VariantOutline, VariantSecondary,
		VariantGhost, VariantLink, VariantPremium,
	}
	sizes := []ButtonSize{SizeDefault, SizeSm, SizeLg, SizeIcon}

	seen := map[string]bool{}
	for _, v := range variants {
		for _, s := range sizes {
			classes := ButtonClasses(v, s)
			if classes == "" {
				t.Errorf("empty classes for %s/%s", v, s)
			}
			if classes != ButtonClasses(v, s) {
				t.Errorf("non-deterministic classes for %s/%s", v, s)
			}
			if seen[classes] {
				t.Errorf("duplicate class string for %s/%s", v, s)
			}
			seen[classes] = true
		}
	}
}

func TestButtonClassesZeroValuesMeanDefaults(t *testing.T) {
	if ButtonClasses("", "") != ButtonClasses(VariantDefault, SizeDefault) {
		t.Error("zero values should equal explicit defaults")
	}
}

func TestButtonClassesAppendsExtras(t *testing.T) {
	classes := ButtonClasses(VariantGhost, SizeSm, "w-full", "  ")
	if !strings.HasSuffix(classes, " w-full") {
		t.Errorf("extra class not appended: %q", classes)
	}
}

func TestButtonRender(t *testing.T) {
	html := string(Button{Variant: VariantDestructive, Label: "Delete <all>"}.Render())

	if !strings.HasPrefix(html, "<button ") || !strings.HasSuffix(html, "</button>") {
		t.Fatalf("unexpected markup %q", html)
	}
	if !strings.Contains(html, `type="button"`) {
		t.Errorf("expected default type, got %q", html)
	}
	if !strings.Contains(html, "bg-destructive") {
		t.Errorf("variant classes missing: %q", html)
	}
	if !strings.Contains(html, "Delete &lt;all&gt;") {
		t.Errorf("label not escaped: %q", html)
	}
	if hasDisabledAttr(html) {
		t.Errorf("disabled rendered without being set: %q", html)
	}
}

// hasDisabledAttr distinguishes the disabled attribute from the
// disabled: pseudo-class prefixes inside the class value.
func hasDisabledAttr(html string) bool {
	return strings.Contains(html, " disabled ") || strings.Contains(html, " disabled>")
}

func TestButtonRenderDisabled(t *testing.T) {
	html := string(Button{Label: "Go", Disabled: true}.Render())
	if !hasDisabledAttr(html) {
		t.Errorf("expected disabled attribute, got %q", html)
	}
}

func TestButtonAsChildComposesOntoChild(t *testing.T) {
	b := Button{
		Variant: VariantLink,
		AsChild: true,
		Child: &Element{
			Tag:   "a",
			Attrs: map[string]string{"href": "/docs", "class": "mr-2"},
			Body:  template.HTML("Docs"),
		},
	}
	html := string(b.Render())

	if strings.Contains(html, "<button") {
		t.Fatalf("asChild must not introduce a wrapper: %q", html)
	}
	if !strings.HasPrefix(html, "<a ") || !strings.HasSuffix(html, "</a>") {
		t.Fatalf("expected anchor markup, got %q", html)
	}
	if !strings.Contains(html, "underline-offset-4") || !strings.Contains(html, "mr-2") {
		t.Errorf("expected composed classes, got %q", html)
	}
	if !strings.Contains(html, `href="/docs"`) {
		t.Errorf("child attributes lost: %q", html)
	}
	// The caller's element is left untouched.
	if b.Child.Attrs["class"] != "mr-2" {
		t.Errorf("child mutated: %q", b.Child.Attrs["class"])
	}
}

func TestInputRender(t *testing.T) {
	html := string(Input{
		Type:        "email",
		Name:        "address",
		Placeholder: "you@example.com",
		ID:          "signup-email",
		Attrs:       map[string]string{"autocomplete": "email"},
	}.Render())

	if !strings.HasPrefix(html, "<input ") || strings.Contains(html, "</input>") {
		t.Fatalf("unexpected markup %q", html)
	}
	for _, want := range []string{
		`type="email"`,
		`name="address"`,
		`id="signup-email"`,
		`autocomplete="email"`,
		"border-input",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in %q", want, html)
		}
	}
	if hasDisabledAttr(html) {
		t.Errorf("disabled rendered without being set: %q", html)
	}
}

func TestInputRenderDisabledOnlyWhenSet(t *testing.T) {
	enabled := string(Input{Name: "q"}.Render())
	disabled := string(Input{Name: "q", Disabled: true}.Render())

	if hasDisabledAttr(enabled) {
		t.Errorf("enabled input carries disabled: %q", enabled)
	}
	if !hasDisabledAttr(disabled) {
		t.Errorf("disabled input missing attribute: %q", disabled)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	b := Button{Variant: VariantPremium, Size: SizeLg, Label: "Upgrade"}
	if b.Render() != b.Render() {
		t.Error("button render not idempotent")
	}
	i := Input{Type: "search", Class: "w-64"}
	if i.Render() != i.Render() {
		t.Error("input render not idempotent")
	}
}

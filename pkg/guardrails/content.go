// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"regexp"
	"strings"
)

// ContentCategory names a class of disallowed request.
type ContentCategory string

const (
	CategoryDangerous ContentCategory = "dangerous"
	CategorySelfHarm  ContentCategory = "self_harm"
	CategoryIllegal   ContentCategory = "illegal"
	CategoryMalware   ContentCategory = "malware"
	CategoryPhishing  ContentCategory = "phishing"
)

type contentRule struct {
	patterns []*regexp.Regexp
	keywords []string
}

// English-only regex heuristics. These catch the blunt phrasings; they
// are not a classifier.
var contentRules = map[ContentCategory]contentRule{
	CategoryDangerous: {
		patterns: compilePatterns(
			`(?i)how\s+to\s+(make|build|create)\s+(a\s+)?(bomb|explosive|weapon)`,
			`(?i)synthesize\s+(drugs?|chemicals?)`,
		),
		keywords: []string{"ricin", "sarin", "weaponize"},
	},
	CategorySelfHarm: {
		patterns: compilePatterns(
			`(?i)how\s+to\s+(commit\s+)?suicide`,
			`(?i)methods?\s+of\s+self[- ]?harm`,
		),
	},
	CategoryIllegal: {
		patterns: compilePatterns(
			`(?i)how\s+to\s+hack\s+(into|someone)`,
			`(?i)crack\s+(password|software|license)`,
		),
	},
	CategoryMalware: {
		patterns: compilePatterns(
			`(?i)write\s+(a\s+)?(virus|malware|ransomware|trojan)`,
			`(?i)create\s+(a\s+)?(keylogger|botnet|rootkit)`,
		),
		keywords: []string{"reverse shell", "payload injection"},
	},
	CategoryPhishing: {
		patterns: compilePatterns(
			`(?i)create\s+(a\s+)?phishing\s+(page|email|site)`,
			`(?i)spoof\s+(email|website|identity)`,
		),
	},
}

// AllCategories lists every built-in content category.
func AllCategories() []ContentCategory {
	return []ContentCategory{
		CategoryDangerous, CategorySelfHarm, CategoryIllegal,
		CategoryMalware, CategoryPhishing,
	}
}

// ContentFilter blocks input matching the enabled categories.
type ContentFilter struct {
	categories []ContentCategory
}

// NewContentFilter enables the given categories, or all of them when
// none are named.
func NewContentFilter(categories ...ContentCategory) *ContentFilter {
	if len(categories) == 0 {
		categories = AllCategories()
	}
	return &ContentFilter{categories: categories}
}

func (f *ContentFilter) ID() string { return "content" }

func (f *ContentFilter) CheckInput(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}
	normalized := strings.ToLower(input)

	for _, cat := range f.categories {
		rule, ok := contentRules[cat]
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			return CheckResult{}
		default:
		}

		for _, pattern := range rule.patterns {
			if pattern.MatchString(normalized) {
				return CheckResult{
					Blocked:    true,
					Reason:     "content policy violation: " + string(cat),
					Confidence: 0.9,
				}
			}
		}
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return CheckResult{
					Blocked:    true,
					Reason:     "content policy violation: " + string(cat),
					Confidence: 0.8,
				}
			}
		}
	}
	return CheckResult{}
}

// Package orchestrator routes user messages: it classifies intent and
// either answers with the default assistant role or delegates to a
// specialist lead role.
package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
)

// Intent is the classified category of a user message.
type Intent string

const (
	IntentCasualChat     Intent = "casual_chat"
	IntentQuestion       Intent = "question"
	IntentOpinion        Intent = "opinion"
	IntentCodeTask       Intent = "code_task"
	IntentResearchTask   Intent = "research_task"
	IntentAutomationTask Intent = "automation_task"
	IntentUnknown        Intent = "unknown"
)

// ConfidenceThreshold is the minimum classification confidence at which
// a delegation-worthy intent is actually delegated.
const ConfidenceThreshold = 0.7

// delegationRoles maps delegating intents to the lead role that handles
// them. Direct intents have no entry.
var delegationRoles = map[Intent]string{
	IntentCodeTask:       "code_lead",
	IntentResearchTask:   "research_lead",
	IntentAutomationTask: "task_lead",
}

// Classification is the result of classifying one message.
type Classification struct {
	Intent     Intent
	Confidence float64
	TargetRole string // empty means handle directly
	Reasoning  string
	Keywords   []string
}

// ShouldDelegate reports whether the message belongs to a lead role.
func (c Classification) ShouldDelegate() bool {
	return c.TargetRole != ""
}

// Confident reports whether confidence clears the delegation threshold.
func (c Classification) Confident() bool {
	return c.Confidence >= ConfidenceThreshold
}

var casualPatterns = compileAll(
	`^(hi|hello|hey|howdy|greetings|sup|yo)[\s!.,?]*$`,
	`^good\s*(morning|afternoon|evening|night)[\s!.,?]*$`,
	`^(thanks|thank\s*you|thx|ty)[\s!.,?]*`,
	`^(bye|goodbye|see\s*you|later|cya)[\s!.,?]*$`,
	`^how\s*(are|r)\s*(you|u)[\s?]*$`,
	`^what'?s\s*up[\s?]*$`,
	`^(ok|okay|sure|alright|got\s*it|understood)[\s!.,?]*$`,
	`^(yes|no|yeah|nope|yep|nah)[\s!.,?]*$`,
	`^(nice|cool|awesome|great|perfect)[\s!.,?]*$`,
)

var questionPatterns = compileAll(
	`^what\s+(is|are|was|were|does|do)\s+`,
	`^how\s+(does|do|is|are|can|could|would)\s+`,
	`^why\s+(is|are|does|do|did|would|can)\s+`,
	`^when\s+(is|are|was|were|did|does)\s+`,
	`^where\s+(is|are|was|were|can|do)\s+`,
	`^who\s+(is|are|was|were)\s+`,
	`^can\s+you\s+(explain|tell|describe)\s+`,
	`^(explain|describe|define)\s+`,
	`^what'?s\s+the\s+(difference|meaning|definition)`,
)

var opinionPatterns = compileAll(
	`^what\s+(do\s+you\s+think|would\s+you\s+(suggest|recommend))`,
	`^(should|would)\s+(i|we)\s+`,
	`^(is\s+it|would\s+it\s+be)\s+(better|good|okay|wise)\s+to\s+`,
	`^(any\s+)?(suggestions?|recommendations?|advice|tips)\s+`,
	`^which\s+(one|option|approach)\s+(should|would|is)`,
	`^do\s+you\s+(think|recommend|suggest)\s+`,
	`^what'?s\s+(your|the\s+best)\s+(opinion|take|view)\s+`,
)

var codePatterns = compileAll(
	`\b(write|create|implement|build|make)\s+(a\s+)?(function|class|method|script|program|code|module)`,
	`\b(fix|debug|solve|resolve)\s+(this|the|my)?\s*(bug|error|issue|problem)`,
	`\b(refactor|optimize|improve|clean\s*up)\s+(this|the|my)?\s*(code|function|class)`,
	`\b(review|check|analyze)\s+(this|the|my)?\s*(code|implementation|pr|pull\s*request)`,
	`\b(add|implement)\s+(a\s+)?(feature|functionality|method|endpoint)`,
	`\b(convert|transform|migrate)\s+.*(to|from)\s+(python|javascript|typescript|rust|go)`,
	`\b(unit\s*)?test(s|ing)?\s+(for|the|this|my)`,
	"```[\\s\\S]*```",
	`\b(python|javascript|typescript|rust|go|java|c\+\+|ruby)\s+(code|function|script)`,
	`\b(api|endpoint|route|handler)\s+(for|to|that)`,
	`\bset\s*up\s+(a\s+)?(project|repo|environment|dev)`,
)

var researchPatterns = compileAll(
	`^research\s+`,
	`\b(research|investigate|look\s*into|find\s*out\s*about)\s+`,
	`\b(compare|comparison|versus|vs\.?)\s+`,
	`\b(analyze|analysis)\s+(of\s+)?`,
	`\b(what\s+are\s+the\s+)?(best\s+practices|trends|options)\s+(for|in)`,
	`\b(summarize|summary\s+of)\s+`,
	`\b(find|search\s+for)\s+(information|articles|papers|resources)\s+(on|about)`,
	`\bpros\s+and\s+cons\s+`,
	`\b(state\s+of\s+the\s+art|latest|current)\s+(in|for|on)\s+`,
	`\bcit(e|ation|ations)\s+`,
)

var automationPatterns = compileAll(
	`^run\s+(the\s+)?(tests?|build|script|command)`,
	`\b(execute|run)\s+(this|the|a)?\s*(command|script|shell)`,
	`\b(create|make|new)\s+(a\s+)?(folder|directory|file)`,
	`\b(delete|remove|rm)\s+(the\s+)?(file|folder|directory)`,
	`\b(move|copy|rename)\s+(the\s+)?(file|folder)`,
	`\b(install|uninstall|update)\s+(the\s+)?`,
	`\b(start|stop|restart)\s+(the\s+)?(server|service|process)`,
	`\b(deploy|push|pull)\s+(to|from)?\s*`,
	`\bgit\s+(commit|push|pull|merge|rebase|checkout|branch)`,
	`\b(npm|yarn|pip|cargo|brew)\s+(install|run|build)`,
	`\b(set\s*up|configure|initialize)\s+(the\s+)?(env|environment|database|db)`,
	`\b(clean|clear|reset)\s+(the\s+)?(cache|logs|build)`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Classifier classifies messages by regex pattern matching with a
// heuristic fallback. It holds no state and is safe for concurrent use.
type Classifier struct{}

// NewClassifier returns a pattern-based intent classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines the intent of a user message. Pattern groups are
// checked most-specific first so that "fix this bug" lands on code_task
// before the generic question heuristics see it.
func (c *Classifier) Classify(message string) Classification {
	message = strings.TrimSpace(message)
	if message == "" {
		return Classification{Intent: IntentUnknown, Reasoning: "empty message"}
	}

	checks := []struct {
		patterns []*regexp.Regexp
		intent   Intent
		accept   float64
	}{
		{codePatterns, IntentCodeTask, 0.7},
		{automationPatterns, IntentAutomationTask, 0.7},
		{researchPatterns, IntentResearchTask, 0.7},
		{casualPatterns, IntentCasualChat, 0.8},
		{opinionPatterns, IntentOpinion, 0.7},
		{questionPatterns, IntentQuestion, 0.6},
	}
	for _, check := range checks {
		if result, ok := matchPatterns(message, check.patterns, check.intent); ok && result.Confidence >= check.accept {
			return result
		}
	}
	return heuristicClassify(message)
}

// matchPatterns scores a message against one pattern group. Confidence
// grows with the number of matching patterns and shrinks for long
// messages, capped at 0.95.
func matchPatterns(message string, patterns []*regexp.Regexp, intent Intent) (Classification, bool) {
	var keywords []string
	for _, p := range patterns {
		if m := p.FindString(message); m != "" {
			keywords = append(keywords, m)
		}
	}
	if len(keywords) == 0 {
		return Classification{}, false
	}

	bonus := float64(len(keywords)) * 0.1
	if bonus > 0.3 {
		bonus = 0.3
	}
	lengthFactor := 0.8
	switch {
	case len(message) < 50:
		lengthFactor = 1.0
	case len(message) < 100:
		lengthFactor = 0.9
	}
	confidence := (0.6 + bonus) * lengthFactor
	if confidence > 0.95 {
		confidence = 0.95
	}

	shown := keywords
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return Classification{
		Intent:     intent,
		Confidence: confidence,
		TargetRole: delegationRoles[intent],
		Reasoning:  fmt.Sprintf("matched patterns: %v", shown),
		Keywords:   keywords,
	}, true
}

// heuristicClassify handles messages that match no pattern group.
func heuristicClassify(message string) Classification {
	lower := strings.ToLower(message)
	words := len(strings.Fields(message))

	if words <= 3 {
		return Classification{
			Intent:     IntentCasualChat,
			Confidence: 0.5,
			Reasoning:  "short message, likely casual",
		}
	}
	if strings.HasSuffix(strings.TrimSpace(message), "?") {
		return Classification{
			Intent:     IntentQuestion,
			Confidence: 0.6,
			Reasoning:  "message ends with question mark",
		}
	}
	if containsAny(lower, "code", "function", "bug", "error", "api", "database", "script") {
		return Classification{
			Intent:     IntentCodeTask,
			Confidence: 0.5,
			TargetRole: delegationRoles[IntentCodeTask],
			Reasoning:  "contains code-related keywords",
		}
	}
	if containsAny(lower, "research", "find out", "learn about", "information on") {
		return Classification{
			Intent:     IntentResearchTask,
			Confidence: 0.5,
			TargetRole: delegationRoles[IntentResearchTask],
			Reasoning:  "contains research keywords",
		}
	}
	if containsAny(lower, "run", "execute", "create folder", "delete", "install") {
		return Classification{
			Intent:     IntentAutomationTask,
			Confidence: 0.5,
			TargetRole: delegationRoles[IntentAutomationTask],
			Reasoning:  "contains automation keywords",
		}
	}
	return Classification{
		Intent:     IntentQuestion,
		Confidence: 0.4,
		Reasoning:  "default classification",
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

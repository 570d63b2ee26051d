// Package roles defines the role registry: named agent personas with
// declared tool capability sets and per-role memory category vocabularies.
package roles

// Tool identifiers must match the dispatch registry names exactly.
const (
	ToolExecuteCommand    = "execute_command"
	ToolBackgroundCommand = "background_command"
	ToolReadFile          = "read_file"
	ToolWriteFile         = "write_file"
	ToolListDirectory     = "list_directory"
	ToolGrep              = "grep"
	ToolGlob              = "glob"
	ToolWebSearch         = "web_search"
	ToolRemember          = "remember"
	ToolRecall            = "recall"
	ToolForget            = "forget"
	ToolListMemories      = "list_memories"
)

// toolVocabulary is the fixed global set of tool names a role may declare.
var toolVocabulary = map[string]bool{
	ToolExecuteCommand:    true,
	ToolBackgroundCommand: true,
	ToolReadFile:          true,
	ToolWriteFile:         true,
	ToolListDirectory:     true,
	ToolGrep:              true,
	ToolGlob:              true,
	ToolWebSearch:         true,
	ToolRemember:          true,
	ToolRecall:            true,
	ToolForget:            true,
	ToolListMemories:      true,
}

// Memory categories partition stored findings for later recall.
const (
	CategoryPreference  = "preference"
	CategoryFact        = "fact"
	CategoryCodePattern = "code_pattern"
	CategoryWorkflow    = "workflow"
	CategoryProject     = "project"
	CategoryGeneral     = "general"
)

// ToolVocabulary returns the fixed global tool vocabulary as a sorted-stable slice.
func ToolVocabulary() []string {
	return []string{
		ToolExecuteCommand,
		ToolBackgroundCommand,
		ToolReadFile,
		ToolWriteFile,
		ToolListDirectory,
		ToolGrep,
		ToolGlob,
		ToolWebSearch,
		ToolRemember,
		ToolRecall,
		ToolForget,
		ToolListMemories,
	}
}

// IsKnownTool reports whether name is part of the global tool vocabulary.
func IsKnownTool(name string) bool {
	return toolVocabulary[name]
}

// memoryTools is the full memory tool set granted to domain leads.
var memoryTools = []string{ToolRemember, ToolRecall, ToolForget, ToolListMemories}

// allCategories is the full memory category vocabulary.
var allCategories = []string{
	CategoryPreference,
	CategoryFact,
	CategoryCodePattern,
	CategoryWorkflow,
	CategoryProject,
	CategoryGeneral,
}

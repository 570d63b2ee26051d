package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log         LogConfig         `koanf:"log"`
	LLM         LLMConfig         `koanf:"llm"`
	Agent       AgentConfig       `koanf:"agent"`
	Guardrails  GuardrailsConfig  `koanf:"guardrails"`
	Roles       RolesConfig       `koanf:"roles"`
	Memory      MemoryConfig      `koanf:"memory"`
	Permissions PermissionsConfig `koanf:"permissions"`
	Search      SearchConfig      `koanf:"search"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Web         WebConfig         `koanf:"web"`
	Workspace   WorkspaceConfig   `koanf:"workspace"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider        string `koanf:"provider"` // ollama, mock
	Model           string `koanf:"model"`
	BaseURL         string `koanf:"base_url"`
	APIKey          string `koanf:"api_key"`
	FallbackBaseURL string `koanf:"fallback_base_url"` // secondary host tried when the primary fails
	RequestTimeout  int    `koanf:"request_timeout"`   // seconds per provider call, 0 disables
}

type AgentConfig struct {
	DefaultRole string `koanf:"default_role"`
	MaxTurns    int    `koanf:"max_turns"`
}

type RolesConfig struct {
	Dir string `koanf:"dir"` // directory of user-defined role files
}

type GuardrailsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Injection bool   `koanf:"injection"`
	Content   bool   `koanf:"content"`
	PIIMode   string `koanf:"pii_mode"` // mask, redact, hash, off
}

type MemoryConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Provider         string `koanf:"provider"` // inmemory, file, vector
	Path             string `koanf:"path"`
	QdrantAddr       string `koanf:"qdrant_addr"`
	Collection       string `koanf:"collection"`
	VectorSize       int    `koanf:"vector_size"` // embedding dimension, 768 for nomic-embed-text
	EmbedderProvider string `koanf:"embedder_provider"` // ollama
	EmbedderBaseURL  string `koanf:"embedder_base_url"`
	EmbedderModel    string `koanf:"embedder_model"`
}

type PermissionsConfig struct {
	Preset          string `koanf:"preset"` // strict, moderate, relaxed
	AuditPath       string `koanf:"audit_path"`
	ApprovalTimeout int    `koanf:"approval_timeout"` // seconds
}

type SearchConfig struct {
	Endpoint   string `koanf:"endpoint"`
	MaxResults int    `koanf:"max_results"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type WebConfig struct {
	Addr string `koanf:"addr"`
}

type WorkspaceConfig struct {
	Root string `koanf:"root"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithCLI loads configuration with additional key=value overrides,
// typically collected from repeated --config flags.
func LoadWithCLI(overrides []string) (*Config, error) {
	path := ""
	var kv []string
	for _, arg := range overrides {
		if strings.Contains(arg, "=") {
			kv = append(kv, arg)
		} else {
			path = arg
		}
	}
	return load(path, kv)
}

func load(path string, overrides []string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.base_url", "http://localhost:11434")
	k.Set("llm.fallback_base_url", "")
	k.Set("llm.request_timeout", 120)

	k.Set("agent.default_role", "emperor")
	k.Set("agent.max_turns", 10)

	k.Set("roles.dir", "")

	k.Set("guardrails.enabled", false)
	k.Set("guardrails.injection", true)
	k.Set("guardrails.content", true)
	k.Set("guardrails.pii_mode", "mask")

	k.Set("memory.enabled", true)
	k.Set("memory.provider", "file")
	k.Set("memory.path", "emperor_memory.jsonl")
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "emperor_memories")
	k.Set("memory.vector_size", 768)
	k.Set("memory.embedder_provider", "ollama")
	k.Set("memory.embedder_base_url", "http://localhost:11434")
	k.Set("memory.embedder_model", "nomic-embed-text")

	k.Set("permissions.preset", "moderate")
	k.Set("permissions.audit_path", "emperor_audit.db")
	k.Set("permissions.approval_timeout", 180)

	k.Set("search.endpoint", "")
	k.Set("search.max_results", 5)

	k.Set("telemetry.exporter", "stdout")

	k.Set("web.addr", ":8088")
	k.Set("workspace.root", ".")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (EMPEROR_LLM_PROVIDER -> llm.provider)
	if err := k.Load(env.Provider("EMPEROR_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "EMPEROR_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// 3. CLI key=value overrides win
	for _, kv := range overrides {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid config override %q, expected key=value", kv)
		}
		k.Set(parts[0], parts[1])
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/emperor-ai/emperor/pkg/agent"
	"github.com/emperor-ai/emperor/pkg/config"
	"github.com/emperor-ai/emperor/pkg/errors"
	"github.com/emperor-ai/emperor/pkg/guardrails"
	"github.com/emperor-ai/emperor/pkg/llm"
	"github.com/emperor-ai/emperor/pkg/memory"
	memollama "github.com/emperor-ai/emperor/pkg/memory/ollama"
	"github.com/emperor-ai/emperor/pkg/memory/qdrant"
	"github.com/emperor-ai/emperor/pkg/orchestrator"
	"github.com/emperor-ai/emperor/pkg/permissions"
	"github.com/emperor-ai/emperor/pkg/resilience"
	"github.com/emperor-ai/emperor/pkg/roles"
	"github.com/emperor-ai/emperor/pkg/tools"
)

// app holds the wired backend shared by the CLI subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	roles    *roles.Registry
	perms    *permissions.Manager
	audit    permissions.AuditStore
	provider llm.Provider
	store    memory.Store
	sessions memory.SessionStore

	vectorStore memory.VectorStore
	embedder    memory.Embedder

	closers []func() error
}

// newApp wires the backend from configuration. Interactive approval is
// only attached when the CLI runs on a terminal-ish stdin; MCP serving
// passes approve=false since stdio belongs to the protocol.
func newApp(cfg *config.Config, logger *slog.Logger, interactive bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	registry, err := roles.NewBuiltinRegistry()
	if err != nil {
		return nil, err
	}
	if cfg.Roles.Dir != "" {
		extra, err := roles.LoadDir(cfg.Roles.Dir)
		if err != nil {
			return nil, err
		}
		registry, err = registry.Merge(extra)
		if err != nil {
			return nil, err
		}
	}
	a.roles = registry

	a.audit = permissions.NoopAuditStore{}
	if cfg.Permissions.AuditPath != "" {
		store, err := permissions.OpenSQLiteAuditStore(cfg.Permissions.AuditPath)
		if err != nil {
			return nil, errors.New(errors.CodeInternal, "opening audit store", err)
		}
		a.audit = store
		a.closers = append(a.closers, store.Close)
	}

	permOpts := []permissions.ManagerOption{permissions.WithAuditStore(a.audit)}
	if interactive {
		permOpts = append(permOpts, permissions.WithApprovalFunc(terminalApproval))
	}
	if cfg.Permissions.ApprovalTimeout > 0 {
		permOpts = append(permOpts,
			permissions.WithApprovalTimeout(time.Duration(cfg.Permissions.ApprovalTimeout)*time.Second))
	}
	perms, err := permissions.NewManager(permissions.Preset(cfg.Permissions.Preset), permOpts...)
	if err != nil {
		return nil, err
	}
	a.perms = perms

	switch cfg.LLM.Provider {
	case "mock":
		a.provider = &llm.MockProvider{Response: "mock response"}
	default:
		var ollamaOpts []llm.OllamaOption
		if cfg.LLM.APIKey != "" {
			ollamaOpts = append(ollamaOpts, llm.WithAPIKey(cfg.LLM.APIKey))
		}
		primary := llm.NewOllama(cfg.LLM.BaseURL, ollamaOpts...)
		if cfg.LLM.FallbackBaseURL != "" {
			a.provider = llm.NewFallback(logger, primary,
				llm.NewOllama(cfg.LLM.FallbackBaseURL, ollamaOpts...))
		} else {
			a.provider = primary
		}
	}

	if cfg.Memory.Enabled {
		switch cfg.Memory.Provider {
		case "inmemory":
			a.store = memory.NewInMemory()
		case "vector":
			a.store = memory.NewFileStore(cfg.Memory.Path)
			vs, err := qdrant.New(cfg.Memory.QdrantAddr)
			if err != nil {
				return nil, errors.New(errors.CodeMemoryError, "connecting to qdrant", err)
			}
			ensureCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = vs.EnsureCollection(ensureCtx, cfg.Memory.Collection, uint64(cfg.Memory.VectorSize))
			cancel()
			if err != nil {
				_ = vs.Close()
				return nil, errors.New(errors.CodeMemoryError, "ensuring qdrant collection", err)
			}
			a.vectorStore = vs
			a.closers = append(a.closers, vs.Close)
			switch cfg.Memory.EmbedderProvider {
			case "", "ollama":
				a.embedder = memollama.NewEmbedder(cfg.Memory.EmbedderBaseURL, cfg.Memory.EmbedderModel)
			default:
				return nil, errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("unknown embedder provider %q", cfg.Memory.EmbedderProvider), nil)
			}
		default:
			a.store = memory.NewFileStore(cfg.Memory.Path)
		}
	}

	a.sessions = memory.NewInMemorySessions(0)
	return a, nil
}

func (a *app) Close() {
	for _, close := range a.closers {
		if err := close(); err != nil {
			a.logger.Warn("close failed", slog.Any("error", err))
		}
	}
}

// memoryService builds the role-scoped memory service, or nil when
// memory is disabled.
func (a *app) memoryService(role roles.Role) *memory.Service {
	if a.store == nil || len(role.MemoryCategories) == 0 {
		return nil
	}
	opts := []memory.ServiceOption{memory.WithServiceLogger(a.logger)}
	if a.vectorStore != nil && a.embedder != nil {
		opts = append(opts, memory.WithVectorIndex(a.vectorStore, a.embedder, a.cfg.Memory.Collection))
	}
	return memory.NewService(a.store, role.Name, role.MemoryCategories, opts...)
}

// toolRegistry builds the tool set for one role, including its memory
// tools.
func (a *app) toolRegistry(role roles.Role) (*tools.Registry, error) {
	ws, err := tools.NewWorkspace(a.cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}
	return tools.NewBuiltinRegistry(tools.BuiltinConfig{
		Workspace:      ws,
		SearchEndpoint: a.cfg.Search.Endpoint,
		SearchResults:  a.cfg.Search.MaxResults,
		Memory:         a.memoryService(role),
	}), nil
}

// agentFor builds a fully gated agent for the role.
func (a *app) agentFor(role roles.Role) (*agent.Agent, error) {
	registry, err := a.toolRegistry(role)
	if err != nil {
		return nil, err
	}
	dispatcher := tools.NewDispatcher(registry,
		tools.WithPermissions(a.perms),
		tools.WithDispatchLogger(a.logger))

	opts := []agent.Option{
		agent.WithModel(a.cfg.LLM.Model),
		agent.WithSessions(a.sessions),
		agent.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{Name: "llm"})),
		agent.WithLogger(a.logger),
	}
	if a.cfg.Agent.MaxTurns > 0 {
		opts = append(opts, agent.WithMaxTurns(a.cfg.Agent.MaxTurns))
	}
	if a.cfg.LLM.RequestTimeout > 0 {
		opts = append(opts, agent.WithCallTimeout(time.Duration(a.cfg.LLM.RequestTimeout)*time.Second))
	}
	return agent.New(role, a.provider, dispatcher, registry, opts...)
}

// newOrchestrator wires the intent router over agentFor.
func (a *app) newOrchestrator() (*orchestrator.Orchestrator, error) {
	return orchestrator.New(a.roles, a.agentFor,
		orchestrator.WithDefaultRole(a.cfg.Agent.DefaultRole),
		orchestrator.WithGuardrails(a.guardrailPipeline()),
		orchestrator.WithLogger(a.logger))
}

// guardrailPipeline builds the configured content screens, or nil when
// guardrails are off.
func (a *app) guardrailPipeline() *guardrails.Pipeline {
	if !a.cfg.Guardrails.Enabled {
		return nil
	}
	opts := []guardrails.Option{guardrails.WithPipelineLogger(a.logger)}
	if a.cfg.Guardrails.Injection {
		opts = append(opts, guardrails.WithChecker(guardrails.NewInjectionDetector()))
	}
	if a.cfg.Guardrails.Content {
		opts = append(opts, guardrails.WithChecker(guardrails.NewContentFilter()))
	}
	switch a.cfg.Guardrails.PIIMode {
	case "", "off":
	case "redact":
		opts = append(opts, guardrails.WithFilter(guardrails.NewPIIFilter(guardrails.PIIRedact)))
	case "hash":
		opts = append(opts, guardrails.WithFilter(guardrails.NewPIIFilter(guardrails.PIIHash)))
	default:
		opts = append(opts, guardrails.WithFilter(guardrails.NewPIIFilter(guardrails.PIIMask)))
	}
	return guardrails.New(opts...)
}

// terminalApproval asks the operator on stderr and reads y/n from
// stdin.
func terminalApproval(ctx context.Context, req permissions.ApprovalRequest) (bool, error) {
	fmt.Fprintf(os.Stderr, "\n[approval] agent %q wants to run %q (risk: %s). Allow? [y/N] ",
		req.Agent, req.Tool, req.Risk)

	answer := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		return line == "y" || line == "yes", nil
	}
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/emperor-ai/emperor/pkg/config"
	"github.com/emperor-ai/emperor/pkg/mcp"
	"github.com/emperor-ai/emperor/pkg/memory"
	"github.com/emperor-ai/emperor/pkg/permissions"
	"github.com/emperor-ai/emperor/pkg/tools"
)

func runRoles(global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	a, err := newApp(cfg, logger, false)
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		if global.JSON {
			out := make([]map[string]any, 0, a.roles.Len())
			for _, name := range a.roles.Names() {
				role, err := a.roles.Lookup(name)
				if err != nil {
					fatal(err)
				}
				out = append(out, map[string]any{
					"name":              role.Name,
					"kind":              role.Kind,
					"description":       role.Description,
					"capabilities":      sortedCopy(role.Capabilities),
					"memory_categories": sortedCopy(role.MemoryCategories),
				})
			}
			printJSON(out)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "NAME", "KIND", "TOOLS", "DESCRIPTION")
		for _, name := range a.roles.Names() {
			role, err := a.roles.Lookup(name)
			if err != nil {
				fatal(err)
			}
			writeRow(writer, role.Name, string(role.Kind),
				strconv.Itoa(len(role.Capabilities)), truncate(role.Description, 72))
		}
		writer.Flush()
	case "show":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: emperor roles show <name>"))
		}
		role, err := a.roles.Lookup(args[1])
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(map[string]any{
				"name":              role.Name,
				"kind":              role.Kind,
				"capabilities":      sortedCopy(role.Capabilities),
				"memory_categories": sortedCopy(role.MemoryCategories),
				"system_prompt":     role.SystemPrompt(),
			})
			return
		}
		fmt.Print(role.SystemPrompt())
	default:
		fatal(fmt.Errorf("unknown roles subcommand %q", sub))
	}
}

func runAsk(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	cmd := flag.NewFlagSet("ask", flag.ExitOnError)
	session := cmd.String("session", "", "session id for conversation history")
	classifyOnly := cmd.Bool("classify", false, "only print the intent classification")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}
	message := strings.TrimSpace(strings.Join(cmd.Args(), " "))
	if message == "" {
		fatal(fmt.Errorf("usage: emperor ask [--session id] <message>"))
	}

	a, err := newApp(cfg, logger, true)
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	orch, err := a.newOrchestrator()
	if err != nil {
		fatal(err)
	}

	if *classifyOnly {
		cls := orch.Classify(message)
		if global.JSON {
			printJSON(map[string]any{
				"intent":     cls.Intent,
				"confidence": cls.Confidence,
				"target":     cls.TargetRole,
				"reasoning":  cls.Reasoning,
			})
			return
		}
		fmt.Printf("intent: %s (confidence %.2f)\n", cls.Intent, cls.Confidence)
		if cls.TargetRole != "" {
			fmt.Printf("would delegate to: %s\n", cls.TargetRole)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	result, err := orch.Handle(ctx, *session, message)
	if err != nil {
		fatal(err)
	}
	if global.JSON {
		printJSON(map[string]any{
			"output":     result.Output,
			"role":       result.Role,
			"delegated":  result.Delegated,
			"intent":     result.Classification.Intent,
			"confidence": result.Classification.Confidence,
			"turns":      result.Turns,
			"tool_calls": result.ToolCalls,
			"tokens":     result.Usage.TotalTokens,
		})
		return
	}
	if result.Delegated {
		fmt.Printf("[%s] ", result.Role)
	}
	fmt.Println(result.Output)
}

func runRun(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	cmd := flag.NewFlagSet("run", flag.ExitOnError)
	roleName := cmd.String("role", "", "role to run")
	session := cmd.String("session", "", "session id for conversation history")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}
	message := strings.TrimSpace(strings.Join(cmd.Args(), " "))
	if *roleName == "" || message == "" {
		fatal(fmt.Errorf("usage: emperor run --role <name> <message>"))
	}

	a, err := newApp(cfg, logger, true)
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	role, err := a.roles.Lookup(*roleName)
	if err != nil {
		fatal(err)
	}
	ag, err := a.agentFor(role)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	result, err := ag.RunDetailed(ctx, *session, message)
	if err != nil {
		fatal(err)
	}
	if global.JSON {
		printJSON(map[string]any{
			"output":     result.Output,
			"role":       role.Name,
			"turns":      result.Turns,
			"tool_calls": result.ToolCalls,
			"tokens":     result.Usage.TotalTokens,
		})
		return
	}
	fmt.Println(result.Output)
}

func runMemory(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: emperor memory <add|search|list|forget> ..."))
	}
	sub := args[0]

	cmd := flag.NewFlagSet("memory "+sub, flag.ExitOnError)
	roleName := cmd.String("role", "", "role whose memory to use (default: config default role)")
	category := cmd.String("category", "", "memory category")
	contextNote := cmd.String("context", "", "context note stored with the memory")
	limit := cmd.Int("limit", 10, "max results")
	if err := cmd.Parse(args[1:]); err != nil {
		fatal(err)
	}

	a, err := newApp(cfg, logger, false)
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	name := *roleName
	if name == "" {
		name = cfg.Agent.DefaultRole
	}
	role, err := a.roles.Lookup(name)
	if err != nil {
		fatal(err)
	}
	svc := a.memoryService(role)
	if svc == nil {
		fatal(fmt.Errorf("memory is disabled or role %q has no memory categories", name))
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	switch sub {
	case "add":
		content := strings.TrimSpace(strings.Join(cmd.Args(), " "))
		if *category == "" || content == "" {
			fatal(fmt.Errorf("usage: emperor memory add --category <c> [--context <x>] <content>"))
		}
		rec, err := svc.Remember(ctx, *category, *contextNote, content)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(rec)
			return
		}
		fmt.Printf("remembered %s (%s)\n", rec.ID, rec.Category)
	case "search":
		query := strings.TrimSpace(strings.Join(cmd.Args(), " "))
		if query == "" {
			fatal(fmt.Errorf("usage: emperor memory search [--category <c>] <query>"))
		}
		records, err := svc.Recall(ctx, query, *category, *limit)
		if err != nil {
			fatal(err)
		}
		printRecords(global, records)
	case "list":
		records, err := svc.List(ctx, *category, *limit)
		if err != nil {
			fatal(err)
		}
		printRecords(global, records)
	case "forget":
		if len(cmd.Args()) != 1 {
			fatal(fmt.Errorf("usage: emperor memory forget <id>"))
		}
		if err := svc.Forget(ctx, cmd.Args()[0]); err != nil {
			fatal(err)
		}
		fmt.Println("forgotten")
	default:
		fatal(fmt.Errorf("unknown memory subcommand %q", sub))
	}
}

func runAudit(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: emperor audit <list|stats> ..."))
	}
	sub := args[0]

	cmd := flag.NewFlagSet("audit "+sub, flag.ExitOnError)
	agentFilter := cmd.String("agent", "", "filter by agent")
	toolFilter := cmd.String("tool", "", "filter by tool")
	limit := cmd.Int("limit", 50, "max entries")
	if err := cmd.Parse(args[1:]); err != nil {
		fatal(err)
	}

	if cfg.Permissions.AuditPath == "" {
		fatal(fmt.Errorf("no audit store configured (permissions.audit_path)"))
	}
	store, err := permissions.OpenSQLiteAuditStore(cfg.Permissions.AuditPath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	switch sub {
	case "list":
		entries, err := store.List(ctx, permissions.AuditFilter{
			Agent: *agentFilter,
			Tool:  *toolFilter,
			Limit: *limit,
		})
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(entries)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "TIME", "AGENT", "TOOL", "ACTION", "RISK", "REASON")
		for _, entry := range entries {
			writeRow(writer, formatAge(entry.CreatedAt), entry.Agent, entry.Tool,
				string(entry.Action), string(entry.Risk), truncate(entry.Reason, 48))
		}
		writer.Flush()
	case "stats":
		stats, err := store.Stats(ctx)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(stats)
			return
		}
		fmt.Printf("total: %d\n", stats.Total)
		writer := newTabWriter()
		for _, action := range []permissions.AuditAction{
			permissions.AuditToolExecuted,
			permissions.AuditToolDenied,
			permissions.AuditApprovalRequested,
			permissions.AuditApprovalGranted,
			permissions.AuditApprovalDenied,
			permissions.AuditApprovalTimeout,
		} {
			if count, ok := stats.ByAction[action]; ok {
				writeRow(writer, string(action), strconv.Itoa(count))
			}
		}
		writer.Flush()
	default:
		fatal(fmt.Errorf("unknown audit subcommand %q", sub))
	}
}

func runMCP(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: emperor mcp <serve|tools> ..."))
	}
	switch args[0] {
	case "serve":
		runMCPServe(cfg, logger, args[1:])
	case "tools":
		runMCPTools(ctx, global, args[1:])
	default:
		fatal(fmt.Errorf("unknown mcp subcommand %q", args[0]))
	}
}

// runMCPTools connects to a remote MCP server over stdio and lists the
// tools it exposes.
func runMCPTools(ctx context.Context, global globalFlags, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: emperor mcp tools <command> [args...]"))
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	client, err := mcp.NewStdioClient(ctx, args[0], args[1:])
	if err != nil {
		fatal(err)
	}
	defer client.Close()

	registry := tools.NewRegistry()
	names, err := mcp.Mount(ctx, registry, client)
	if err != nil {
		fatal(err)
	}
	if global.JSON {
		printJSON(names)
		return
	}
	writer := newTabWriter()
	writeRow(writer, "NAME", "DESCRIPTION")
	for _, name := range names {
		tool, ok := registry.Get(name)
		if !ok {
			continue
		}
		def := tool.Definition()
		writeRow(writer, def.Name, truncate(def.Description, 72))
	}
	writer.Flush()
}

func runMCPServe(cfg *config.Config, logger *slog.Logger, args []string) {
	cmd := flag.NewFlagSet("mcp serve", flag.ExitOnError)
	roleName := cmd.String("role", "", "role whose tools to expose (default: config default role)")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	// Stdio belongs to the protocol, so no interactive approval here.
	a, err := newApp(cfg, logger, false)
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	name := *roleName
	if name == "" {
		name = cfg.Agent.DefaultRole
	}
	role, err := a.roles.Lookup(name)
	if err != nil {
		fatal(err)
	}
	registry, err := a.toolRegistry(role)
	if err != nil {
		fatal(err)
	}
	dispatcher := tools.NewDispatcher(registry,
		tools.WithPermissions(a.perms),
		tools.WithDispatchLogger(logger))

	server, err := mcp.NewServer("emperor", version, role, dispatcher, registry, logger)
	if err != nil {
		fatal(err)
	}
	if err := server.ServeStdio(); err != nil {
		fatal(err)
	}
}

func printRecords(global globalFlags, records []memory.Record) {
	if global.JSON {
		printJSON(records)
		return
	}
	if len(records) == 0 {
		fmt.Println("no memories")
		return
	}
	writer := newTabWriter()
	writeRow(writer, "ID", "CATEGORY", "CONTENT", "CREATED")
	for _, rec := range records {
		writeRow(writer, rec.ID, rec.Category, truncate(rec.Content, 64), formatAge(rec.CreatedAt))
	}
	writer.Flush()
}

// Command emperor is the CLI for the Emperor assistant backend: role
// inspection, one-shot asks with intent routing, direct role runs,
// memory management, permission audit, MCP serving, and the widget demo
// page.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/emperor-ai/emperor/pkg/config"
	"github.com/emperor-ai/emperor/pkg/telemetry"
)

const version = "0.1.0"

type globalFlags struct {
	ConfigArgs []string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.LoadWithCLI(global.ConfigArgs)
	if err != nil {
		fatal(err)
	}
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.InitWithConfig("emperor", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	switch cmd := args[0]; cmd {
	case "roles":
		runRoles(global, cfg, logger, args[1:])
	case "ask":
		runAsk(ctx, global, cfg, logger, args[1:])
	case "run":
		runRun(ctx, global, cfg, logger, args[1:])
	case "memory":
		runMemory(ctx, global, cfg, logger, args[1:])
	case "audit":
		runAudit(ctx, global, cfg, logger, args[1:])
	case "mcp":
		runMCP(ctx, global, cfg, logger, args[1:])
	case "web":
		runWeb(ctx, global, cfg, logger, args[1:])
	case "version":
		fmt.Println(version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", cmd))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{Timeout: 2 * time.Minute}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, args[i+1])
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigArgs = append(flags.ConfigArgs, strings.TrimPrefix(arg, "--config="))
		case arg == "--set":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --set")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, args[i+1])
			i++
		case strings.HasPrefix(arg, "--set="):
			flags.ConfigArgs = append(flags.ConfigArgs, strings.TrimPrefix(arg, "--set="))
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			col = "-"
		}
		cols[i] = strings.Join(strings.Fields(col), " ")
	}
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`Emperor CLI

Usage:
  emperor [global flags] <command> [args]

Global flags:
  --config <path>      Path to config file (YAML)
  --set key=value      Override config (repeatable)
  --timeout <dur>      Command timeout (default 2m)
  --json               JSON output

Commands:
  roles list                        List registered roles
  roles show <name>                 Show a role's system prompt
  ask [--session id] <message>      Classify, route, and run a message
  ask --classify <message>          Show the intent classification only
  run --role <name> <message>       Run one role directly
  memory add --category <c> [--context <x>] <content>
  memory search [--category <c>] [--limit N] <query>
  memory list [--category <c>] [--limit N]
  memory forget <id>
  audit list [--agent a] [--tool t] [--limit N]
  audit stats
  mcp serve [--role <name>]         Serve a role's tools over MCP stdio
  mcp tools <command> [args...]     List tools exposed by a remote MCP server
  web [--addr <addr>]               Widget demo page
  version
  help`)
}

package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emperor-ai/emperor/pkg/config"
	"github.com/emperor-ai/emperor/pkg/ui"
)

//go:embed web/templates/*.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/templates/index.html"))

type variantRow struct {
	Name    string
	Buttons []template.HTML
}

type galleryData struct {
	Title          string
	VariantRows    []variantRow
	AsChildExample template.HTML
	Inputs         []template.HTML
	SubmitButton   template.HTML
}

func runWeb(ctx context.Context, global globalFlags, cfg *config.Config, logger *slog.Logger, args []string) {
	cmd := flag.NewFlagSet("web", flag.ExitOnError)
	addr := cmd.String("addr", cfg.Web.Addr, "listen address")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	// Long-running command, so config edits are picked up live.
	reloadable := config.NewReloadableConfig(cfg)
	if path := configFilePath(global.ConfigArgs); path != "" {
		watcher, err := config.NewWatcher([]string{path}, config.WithWatchLogger(logger))
		if err != nil {
			fatal(err)
		}
		watcher.OnChange(reloadable.Update)
		go watcher.Watch(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleGallery)
	mux.HandleFunc("/echo", handleEcho)
	mux.HandleFunc("/healthz", handleHealth(reloadable))

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("web server listening", slog.String("addr", *addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal(err)
	}
}

func handleGallery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	variants := []ui.ButtonVariant{
		ui.VariantDefault, ui.VariantDestructive, ui.VariantOutline,
		ui.VariantSecondary, ui.VariantGhost, ui.VariantLink, ui.VariantPremium,
	}
	sizes := []ui.ButtonSize{ui.SizeDefault, ui.SizeSm, ui.SizeLg, ui.SizeIcon}

	data := galleryData{Title: "Emperor Widgets"}
	for _, v := range variants {
		row := variantRow{Name: string(v)}
		for _, s := range sizes {
			label := string(v)
			if s == ui.SizeIcon {
				label = "+"
			}
			row.Buttons = append(row.Buttons, ui.Button{Variant: v, Size: s, Label: label}.Render())
		}
		data.VariantRows = append(data.VariantRows, row)
	}

	data.AsChildExample = ui.Button{
		Variant: ui.VariantOutline,
		AsChild: true,
		Child: &ui.Element{
			Tag:   "a",
			Attrs: map[string]string{"href": "https://modelcontextprotocol.io"},
			Body:  template.HTML("Styled link, no wrapper"),
		},
	}.Render()

	data.Inputs = []template.HTML{
		ui.Input{Type: "text", Name: "name", Placeholder: "Your name", ID: "demo-name"}.Render(),
		ui.Input{Type: "email", Name: "email", Placeholder: "you@example.com", ID: "demo-email"}.Render(),
		ui.Input{Type: "password", Name: "secret", Placeholder: "Password", ID: "demo-secret"}.Render(),
		ui.Input{Type: "text", Name: "frozen", Value: "read only here", Disabled: true}.Render(),
	}
	data.SubmitButton = ui.Button{Variant: ui.VariantPremium, Label: "Submit", Type: "submit"}.Render()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// configFilePath returns the config file among the CLI config args, if
// one was given; key=value overrides are not watchable.
func configFilePath(configArgs []string) string {
	for _, arg := range configArgs {
		if !strings.Contains(arg, "=") {
			return arg
		}
	}
	return ""
}

// handleHealth reports liveness along with the live LLM wiring, so a
// config reload is observable without restarting the server.
func handleHealth(reloadable *config.ReloadableConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		llmCfg := reloadable.LLM()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"provider":  llmCfg.Provider,
			"model":     llmCfg.Model,
			"log_level": reloadable.Log().Level,
		})
	}
}

// handleEcho receives the demo form and reflects the values back.
func handleEcho(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, key := range []string{"name", "email"} {
		fmt.Fprintf(w, "%s: %s\n", key, r.PostFormValue(key))
	}
}

// Package app wires the server components together and owns their
// lifecycle: store, model client, orchestrator, HTTP server and the
// reports scheduler.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"helpdesk/pkg/config"
	"helpdesk/pkg/conversation"
	"helpdesk/pkg/escalation"
	"helpdesk/pkg/llm"
	"helpdesk/pkg/logger"
	"helpdesk/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg       *config.Config
	addr      string
	dbPath    string
	version   string
	commit    string
	buildDate string

	orch          *conversation.Orchestrator
	esc           *escalation.Service
	llmConfigured bool

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// store, the model client and the turn orchestrator. Call Run to start
// the HTTP server and block until shutdown.
func New(cfg *config.Config, addr, dbPath, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if dbPath == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := store.Open(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}

	llmEnv, err := config.LoadLLMEnv()
	if err != nil {
		return nil, fmt.Errorf("load llm env: %w", err)
	}
	if llmEnv.APIKey == "" {
		logger.Warn("llm_api_key_missing", "hint", "set HELPDESK_OPENAI_API_KEY; replies will degrade")
	}
	client := llm.NewOpenAI(llmEnv.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.SummaryModel)

	esc := escalation.NewService()
	a := &App{
		cfg:       cfg,
		addr:      addr,
		dbPath:    dbPath,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		orch:          conversation.New(client, esc),
		esc:           esc,
		llmConfigured: llmEnv.APIKey != "",
	}
	return a, nil
}

// Orchestrator exposes the turn orchestrator, mainly for tests.
func (a *App) Orchestrator() *conversation.Orchestrator { return a.orch }

// Run starts the reports scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	stopReports, err := a.startReports(ctx)
	if err != nil {
		return err
	}
	defer stopReports()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		return err
	}
}

func (a *App) shutdown() error {
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Warn("http_shutdown_error", "error", err)
		}
	}
	return store.Close()
}

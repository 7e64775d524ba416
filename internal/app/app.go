// Package app wires the service's components together from configuration,
// keeping construction out of main().
package app

import (
	"context"
	"fmt"
	"log/slog"

	"insightd/internal/analytics"
	"insightd/internal/config"
	"insightd/internal/fusion"
	"insightd/internal/llm"
	"insightd/internal/orchestrator"
	"insightd/internal/planner"
	"insightd/internal/seocache"
	"insightd/internal/seoquery"
	"insightd/internal/sheets"
	"insightd/internal/summary"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// App holds the fully wired application.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Cache        *seocache.Cache
	Refresher    *seocache.Refresher // nil when no schedule configured
}

// New builds the language-model client, the dataset loader and cache, both
// planner/executor pipelines, and the orchestrator on top. Missing
// credentials degrade the affected pipeline instead of failing startup;
// config.LoadFromEnv has already emitted warnings for them.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	// === Language model ===
	var model llm.Client = llm.Disabled{}
	if cfg.GeminiAPIKey != "" {
		gem, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			CallTimeout: cfg.LLMTimeout,
			Logger:      logger.With("component", "llm"),
		})
		if err != nil {
			return nil, fmt.Errorf("create model client: %w", err)
		}
		model = gem
	}

	// === SEO dataset loader and cache ===
	loader, err := buildLoader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	cache := seocache.New(loader, cfg.SnapshotTTL, logger.With("component", "seocache"))

	var refresher *seocache.Refresher
	if cfg.RefreshSchedule != "" {
		refresher, err = seocache.NewRefresher(cache, cfg.RefreshSchedule, logger.With("component", "refresher"))
		if err != nil {
			return nil, fmt.Errorf("invalid SNAPSHOT_REFRESH_CRON: %w", err)
		}
	}

	// === Analytics pipeline ===
	var reportAPI analytics.ReportAPI
	if cfg.CredentialsFile != "" {
		reportAPI, err = analytics.NewGoogleReportAPI(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("create analytics client: %w", err)
		}
	} else {
		reportAPI = unavailableReportAPI{}
	}

	orch := orchestrator.New(orchestrator.Deps{
		AnalyticsPlanner:  planner.NewAnalyticsPlanner(model, logger.With("component", "analytics-planner")),
		TabularPlanner:    planner.NewTabularPlanner(model, logger.With("component", "tabular-planner")),
		AnalyticsExecutor: analytics.NewExecutor(reportAPI, logger.With("component", "analytics-executor")),
		TabularExecutor:   seoquery.NewExecutor(logger.With("component", "seo-executor")),
		Snapshots:         cache,
		Fuser:             fusion.NewFuser(logger.With("component", "fusion")),
		Summarizer:        summary.NewLLMSummarizer(model, logger),
		Logger:            logger,
		BackendTimeout:    cfg.BackendTimeout,
	})

	return &App{Orchestrator: orch, Cache: cache, Refresher: refresher}, nil
}

// buildLoader picks the Sheets API loader when credentials and a
// spreadsheet are configured, falling back to the published-CSV export,
// and to an always-failing loader when neither source exists.
func buildLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (seocache.Loader, error) {
	if cfg.SpreadsheetURL != "" && cfg.CredentialsFile != "" {
		client, err := sheets.NewClient(ctx, cfg.CredentialsFile, cfg.SpreadsheetURL, cfg.SheetName, logger.With("component", "sheets"))
		if err != nil {
			return nil, fmt.Errorf("create sheets client: %w", err)
		}
		return client, nil
	}
	if cfg.CSVExportURL != "" {
		return sheets.NewCSVClient(cfg.CSVExportURL, cfg.BackendTimeout, logger.With("component", "sheets-csv")), nil
	}
	return unavailableLoader{}, nil
}

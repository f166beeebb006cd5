package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/productpraat/productpraat/internal/affiliate"
	"github.com/productpraat/productpraat/internal/automation"
	"github.com/productpraat/productpraat/internal/config"
	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/llm"
	"github.com/productpraat/productpraat/internal/models"
	"github.com/productpraat/productpraat/internal/monitor"
	"github.com/productpraat/productpraat/internal/queue"
	"github.com/productpraat/productpraat/internal/ratelimit"
	"github.com/productpraat/productpraat/internal/scraper"
)

// agent runs a single automation job from the command line, bypassing the
// scheduler. Meant for cron setups and manual reruns.
func main() {
	kind := flag.String("kind", "", "job to run: discover, generate, link_check or commission_sync")
	categories := flag.String("categories", "", "comma separated categories (discover only)")
	limit := flag.Int("limit", 0, "max items to process, 0 uses the configured default")
	force := flag.Bool("force", false, "run even when the job is disabled in the automation config")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall job timeout")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*kind, *categories, *limit, *force, *timeout, logger); err != nil {
		logger.Error("job failed", "error", err)
		os.Exit(1)
	}
}

func run(kind, categories string, limit int, force bool, timeout time.Duration, logger *slog.Logger) error {
	switch kind {
	case automation.KindDiscover, automation.KindGenerate, automation.KindLinkCheck, automation.KindCommissionSync:
	default:
		return fmt.Errorf("unknown job kind %q", kind)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := database.MigrateUp(cfg.Database.DSN()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.New(ctx, database.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	configSvc := automation.NewConfigService(db, "data/automation_config.json", logger)
	settings, err := configSvc.Load(ctx)
	if err != nil {
		return err
	}

	if !force && !jobEnabled(kind, settings) {
		return fmt.Errorf("job %s is disabled, use -force to run anyway", kind)
	}

	fetcher := scraper.NewFetcher(scraper.FetcherOptions{
		Timeout:       cfg.Scraper.Timeout,
		UserAgents:    cfg.Scraper.UserAgents,
		ProxyPrefixes: cfg.Scraper.ProxyPrefixes,
	}, logger)
	scraperSvc := scraper.NewService(fetcher, nil, logger)

	llmClient := llm.NewClient(llm.ClientOptions{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	reviewer := llm.NewReviewer(llmClient, llm.NewRouter(cfg.LLM.DefaultModel, cfg.LLM.FastModel), logger)

	bolClient := affiliate.NewBolClient(cfg.Affiliate.BolClientID, cfg.Affiliate.BolClientSecret, 15*time.Second)
	linkGen := affiliate.NewGenerator(cfg.Affiliate)

	outbox := database.NewOutboxRepository(db)
	limiter := ratelimit.NewAdaptiveRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	pipeline := automation.NewPipeline(db, outbox, scraperSvc, bolClient, reviewer, linkGen, limiter,
		queue.NewInMemoryQueue(), logger)

	run := &models.Run{
		Kind:   kind,
		Limit:  limit,
		Status: models.RunStatusRunning,
	}
	if categories != "" {
		run.Categories = strings.Split(categories, ",")
	}
	if err := db.InsertRun(ctx, run); err != nil {
		return err
	}

	switch kind {
	case automation.KindDiscover:
		err = pipeline.Discover(ctx, run, settings)
	case automation.KindGenerate:
		err = pipeline.Generate(ctx, run, settings)
	case automation.KindLinkCheck:
		linkMonitor := monitor.NewLinkMonitor(db, fetcher,
			cfg.Monitor.LinkCheckBatchSize, cfg.Monitor.LinkCheckPause, cfg.Monitor.LinkFailThreshold, logger)
		err = linkMonitor.CheckLinks(ctx, run)
	case automation.KindCommissionSync:
		commissionMonitor := monitor.NewCommissionMonitor(db,
			monitor.Sources(bolClient, []string{"tradetracker", "daisycon", "awin", "paypro", "plugpay"}), logger)
		err = commissionMonitor.Sync(ctx, run)
	}

	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}
	if finishErr := db.FinishRun(ctx, run); finishErr != nil {
		logger.Error("failed to record run outcome", "error", finishErr)
	}

	logger.Info("job finished",
		"kind", kind,
		"status", run.Status,
		"products_found", run.ProductsFound,
		"products_new", run.ProductsNew,
		"articles_generated", run.ArticlesGenerated,
		"items_failed", run.ItemsFailed)

	return err
}

func jobEnabled(kind string, settings *automation.Settings) bool {
	switch kind {
	case automation.KindDiscover:
		return settings.Discovery.Enabled
	case automation.KindGenerate:
		return settings.Content.Enabled
	case automation.KindLinkCheck:
		return settings.LinkCheck.Enabled
	case automation.KindCommissionSync:
		return settings.CommissionSync.Enabled
	}
	return false
}

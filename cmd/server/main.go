package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/productpraat/productpraat/internal/affiliate"
	"github.com/productpraat/productpraat/internal/api"
	"github.com/productpraat/productpraat/internal/automation"
	"github.com/productpraat/productpraat/internal/browser"
	"github.com/productpraat/productpraat/internal/config"
	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/llm"
	"github.com/productpraat/productpraat/internal/monitor"
	"github.com/productpraat/productpraat/internal/queue"
	"github.com/productpraat/productpraat/internal/ratelimit"
	"github.com/productpraat/productpraat/internal/scraper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.MigrateUp(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, database.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	relay := database.NewRelay(db, redisClient, logger, database.RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("relay stopped with error", "error", err)
		}
	}()

	// Scraping stack. The browser is optional; without it blocked pages
	// simply fail instead of falling back to a rendered fetch.
	fetcher := scraper.NewFetcher(scraper.FetcherOptions{
		Timeout:       cfg.Scraper.Timeout,
		UserAgents:    cfg.Scraper.UserAgents,
		ProxyPrefixes: cfg.Scraper.ProxyPrefixes,
	}, logger)

	var renderer scraper.Renderer
	if cfg.Scraper.BrowserEnabled {
		opts := browser.DefaultOptions()
		opts.Headless = cfg.Scraper.Headless
		opts.Timeout = cfg.Scraper.Timeout
		b, err := browser.New(opts)
		if err != nil {
			logger.Error("failed to start browser, continuing without", "error", err)
		} else {
			defer b.Close()
			renderer = b
		}
	}
	scraperSvc := scraper.NewService(fetcher, renderer, logger)

	// Content stack.
	llmClient := llm.NewClient(llm.ClientOptions{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	router := llm.NewRouter(cfg.LLM.DefaultModel, cfg.LLM.FastModel)
	reviewer := llm.NewReviewer(llmClient, router, logger)

	// Affiliate stack.
	bolClient := affiliate.NewBolClient(cfg.Affiliate.BolClientID, cfg.Affiliate.BolClientSecret, 15*time.Second)
	linkGen := affiliate.NewGenerator(cfg.Affiliate)

	// Automation.
	outbox := database.NewOutboxRepository(db)
	limiter := ratelimit.NewAdaptiveRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	imports := queue.NewInMemoryQueue()
	configSvc := automation.NewConfigService(db, "data/automation_config.json", logger)
	if _, err := configSvc.Load(ctx); err != nil {
		logger.Error("failed to load automation config", "error", err)
		os.Exit(1)
	}

	pipeline := automation.NewPipeline(db, outbox, scraperSvc, bolClient, reviewer, linkGen, limiter, imports, logger)
	go pipeline.RunImportWorker(ctx)

	linkMonitor := monitor.NewLinkMonitor(db, fetcher,
		cfg.Monitor.LinkCheckBatchSize, cfg.Monitor.LinkCheckPause, cfg.Monitor.LinkFailThreshold, logger)
	commissionMonitor := monitor.NewCommissionMonitor(db,
		monitor.Sources(bolClient, []string{"tradetracker", "daisycon", "awin", "paypro", "plugpay"}), logger)

	runner := automation.NewRunner(db, configSvc, pipeline, linkMonitor, commissionMonitor, logger)
	go runner.Start(ctx)

	dispatcher := monitor.NewAlertDispatcher(db, monitor.NewLogNotifier(logger), 5*time.Minute, logger)
	go dispatcher.Start(ctx)

	handlers := api.NewHandlers(db, configSvc, pipeline, logger)
	mux := api.NewRouter(handlers, relay, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		pipeline.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

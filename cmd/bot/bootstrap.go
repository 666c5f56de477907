package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/shashwatraajsingh/TRADEETH/internal/config"
	"github.com/shashwatraajsingh/TRADEETH/internal/ledger"
	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/monitor"
	"github.com/shashwatraajsingh/TRADEETH/internal/monitor/monitorobs"
	"github.com/shashwatraajsingh/TRADEETH/internal/price"
	"github.com/shashwatraajsingh/TRADEETH/internal/pricefeed"
	"github.com/shashwatraajsingh/TRADEETH/internal/store"
	"github.com/shashwatraajsingh/TRADEETH/internal/telegram"
	"github.com/shashwatraajsingh/TRADEETH/internal/trace"
)

// initializeSystem initializes environment, logger, and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*config.Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.LoadConfig(path)
	if os.IsNotExist(err) {
		logger.Info(ctx, "No config file found, using defaults", "path", path)
		return config.Default(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeJournal points the trade journal at its directory and
// compresses files past the retention window.
func initializeJournal(ctx context.Context, cfg *config.Config) {
	ledger.SetJournalDir(cfg.Journal.Dir)
	if cfg.Journal.RetentionDays > 0 {
		if err := ledger.CompressOlder(cfg.Journal.RetentionDays); err != nil {
			logger.Warn(ctx, "Failed to compress old journals", "error", err)
		}
	}
}

// initializeOracle builds the price oracle over the API feed with the
// page scraper as fallback.
func initializeOracle(ctx context.Context, cfg *config.Config) *price.Oracle {
	feeds := pricefeed.NewChain(
		pricefeed.NewCoinGecko(cfg.Price.APIBaseURL, 10*time.Second),
		pricefeed.NewScraper(15*time.Second),
	)
	logger.Info(ctx, "Price oracle configured",
		"api_base", cfg.Price.APIBaseURL,
		"cache_ttl_s", cfg.Price.CacheTTLSeconds,
		"min_interval_s", cfg.Price.MinIntervalSeconds)

	return price.NewOracle(feeds, price.Options{
		TTL:         time.Duration(cfg.Price.CacheTTLSeconds) * time.Second,
		MinInterval: time.Duration(cfg.Price.MinIntervalSeconds) * time.Second,
		FallbackUSD: cfg.Price.FallbackUSD,
	})
}

// initializeMonitor wires the order monitor with observability.
func initializeMonitor(st *store.Store, oracle *price.Oracle, notifier monitor.Notifier) monitor.Scanner {
	return monitorobs.Wrap(monitor.New(st, oracle, notifier))
}

// initializeTelegram creates the Bot API client from the environment.
func initializeTelegram(cfg *config.Config) (*telegram.Client, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	return telegram.NewClient(token, cfg.Telegram.PollTimeoutSeconds), nil
}

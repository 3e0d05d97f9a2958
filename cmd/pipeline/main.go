package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onchain-intel/internal/cache"
	"github.com/aman-zulfiqar/onchain-intel/internal/config"
	"github.com/aman-zulfiqar/onchain-intel/internal/fetch"
	"github.com/aman-zulfiqar/onchain-intel/internal/flags"
	"github.com/aman-zulfiqar/onchain-intel/internal/pipeline"
	"github.com/aman-zulfiqar/onchain-intel/internal/registry"
	"github.com/aman-zulfiqar/onchain-intel/internal/report"
	"github.com/aman-zulfiqar/onchain-intel/internal/store"
	"github.com/aman-zulfiqar/onchain-intel/internal/subgraph"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	// Flags
	limitFlag := flag.Int("limit", 0, "Rows to fetch per protocol (default from FETCH_LIMIT)")
	cleanupFlag := flag.Bool("cleanup", false, "Purge raw working rows after the report is saved")
	modelFlag := flag.String("model", "", "OpenRouter model name (default from REPORT_MODEL)")
	verboseFlag := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	// Logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)
	if *verboseFlag {
		logger.SetLevel(logrus.DebugLevel)
	}

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.OpenRouterAPIKey == "" {
		logger.Fatal("OPENROUTER_API_KEY is required to synthesize reports")
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}

	// Context + signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down pipeline run...")
		cancel()
	}()

	// ClickHouse store
	chStore, err := store.NewClickHouseStore(ctx, store.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to ClickHouse")
	}
	defer chStore.Close()

	// Redis is optional for a one-shot run: without it the report is still
	// persisted, just not cached or announced, and toggles default to on.
	var reportCache *cache.ReportCache
	var toggles pipeline.Toggles
	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: 0})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, running without cache and toggles")
	} else {
		reportCache = cache.NewReportCache(rclient, logger)
		flagStore, err := flags.NewStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create flag store")
		}
		toggles = flagStore
	}

	// Fetcher over the source registry
	client := subgraph.NewClient(cfg.GraphAPIKey, cfg.HTTPTimeout)
	fetcher := fetch.New(client, registry.Default(), cfg.GraphBaseURL, cfg.WindowHours, logger)

	// Report synthesizer
	synth, err := report.NewSynthesizer(report.Config{
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		Model:            cfg.Model,
		MaxTokens:        cfg.MaxTokens,
		SourceTag:        cfg.SourceTag,
		Reports:          chStore,
		Cache:            reportCache,
		Logger:           logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create report synthesizer")
	}

	p := pipeline.New(fetcher, chStore, synth, toggles, cfg.RetentionHours, logger)

	limit := *limitFlag
	if limit == 0 {
		limit = cfg.FetchLimit
	}

	result, err := p.Run(ctx, pipeline.Options{
		LimitPerProtocol: limit,
		Cleanup:          *cleanupFlag,
	})
	if err != nil {
		logger.WithError(err).Fatal("pipeline run failed")
	}

	logger.WithFields(logrus.Fields{
		"report_date": result.ReportDate,
		"source_tag":  result.SourceTag,
		"tokens_used": result.TokensUsed,
	}).Info("run finished")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

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
	"github.com/aman-zulfiqar/onchain-intel/internal/server"
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
	// Logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE config reads os.Getenv
	loadEnv(logger)

	// Config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: the API serves cached reports and flag toggles, so it is required here.
	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: 0})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rclient.Close()

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

	// Flag store + report cache share the Redis client
	flagStore, err := flags.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create flag store")
	}
	reportCache := cache.NewReportCache(rclient, logger)

	// Fetcher over the source registry
	client := subgraph.NewClient(cfg.GraphAPIKey, cfg.HTTPTimeout)
	fetcher := fetch.New(client, registry.Default(), cfg.GraphBaseURL, cfg.WindowHours, logger)

	// Synthesizer is only constructed when a key is present; the run endpoint
	// returns an error without one, but read endpoints still work.
	var synth pipeline.ReportSynthesizer
	if cfg.OpenRouterAPIKey != "" {
		s, err := report.NewSynthesizer(report.Config{
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
		synth = s
	} else {
		logger.Warn("OPENROUTER_API_KEY not set, report runs will fail")
	}

	p := pipeline.New(fetcher, chStore, synth, flagStore, cfg.RetentionHours, logger)

	handlers := &server.Handlers{
		Pipeline: p,
		Reports:  chStore,
		Cache:    reportCache,
		Flags:    flagStore,
		DevMode:  cfg.DevMode,
		Logger:   logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: handlers,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create server")
	}

	go func() {
		logger.Infof("API server listening on %s", cfg.APIAddr)
		if err := srv.Start(); err != nil {
			logger.WithError(err).Info("server stopped")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down API server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}
	_ = srv.WaitClosed(shutdownCtx)
	logger.Info("bye")
}

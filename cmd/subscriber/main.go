package main

import (
	"context"
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
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

// Standalone listener for report completion events. Useful for wiring
// downstream consumers (alerting, exports) without touching the API process.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	loadEnv(logger)
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber...")
		cancel()
	}()

	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: 0})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rclient.Close()

	reportCache := cache.NewReportCache(rclient, logger)

	err := reportCache.SubscribeCompletions(ctx, func(ev *cache.CompletionEvent) {
		logger.WithFields(logrus.Fields{
			"report_date":  ev.ReportDate,
			"source_tag":   ev.SourceTag,
			"model_used":   ev.ModelUsed,
			"tokens_used":  ev.TokensUsed,
			"generated_at": ev.GeneratedAt.Format("2006-01-02 15:04:05"),
		}).Info("report completed")
	})
	if err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("subscription ended")
	}
}

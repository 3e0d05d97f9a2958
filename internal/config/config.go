package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Indexer (subgraph) settings
	GraphBaseURL string
	GraphAPIKey  string
	WindowHours  int
	FetchLimit   int

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout time.Duration

	// LLM settings
	OpenRouterAPIKey string
	Model            string
	MaxTokens        int

	// Report settings
	SourceTag      string
	RetentionHours int

	// API server settings
	APIAddr string
	APIKey  string
	DevMode bool
}

func Load() *Config {
	return &Config{
		// Subgraph access
		GraphBaseURL: getEnv("GRAPH_BASE_URL", "https://gateway.thegraph.com/api"),
		GraphAPIKey:  getEnv("GRAPH_API_KEY", ""),
		WindowHours:  getIntEnv("WINDOW_HOURS", 12),
		FetchLimit:   getIntEnv("FETCH_LIMIT", 12000),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "onchain"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 30*time.Second),

		// LLM
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		Model:            getEnv("REPORT_MODEL", "openai/gpt-4.1-mini"),
		MaxTokens:        getIntEnv("REPORT_MAX_TOKENS", 4096),

		// Report
		SourceTag:      getEnv("REPORT_SOURCE_TAG", "daily-intel"),
		RetentionHours: getIntEnv("RAW_RETENTION_HOURS", 72),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),
	}
}

func (c *Config) Validate() error {
	if c.WindowHours <= 0 {
		return fmt.Errorf("WINDOW_HOURS must be positive, got %d", c.WindowHours)
	}
	if c.FetchLimit < 50 || c.FetchLimit > 12000 {
		return fmt.Errorf("FETCH_LIMIT must be between 50 and 12000, got %d", c.FetchLimit)
	}
	if c.RetentionHours < c.WindowHours {
		return fmt.Errorf("RAW_RETENTION_HOURS (%d) must cover WINDOW_HOURS (%d)", c.RetentionHours, c.WindowHours)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("REPORT_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/aman-zulfiqar/onchain-intel/internal/cache"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
	"github.com/aman-zulfiqar/onchain-intel/internal/store"
)

// Favor determinism over creativity for an analytical report.
const reportTemperature = 0.2

// Config holds configuration for the report synthesizer.
type Config struct {
	// OpenRouter / LLM settings.
	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "openai/gpt-4.1-mini".
	Model     string
	MaxTokens int

	SourceTag string

	Reports store.ReportStore
	// Cache is optional; when set, successful reports are cached and a
	// completion event is published.
	Cache  *cache.ReportCache
	Logger *logrus.Logger
}

// Synthesizer turns compacted summaries into a persisted narrative report via
// a chat-completion model.
type Synthesizer struct {
	llm       llms.Model
	reports   store.ReportStore
	cache     *cache.ReportCache
	logger    *logrus.Logger
	model     string
	maxTokens int
	sourceTag string

	// now is swappable for tests.
	now func() time.Time
}

func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4.1-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.SourceTag == "" {
		cfg.SourceTag = "daily-intel"
	}
	if cfg.Reports == nil {
		return nil, fmt.Errorf("report store is required")
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL("https://openrouter.ai/api/v1"),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	return &Synthesizer{
		llm:       llm,
		reports:   cfg.Reports,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		sourceTag: cfg.SourceTag,
		now:       time.Now,
	}, nil
}

// Synthesize builds the prompt, invokes the completion model, and persists
// the resulting report keyed by (reportDate, sourceTag). Completion failures
// and empty completions are fatal: no fallback report is synthesized locally.
func (s *Synthesizer) Synthesize(ctx context.Context, sections PromptSections, snapshot string) (*models.Report, error) {
	prompt := Build(sections)

	s.logger.WithFields(logrus.Fields{
		"model":            s.model,
		"prompt_chars":     len(prompt),
		"estimated_tokens": EstimateTokens(prompt),
	}).Info("requesting report completion")

	resp, err := s.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		},
		llms.WithMaxTokens(s.maxTokens),
		llms.WithTemperature(reportTemperature),
	)
	if err != nil {
		return nil, fmt.Errorf("report completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("report completion returned no choices")
	}

	body := strings.TrimSpace(resp.Choices[0].Content)
	if body == "" {
		return nil, fmt.Errorf("report completion returned empty content")
	}

	generatedAt := s.now().UTC()
	report := &models.Report{
		ReportDate:      generatedAt.Format("2006-01-02"),
		SourceTag:       s.sourceTag,
		ReportBody:      body,
		GeneratedAt:     generatedAt,
		ModelUsed:       s.model,
		TokensUsed:      totalTokens(resp.Choices[0].GenerationInfo),
		SummarySnapshot: snapshot,
	}

	if err := s.reports.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, report); err != nil {
			s.logger.WithError(err).Warn("failed to cache report")
		}
		if err := s.cache.PublishCompletion(ctx, report); err != nil {
			s.logger.WithError(err).Warn("failed to publish report completion")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"report_date": report.ReportDate,
		"source_tag":  report.SourceTag,
		"tokens_used": report.TokensUsed,
	}).Info("report synthesized")

	return report, nil
}

func totalTokens(info map[string]any) int64 {
	if info == nil {
		return 0
	}
	switch v := info["TotalTokens"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

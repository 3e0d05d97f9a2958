// Package pipeline drives one ingestion→summarization→correlation→report run
// as an explicit ordered list of stages. Domains fetch and persist
// sequentially to bound peak memory and keep error attribution simple; a
// domain's source failures degrade to empty data inside the fetcher, while
// persistence and completion failures are fatal to the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onchain-intel/internal/compact"
	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/flags"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
	"github.com/aman-zulfiqar/onchain-intel/internal/report"
	"github.com/aman-zulfiqar/onchain-intel/internal/store"
	"github.com/aman-zulfiqar/onchain-intel/internal/summary"
)

// DomainFetcher is the retrieval boundary. Implementations isolate failures
// per source and entity type, returning empty lists rather than errors.
type DomainFetcher interface {
	DexSwaps(ctx context.Context, limit int) []*models.SwapEvent
	Lending(ctx context.Context, limit int) ([]*models.LendingEvent, []*models.Market)
	NFT(ctx context.Context, limit int) []*models.NFTEvent
	Derivatives(ctx context.Context, limit int) []*models.DerivEvent
}

// ReportSynthesizer is the completion-model boundary.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, sections report.PromptSections, snapshot string) (*models.Report, error)
}

// Toggles gates optional work at stage boundaries. A nil Toggles runs
// everything.
type Toggles interface {
	Enabled(ctx context.Context, key string) bool
}

// Options are the caller-facing run inputs.
type Options struct {
	// LimitPerProtocol bounds rows fetched per protocol; clamped to
	// [MinProtocolLimit, MaxProtocolLimit].
	LimitPerProtocol int
	// Cleanup purges raw working rows after a successful report save.
	Cleanup bool
}

// Result describes a completed run.
type Result struct {
	ReportDate     string                   `json:"report_date"`
	SourceTag      string                   `json:"source_tag"`
	TokensUsed     int64                    `json:"tokens_used"`
	RowCounts      map[string]int           `json:"row_counts"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
}

type Pipeline struct {
	Fetcher        DomainFetcher
	Store          store.EventStore
	Synthesizer    ReportSynthesizer
	Flags          Toggles
	Logger         *logrus.Logger
	RetentionHours int

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func New(fetcher DomainFetcher, st store.EventStore, synth ReportSynthesizer, toggles Toggles, retentionHours int, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		Fetcher:        fetcher,
		Store:          st,
		Synthesizer:    synth,
		Flags:          toggles,
		Logger:         logger,
		RetentionHours: retentionHours,
		Now:            time.Now,
	}
}

// Run executes the full stage list: fetch+persist per domain, summarize,
// correlate, compact, synthesize, then optional cleanup. The returned error
// names the stage that failed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	limit := clampLimit(opts.LimitPerProtocol)
	res := &Result{
		RowCounts:      map[string]int{},
		StageDurations: map[string]time.Duration{},
	}

	p.Logger.WithField("limit_per_protocol", limit).Info("starting pipeline run")

	// Stage 1+2: fetch and persist, one domain at a time.
	var (
		swaps         []*models.SwapEvent
		lendingEvents []*models.LendingEvent
		markets       []*models.Market
		nftEvents     []*models.NFTEvent
		derivEvents   []*models.DerivEvent
	)

	if p.enabled(ctx, flags.KeyDexEnabled) {
		p.timed(res, "fetch_dex", func() {
			swaps = p.Fetcher.DexSwaps(ctx, limit)
		})
		res.RowCounts["dex_swaps"] = len(swaps)
		if err := p.persist(ctx, res, "persist_dex", func() error {
			return p.Store.SaveSwaps(ctx, swaps)
		}); err != nil {
			return nil, err
		}
	}

	if p.enabled(ctx, flags.KeyLendingEnabled) {
		p.timed(res, "fetch_lending", func() {
			lendingEvents, markets = p.Fetcher.Lending(ctx, limit)
		})
		res.RowCounts["lending_events"] = len(lendingEvents)
		res.RowCounts["lending_markets"] = len(markets)
		if err := p.persist(ctx, res, "persist_lending", func() error {
			if err := p.Store.SaveLendingEvents(ctx, lendingEvents); err != nil {
				return err
			}
			return p.Store.SaveMarkets(ctx, markets)
		}); err != nil {
			return nil, err
		}
	}

	if p.enabled(ctx, flags.KeyNFTEnabled) {
		p.timed(res, "fetch_nft", func() {
			nftEvents = p.Fetcher.NFT(ctx, limit)
		})
		res.RowCounts["nft_events"] = len(nftEvents)
		if err := p.persist(ctx, res, "persist_nft", func() error {
			return p.Store.SaveNFTEvents(ctx, nftEvents)
		}); err != nil {
			return nil, err
		}
	}

	if p.enabled(ctx, flags.KeyDerivativesEnabled) {
		p.timed(res, "fetch_derivatives", func() {
			derivEvents = p.Fetcher.Derivatives(ctx, limit)
		})
		res.RowCounts["deriv_events"] = len(derivEvents)
		if err := p.persist(ctx, res, "persist_derivatives", func() error {
			return p.Store.SaveDerivEvents(ctx, derivEvents)
		}); err != nil {
			return nil, err
		}
	}

	// Stage 3: summarize per domain. Pure, recomputed every run.
	var (
		dexSum   *summary.DexSummary
		lendSum  *summary.LendingSummary
		nftSum   *summary.NFTSummary
		derivSum *summary.DerivativesSummary
	)
	p.timed(res, "summarize", func() {
		dexSum = summary.SummarizeDex(swaps)
		lendSum = summary.SummarizeLending(lendingEvents, markets)
		nftSum = summary.SummarizeNFT(nftEvents)
		derivSum = summary.SummarizeDerivatives(derivEvents)
	})

	// Stage 4: correlate across domains.
	var crossSum *summary.CrossSummary
	p.timed(res, "correlate", func() {
		crossSum = summary.Correlate(swaps, lendingEvents, dexSum, lendSum)
	})

	// Stage 5: compact each section into its character budget.
	var sections report.PromptSections
	var snapshot string
	p.timed(res, "compact", func() {
		sections = report.PromptSections{
			Dex:         compact.Compact(dexSum, constants.BudgetDexChars),
			Lending:     compact.Compact(lendSum, constants.BudgetLendingChars),
			NFT:         compact.Compact(nftSum, constants.BudgetNFTChars),
			Derivatives: compact.Compact(derivSum, constants.BudgetDerivativesChars),
			Cross:       compact.Compact(crossSum, constants.BudgetCrossChars),
		}
		snapshot = compact.Compact(map[string]any{
			"dex":         dexSum,
			"lending":     lendSum,
			"nft":         nftSum,
			"derivatives": derivSum,
			"cross":       crossSum,
		}, 0)
	})

	// Stage 6+7: synthesize and persist the report. Fatal on failure.
	if p.Synthesizer == nil {
		return nil, fmt.Errorf("synthesize stage: no synthesizer configured")
	}
	var rep *models.Report
	var synthErr error
	p.timed(res, "synthesize", func() {
		rep, synthErr = p.Synthesizer.Synthesize(ctx, sections, snapshot)
	})
	if synthErr != nil {
		return nil, fmt.Errorf("synthesize stage: %w", synthErr)
	}

	res.ReportDate = rep.ReportDate
	res.SourceTag = rep.SourceTag
	res.TokensUsed = rep.TokensUsed

	// Stage 8: optional retention cleanup, only after the report is safe.
	if opts.Cleanup && p.enabled(ctx, flags.KeyCleanupEnabled) {
		cutoff := p.Now().Add(-time.Duration(p.RetentionHours) * time.Hour)
		var cleanupErr error
		p.timed(res, "cleanup", func() {
			cleanupErr = p.Store.CleanupRaw(ctx, cutoff)
		})
		if cleanupErr != nil {
			// The report is already saved; a failed purge is not fatal.
			p.Logger.WithError(cleanupErr).Warn("raw data cleanup failed")
		}
	}

	p.Logger.WithFields(logrus.Fields{
		"report_date": res.ReportDate,
		"source_tag":  res.SourceTag,
		"tokens_used": res.TokensUsed,
	}).Info("pipeline run complete")

	return res, nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result, stage string, fn func() error) error {
	var err error
	p.timed(res, stage, func() { err = fn() })
	if err != nil {
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	return nil
}

func (p *Pipeline) timed(res *Result, stage string, fn func()) {
	start := p.Now()
	fn()
	d := p.Now().Sub(start)
	res.StageDurations[stage] = d
	p.Logger.WithFields(logrus.Fields{"stage": stage, "took": d}).Debug("stage finished")
}

func (p *Pipeline) enabled(ctx context.Context, key string) bool {
	if p.Flags == nil {
		return true
	}
	return p.Flags.Enabled(ctx, key)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.MaxProtocolLimit
	}
	if limit < constants.MinProtocolLimit {
		return constants.MinProtocolLimit
	}
	if limit > constants.MaxProtocolLimit {
		return constants.MaxProtocolLimit
	}
	return limit
}

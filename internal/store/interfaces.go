package store

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// EventStore is the storage boundary of the pipeline. Every save is an
// idempotent upsert keyed by each entity family's conflict key, so repeated
// runs overwrite rather than duplicate.
type EventStore interface {
	SaveSwaps(ctx context.Context, rows []*models.SwapEvent) error
	SaveLendingEvents(ctx context.Context, rows []*models.LendingEvent) error
	SaveMarkets(ctx context.Context, rows []*models.Market) error
	SaveNFTEvents(ctx context.Context, rows []*models.NFTEvent) error
	SaveDerivEvents(ctx context.Context, rows []*models.DerivEvent) error

	// CleanupRaw deletes raw working rows fetched before cutoff. Reports are
	// never touched.
	CleanupRaw(ctx context.Context, cutoff time.Time) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// ReportStore persists and retrieves the final narrative artifacts.
type ReportStore interface {
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, reportDate, sourceTag string) (*models.Report, error)
	GetLatestReport(ctx context.Context, sourceTag string) (*models.Report, error)
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// ClickHouseStore persists raw events and reports. Every table is a
// ReplacingMergeTree ordered by its conflict key, which makes the batched
// inserts idempotent: a repeated run overwrites matching rows on merge
// instead of duplicating them.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	s := &ClickHouseStore{conn: conn, logger: cfg.Logger}
	if err := s.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")
	return s, nil
}

func (s *ClickHouseStore) createTables(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS dex_swaps (
			id String,
			entity_type String,
			protocol String,
			network String,
			source_name String,
			fetched_at DateTime,
			timestamp DateTime,
			pool_id String,
			pair String,
			token0_symbol String,
			token1_symbol String,
			amount0 Float64,
			amount1 Float64,
			amount_usd Float64,
			sender String,
			recipient String,
			fee_tier Int32
		) ENGINE = ReplacingMergeTree(fetched_at)
		ORDER BY (id, entity_type, protocol, network)`,

		`CREATE TABLE IF NOT EXISTS lending_events (
			id String,
			entity_type String,
			protocol String,
			network String,
			source_name String,
			fetched_at DateTime,
			timestamp DateTime,
			account String,
			amount Float64,
			amount_usd Float64,
			token_symbol String,
			market_id String
		) ENGINE = ReplacingMergeTree(fetched_at)
		ORDER BY (id, entity_type, protocol, network)`,

		`CREATE TABLE IF NOT EXISTS lending_markets (
			id String,
			entity_type String,
			protocol String,
			network String,
			source_name String,
			fetched_at DateTime,
			name String,
			input_token_symbol String,
			total_deposit_usd Float64,
			total_borrow_usd Float64,
			liquidation_threshold Float64,
			maximum_ltv Float64
		) ENGINE = ReplacingMergeTree(fetched_at)
		ORDER BY (id, entity_type, protocol, network)`,

		`CREATE TABLE IF NOT EXISTS nft_events (
			id String,
			entity_type String,
			protocol String,
			network String,
			source_name String,
			fetched_at DateTime,
			name String,
			token_id String,
			from_address String,
			to_address String,
			block_time DateTime,
			transfer_count Int64,
			mint_count Int64,
			invocation_count Int64
		) ENGINE = ReplacingMergeTree(fetched_at)
		ORDER BY (id, entity_type, protocol, network)`,

		`CREATE TABLE IF NOT EXISTS deriv_events (
			id String,
			entity_type String,
			protocol String,
			network String,
			source_name String,
			fetched_at DateTime,
			timestamp DateTime,
			account String,
			asset String,
			side String,
			amount_in_usd Float64,
			amount_out_usd Float64,
			amount_usd Float64,
			balance_usd Float64
		) ENGINE = ReplacingMergeTree(fetched_at)
		ORDER BY (id, entity_type, protocol, network)`,

		`CREATE TABLE IF NOT EXISTS reports (
			report_date String,
			source_tag String,
			report_body String,
			generated_at DateTime,
			model_used String,
			tokens_used Int64,
			summary_snapshot String
		) ENGINE = ReplacingMergeTree(generated_at)
		ORDER BY (report_date, source_tag)`,
	}

	for _, q := range ddl {
		if err := s.conn.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// writeBatches appends deduplicated rows in fixed-size batches. Batches are
// written sequentially; the first failure aborts the remaining batches and
// propagates, leaving already-sent batches committed.
func writeBatches[T any](ctx context.Context, s *ClickHouseStore, table, insert string, rows []T, key func(T) string, appendRow func(driver.Batch, T) error) error {
	deduped := dedupeByKey(rows, key)
	dropped := len(rows) - len(deduped)
	if dropped > 0 {
		s.logger.WithFields(logrus.Fields{"table": table, "dropped": dropped}).Debug("dropped duplicate rows within batch")
	}

	for _, batchRows := range chunkRows(deduped, constants.InsertBatchSize) {
		batch, err := s.conn.PrepareBatch(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare %s batch: %w", table, err)
		}
		for _, r := range batchRows {
			if err := appendRow(batch, r); err != nil {
				return fmt.Errorf("append %s row: %w", table, err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("send %s batch: %w", table, err)
		}
	}
	return nil
}

func (s *ClickHouseStore) SaveSwaps(ctx context.Context, rows []*models.SwapEvent) error {
	return writeBatches(ctx, s, "dex_swaps", "INSERT INTO dex_swaps", rows,
		func(r *models.SwapEvent) string { return r.NaturalKey() },
		func(b driver.Batch, r *models.SwapEvent) error {
			return b.Append(
				r.ID, r.EntityType, r.Protocol, r.Network, r.SourceName, r.FetchedAt,
				time.Unix(r.Timestamp, 0).UTC(), r.PoolID, r.Pair,
				r.Token0Symbol, r.Token1Symbol, r.Amount0, r.Amount1, r.AmountUSD,
				r.Sender, r.Recipient, int32(r.FeeTier),
			)
		})
}

func (s *ClickHouseStore) SaveLendingEvents(ctx context.Context, rows []*models.LendingEvent) error {
	return writeBatches(ctx, s, "lending_events", "INSERT INTO lending_events", rows,
		func(r *models.LendingEvent) string { return r.NaturalKey() },
		func(b driver.Batch, r *models.LendingEvent) error {
			return b.Append(
				r.ID, r.EntityType, r.Protocol, r.Network, r.SourceName, r.FetchedAt,
				time.Unix(r.Timestamp, 0).UTC(), r.Account, r.Amount, r.AmountUSD,
				r.TokenSymbol, r.MarketID,
			)
		})
}

func (s *ClickHouseStore) SaveMarkets(ctx context.Context, rows []*models.Market) error {
	return writeBatches(ctx, s, "lending_markets", "INSERT INTO lending_markets", rows,
		func(r *models.Market) string { return r.NaturalKey() },
		func(b driver.Batch, r *models.Market) error {
			return b.Append(
				r.ID, r.EntityType, r.Protocol, r.Network, r.SourceName, r.FetchedAt,
				r.Name, r.InputTokenSymbol, r.TotalDepositBalanceUSD, r.TotalBorrowBalanceUSD,
				r.LiquidationThreshold, r.MaximumLTV,
			)
		})
}

func (s *ClickHouseStore) SaveNFTEvents(ctx context.Context, rows []*models.NFTEvent) error {
	return writeBatches(ctx, s, "nft_events", "INSERT INTO nft_events", rows,
		func(r *models.NFTEvent) string { return r.NaturalKey() },
		func(b driver.Batch, r *models.NFTEvent) error {
			return b.Append(
				r.ID, r.EntityType, r.Protocol, r.Network, r.SourceName, r.FetchedAt,
				r.Name, r.TokenID, r.From, r.To, time.Unix(r.BlockTime, 0).UTC(),
				r.TransferCount, r.MintCount, r.InvocationCount,
			)
		})
}

func (s *ClickHouseStore) SaveDerivEvents(ctx context.Context, rows []*models.DerivEvent) error {
	return writeBatches(ctx, s, "deriv_events", "INSERT INTO deriv_events", rows,
		func(r *models.DerivEvent) string { return r.NaturalKey() },
		func(b driver.Batch, r *models.DerivEvent) error {
			return b.Append(
				r.ID, r.EntityType, r.Protocol, r.Network, r.SourceName, r.FetchedAt,
				time.Unix(r.Timestamp, 0).UTC(), r.Account, r.Asset, r.Side,
				r.AmountInUSD, r.AmountOutUSD, r.AmountUSD, r.BalanceUSD,
			)
		})
}

func (s *ClickHouseStore) SaveReport(ctx context.Context, r *models.Report) error {
	err := s.conn.Exec(ctx, `
		INSERT INTO reports (
			report_date, source_tag, report_body, generated_at,
			model_used, tokens_used, summary_snapshot
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ReportDate, r.SourceTag, r.ReportBody, r.GeneratedAt,
		r.ModelUsed, r.TokensUsed, r.SummarySnapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (s *ClickHouseStore) GetReport(ctx context.Context, reportDate, sourceTag string) (*models.Report, error) {
	return s.queryReport(ctx, `
		SELECT report_date, source_tag, report_body, generated_at,
		       model_used, tokens_used, summary_snapshot
		FROM reports
		WHERE report_date = ? AND source_tag = ?
		ORDER BY generated_at DESC
		LIMIT 1`, reportDate, sourceTag)
}

func (s *ClickHouseStore) GetLatestReport(ctx context.Context, sourceTag string) (*models.Report, error) {
	return s.queryReport(ctx, `
		SELECT report_date, source_tag, report_body, generated_at,
		       model_used, tokens_used, summary_snapshot
		FROM reports
		WHERE source_tag = ?
		ORDER BY report_date DESC, generated_at DESC
		LIMIT 1`, sourceTag)
}

func (s *ClickHouseStore) queryReport(ctx context.Context, query string, args ...any) (*models.Report, error) {
	var r models.Report
	row := s.conn.QueryRow(ctx, query, args...)
	err := row.Scan(
		&r.ReportDate, &r.SourceTag, &r.ReportBody, &r.GeneratedAt,
		&r.ModelUsed, &r.TokensUsed, &r.SummarySnapshot,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CleanupRaw drops raw working rows fetched before cutoff, keeping the raw
// store bounded to recent runs. Reports are never deleted.
func (s *ClickHouseStore) CleanupRaw(ctx context.Context, cutoff time.Time) error {
	tables := []string{"dex_swaps", "lending_events", "lending_markets", "nft_events", "deriv_events"}
	for _, table := range tables {
		q := fmt.Sprintf("ALTER TABLE %s DELETE WHERE fetched_at < ?", table)
		if err := s.conn.Exec(ctx, q, cutoff.UTC()); err != nil {
			return fmt.Errorf("cleanup %s: %w", table, err)
		}
	}
	s.logger.WithField("cutoff", cutoff.UTC()).Info("purged raw working rows")
	return nil
}

func (s *ClickHouseStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

var _ EventStore = (*ClickHouseStore)(nil)
var _ ReportStore = (*ClickHouseStore)(nil)

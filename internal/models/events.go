package models

import (
	"fmt"
	"time"
)

// DomainType categorizes a source's on-chain activity.
type DomainType string

const (
	DomainDex         DomainType = "dex"
	DomainLending     DomainType = "lending"
	DomainNFT         DomainType = "nft"
	DomainDerivatives DomainType = "derivatives"
)

// Source identifies one indexed, queryable dataset for a protocol+network.
// Sources are immutable and loaded at process start.
type Source struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Protocol    string     `json:"protocol"`
	Network     string     `json:"network"`
	Domain      DomainType `json:"domain"`
	SubgraphID  string     `json:"subgraph_id"`
	// FlatSchema marks sources whose rows lack nested relational fields,
	// requiring a reduced query shape.
	FlatSchema bool `json:"flat_schema"`
}

// EventTags are attached to every raw event at fetch time.
type EventTags struct {
	Protocol   string    `json:"protocol"`
	Network    string    `json:"network"`
	SourceName string    `json:"source_name"`
	EntityType string    `json:"entity_type"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// SwapEvent is a single DEX trade.
type SwapEvent struct {
	EventTags
	ID           string  `json:"id"`
	Timestamp    int64   `json:"timestamp"`
	PoolID       string  `json:"pool_id"`
	Pair         string  `json:"pair"` // e.g. "WETH/USDC"
	Token0Symbol string  `json:"token0_symbol"`
	Token1Symbol string  `json:"token1_symbol"`
	Amount0      float64 `json:"amount0"`
	Amount1      float64 `json:"amount1"`
	AmountUSD    float64 `json:"amount_usd"`
	Sender       string  `json:"sender"`
	Recipient    string  `json:"recipient"`
	FeeTier      int     `json:"fee_tier"` // in hundredths of a bip, 3000 = 0.3%
}

// ZeroForOne reports the trade direction: true when token0 was sold for token1.
func (s *SwapEvent) ZeroForOne() bool {
	return s.Amount0 > 0
}

// LendingEvent is a borrow or deposit against a lending market.
type LendingEvent struct {
	EventTags
	ID          string  `json:"id"`
	Timestamp   int64   `json:"timestamp"`
	Account     string  `json:"account"`
	Amount      float64 `json:"amount"`
	AmountUSD   float64 `json:"amount_usd"`
	TokenSymbol string  `json:"token_symbol"`
	MarketID    string  `json:"market_id"`
}

// MarketRate is one published rate on a lending market.
type MarketRate struct {
	Side string  `json:"side"` // BORROWER or LENDER
	Type string  `json:"type"` // VARIABLE, STABLE, FIXED
	Rate float64 `json:"rate"` // annual percentage
}

// Market is a lending market snapshot, re-fetched in full each run.
type Market struct {
	EventTags
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	InputTokenSymbol       string       `json:"input_token_symbol"`
	TotalDepositBalanceUSD float64      `json:"total_deposit_balance_usd"`
	TotalBorrowBalanceUSD  float64      `json:"total_borrow_balance_usd"`
	LiquidationThreshold   float64      `json:"liquidation_threshold"`
	MaximumLTV             float64      `json:"maximum_ltv"`
	Rates                  []MarketRate `json:"rates,omitempty"`
}

// NFTEvent is one row from a flat NFT source payload. EntityType discriminates
// between project, transfer, token and mint rows sharing the same shape.
type NFTEvent struct {
	EventTags
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	TokenID         string `json:"token_id,omitempty"`
	From            string `json:"from,omitempty"`
	To              string `json:"to,omitempty"`
	BlockTime       int64  `json:"block_time"`
	TransferCount   int64  `json:"transfer_count,omitempty"`
	MintCount       int64  `json:"mint_count,omitempty"`
	InvocationCount int64  `json:"invocation_count,omitempty"`
}

// DerivEvent is one derivatives row: a swap, a position snapshot, a
// liquidation, or an open position, discriminated by EntityType.
type DerivEvent struct {
	EventTags
	ID           string  `json:"id"`
	Timestamp    int64   `json:"timestamp"`
	Account      string  `json:"account"`
	Asset        string  `json:"asset"`
	Side         string  `json:"side"` // LONG or SHORT
	AmountInUSD  float64 `json:"amount_in_usd"`
	AmountOutUSD float64 `json:"amount_out_usd"`
	AmountUSD    float64 `json:"amount_usd"`
	BalanceUSD   float64 `json:"balance_usd"`
}

// NaturalKey builds the composite key raw events are deduplicated on before
// persistence. The same key is the storage conflict key.
func NaturalKey(id, entityType, protocol, network string) string {
	return fmt.Sprintf("%s|%s|%s|%s", id, entityType, protocol, network)
}

func (s *SwapEvent) NaturalKey() string {
	return NaturalKey(s.ID, s.EntityType, s.Protocol, s.Network)
}

func (l *LendingEvent) NaturalKey() string {
	return NaturalKey(l.ID, l.EntityType, l.Protocol, l.Network)
}

func (m *Market) NaturalKey() string {
	return NaturalKey(m.ID, m.EntityType, m.Protocol, m.Network)
}

func (n *NFTEvent) NaturalKey() string {
	return NaturalKey(n.ID, n.EntityType, n.Protocol, n.Network)
}

func (d *DerivEvent) NaturalKey() string {
	return NaturalKey(d.ID, d.EntityType, d.Protocol, d.Network)
}

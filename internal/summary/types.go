package summary

// Every numeric field in these structs is rounded before serialization: USD
// amounts to 2 decimal places, ratios to 4, so repeated runs on identical
// input are byte-identical.

// HourlyBucket is one hour of aggregated activity.
type HourlyBucket struct {
	HourStart int64   `json:"hour_start"` // unix, truncated to the hour
	VolumeUSD float64 `json:"volume_usd"`
	Count     int     `json:"count"`
}

// DexOverview holds headline DEX counters.
type DexOverview struct {
	TotalSwaps      int     `json:"total_swaps"`
	TotalVolumeUSD  float64 `json:"total_volume_usd"`
	AvgSwapUSD      float64 `json:"avg_swap_usd"`
	MedianSwapUSD   float64 `json:"median_swap_usd"`
	UniquePools     int     `json:"unique_pools"`
	UniqueAddresses int     `json:"unique_addresses"`
}

// PoolStat ranks one pool by volume.
type PoolStat struct {
	PoolID    string  `json:"pool_id"`
	Pair      string  `json:"pair"`
	SwapCount int     `json:"swap_count"`
	VolumeUSD float64 `json:"volume_usd"`
}

// WhaleStat is an address whose aggregated swap volume crossed the whale
// threshold.
type WhaleStat struct {
	Address   string  `json:"address"`
	SwapCount int     `json:"swap_count"`
	VolumeUSD float64 `json:"volume_usd"`
}

// LargeSwap is a representative sample of a trade above the large-swap floor.
type LargeSwap struct {
	ID        string  `json:"id"`
	Pair      string  `json:"pair"`
	Sender    string  `json:"sender"`
	AmountUSD float64 `json:"amount_usd"`
	Timestamp int64   `json:"timestamp"`
}

// SwapBucket is one fixed USD range of the large-swap distribution.
type SwapBucket struct {
	Label     string      `json:"label"`
	Count     int         `json:"count"`
	VolumeUSD float64     `json:"volume_usd"`
	Samples   []LargeSwap `json:"samples,omitempty"`
}

// TokenVolume aggregates swap volume touching one token symbol.
type TokenVolume struct {
	Symbol    string  `json:"symbol"`
	SwapCount int     `json:"swap_count"`
	VolumeUSD float64 `json:"volume_usd"`
}

// FeeTierStat aggregates per fee tier.
type FeeTierStat struct {
	FeeTier   int     `json:"fee_tier"`
	SwapCount int     `json:"swap_count"`
	VolumeUSD float64 `json:"volume_usd"`
}

// PairFlow is the directional net flow on one trading pair: token0→token1
// volume minus token1→token0 volume.
type PairFlow struct {
	Pair               string  `json:"pair"`
	VolumeZeroToOneUSD float64 `json:"volume_zero_to_one_usd"`
	VolumeOneToZeroUSD float64 `json:"volume_one_to_zero_usd"`
	NetFlowUSD         float64 `json:"net_flow_usd"`
}

// DexSummary is the full DEX digest for one run.
type DexSummary struct {
	Overview              DexOverview    `json:"overview"`
	TopPools              []PoolStat     `json:"top_pools"`
	Whales                []WhaleStat    `json:"whales"`
	LargeSwapDistribution []SwapBucket   `json:"large_swap_distribution"`
	HourlyVolume          []HourlyBucket `json:"hourly_volume"`
	TokenVolumes          []TokenVolume  `json:"token_volumes"`
	FeeTiers              []FeeTierStat  `json:"fee_tiers"`
	PairFlows             []PairFlow     `json:"pair_flows"`
}

// LendingOverview holds headline lending counters.
type LendingOverview struct {
	TotalBorrowUSD       float64 `json:"total_borrow_usd"`
	TotalDepositUSD      float64 `json:"total_deposit_usd"`
	BorrowToDepositRatio float64 `json:"borrow_to_deposit_ratio"`
	EventCount           int     `json:"event_count"`
	MarketCount          int     `json:"market_count"`
}

// MarketStat is per-market health derived from a market snapshot.
type MarketStat struct {
	MarketID                string  `json:"market_id"`
	Name                    string  `json:"name"`
	Token                   string  `json:"token"`
	DepositUSD              float64 `json:"deposit_usd"`
	BorrowUSD               float64 `json:"borrow_usd"`
	Utilization             float64 `json:"utilization"`
	LiquidationBufferUSD    float64 `json:"liquidation_buffer_usd"`
	BufferPctOfThreshold    float64 `json:"buffer_pct_of_threshold"`
	DailyBorrowVelocityUSD  float64 `json:"daily_borrow_velocity_usd"`
	DailyDepositVelocityUSD float64 `json:"daily_deposit_velocity_usd"`
}

// RiskSignal flags a market breaching a risk threshold.
type RiskSignal struct {
	MarketID    string  `json:"market_id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"` // high_utilization or negative_buffer
	Detail      string  `json:"detail"`
	Utilization float64 `json:"utilization"`
}

// AccountStat aggregates lending activity for one account.
type AccountStat struct {
	Account        string  `json:"account"`
	BorrowUSD      float64 `json:"borrow_usd"`
	DepositUSD     float64 `json:"deposit_usd"`
	NetExposureUSD float64 `json:"net_exposure_usd"`
}

// LendingSummary is the full lending digest for one run.
type LendingSummary struct {
	Overview      LendingOverview `json:"overview"`
	Markets       []MarketStat    `json:"markets"`
	RiskSignals   []RiskSignal    `json:"risk_signals"`
	TopBorrowers  []AccountStat   `json:"top_borrowers"`
	TopDepositors []AccountStat   `json:"top_depositors"`
	NetExposures  []AccountStat   `json:"net_exposures"`
}

// NFTOverview holds headline NFT counters.
type NFTOverview struct {
	TotalTransfers int `json:"total_transfers"`
	TotalMints     int `json:"total_mints"`
	TotalProjects  int `json:"total_projects"`
	TotalTokens    int `json:"total_tokens"`
}

// NFTTokenStat ranks one token by transfer count.
type NFTTokenStat struct {
	TokenID       string `json:"token_id"`
	Name          string `json:"name"`
	TransferCount int64  `json:"transfer_count"`
}

// NFTActivity is one recent transfer or mint.
type NFTActivity struct {
	ID        string `json:"id"`
	TokenID   string `json:"token_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	BlockTime int64  `json:"block_time"`
}

// NFTProjectStat ranks a project by combined transfer+mint activity,
// tie-broken by invocation count.
type NFTProjectStat struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TransferCount   int64  `json:"transfer_count"`
	MintCount       int64  `json:"mint_count"`
	InvocationCount int64  `json:"invocation_count"`
	ActivityScore   int64  `json:"activity_score"`
}

// NFTSummary is the full NFT digest for one run.
type NFTSummary struct {
	Overview         NFTOverview      `json:"overview"`
	TopTokens        []NFTTokenStat   `json:"top_tokens"`
	RecentTransfers  []NFTActivity    `json:"recent_transfers"`
	RecentMints      []NFTActivity    `json:"recent_mints"`
	FeaturedProjects []NFTProjectStat `json:"featured_projects"`
}

// DerivOverview holds headline derivatives counters.
type DerivOverview struct {
	TotalSwapVolumeUSD   float64 `json:"total_swap_volume_usd"`
	TotalLiquidationUSD  float64 `json:"total_liquidation_usd"`
	LongOpenInterestUSD  float64 `json:"long_open_interest_usd"`
	ShortOpenInterestUSD float64 `json:"short_open_interest_usd"`
	LongPct              float64 `json:"long_pct"`
	SwapCount            int     `json:"swap_count"`
	SnapshotCount        int     `json:"snapshot_count"`
	LiquidationCount     int     `json:"liquidation_count"`
	PositionCount        int     `json:"position_count"`
}

// AssetBreakdown is per-asset long/short/liquidation exposure.
type AssetBreakdown struct {
	Asset          string  `json:"asset"`
	LongUSD        float64 `json:"long_usd"`
	ShortUSD       float64 `json:"short_usd"`
	LiquidationUSD float64 `json:"liquidation_usd"`
}

// DerivWhale scores an account by swap volume, max observed position size and
// position-update frequency.
type DerivWhale struct {
	Account        string  `json:"account"`
	SwapVolumeUSD  float64 `json:"swap_volume_usd"`
	MaxPositionUSD float64 `json:"max_position_usd"`
	UpdateCount    int     `json:"update_count"`
	Score          float64 `json:"score"`
}

// DerivativesSummary is the full derivatives digest for one run.
type DerivativesSummary struct {
	Overview DerivOverview    `json:"overview"`
	Assets   []AssetBreakdown `json:"assets"`
	Whales   []DerivWhale     `json:"whales"`
}

// PairVolume is stablecoin-tagged volume on one pair.
type PairVolume struct {
	Pair      string  `json:"pair"`
	VolumeUSD float64 `json:"volume_usd"`
}

// OverlapActor is an address active on both the DEX and lending sides.
type OverlapActor struct {
	Address   string  `json:"address"`
	SwapCount int     `json:"swap_count"`
	BorrowUSD float64 `json:"borrow_usd"`
}

// CombinedBucket pairs DEX volume and lending borrow volume in one hour.
type CombinedBucket struct {
	HourStart       int64   `json:"hour_start"`
	DexVolumeUSD    float64 `json:"dex_volume_usd"`
	BorrowVolumeUSD float64 `json:"borrow_volume_usd"`
}

// LeverageLoop links a DEX pair with positive net directional flow to a
// lending market whose token appears in the pair label. The association is a
// textual heuristic, not a proven causal link.
type LeverageLoop struct {
	Pair        string  `json:"pair"`
	MarketID    string  `json:"market_id"`
	MarketToken string  `json:"market_token"`
	NetFlowUSD  float64 `json:"net_flow_usd"`
	Note        string  `json:"note"`
}

// CrossSummary digests relationships spanning the DEX and lending domains.
type CrossSummary struct {
	VolumeToBorrowRatio   float64          `json:"volume_to_borrow_ratio"`
	StablecoinVolumeShare float64          `json:"stablecoin_volume_share"`
	StablecoinVolumeUSD   float64          `json:"stablecoin_volume_usd"`
	StablecoinPairVolumes []PairVolume     `json:"stablecoin_pair_volumes"`
	OverlappingActors     []OverlapActor   `json:"overlapping_actors"`
	HourlyComparison      []CombinedBucket `json:"hourly_comparison"`
	LeverageLoops         []LeverageLoop   `json:"leverage_loops"`
}

package constants

// Redis keys
const (
	RedisKeyReportPrefix = "reports:latest:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelReports = "reports:completed"
)

// Pagination and persistence limits
const (
	PageBatchSize    = 1000
	InsertBatchSize  = 1000
	MinProtocolLimit = 50
	MaxProtocolLimit = 12000
)

// Derivatives budget split across entity types. Position snapshots carry most
// of the signal, liquidations and open positions are rare but dense.
const (
	DerivSwapShare        = 0.35
	DerivSnapshotShare    = 0.60
	DerivLiquidationShare = 0.025
	DerivPositionShare    = 0.025
)

// Summarizer thresholds (USD)
const (
	WhaleVolumeThreshold = 100_000
	LargeSwapFloor       = 50_000
	UtilizationRiskLevel = 0.55
)

// Large-swap distribution bucket floors (USD). The last bucket is open-ended.
var LargeSwapBucketFloors = []float64{50_000, 100_000, 250_000, 500_000, 1_000_000}

var LargeSwapBucketLabels = []string{"50k-100k", "100k-250k", "250k-500k", "500k-1M", "1M+"}

// Output list caps. These, not the fetch limits, are what keep the prompt
// payload bounded.
const (
	MaxTopPools        = 10
	MaxWhales          = 10
	MaxLargeSwaps      = 15
	MaxBucketSamples   = 3
	MaxRiskSignals     = 10
	MaxTopAccounts     = 10
	MaxTokenRankings   = 10
	MaxRecentActivity  = 15
	MaxHourlyBuckets   = 24
	MaxCombinedBuckets = 48
	MaxOverlapActors   = 10
	MaxLoopInferences  = 10
)

// Per-section character budgets handed to the payload compactor.
const (
	BudgetDexChars         = 120_000
	BudgetLendingChars     = 20_000
	BudgetNFTChars         = 15_000
	BudgetDerivativesChars = 20_000
	BudgetCrossChars       = 25_000
)

// Stablecoin symbols used by the cross-protocol correlator.
var StablecoinSymbols = map[string]bool{
	"USDC":   true,
	"USDT":   true,
	"DAI":    true,
	"FRAX":   true,
	"LUSD":   true,
	"USDC.E": true,
	"BUSD":   true,
	"TUSD":   true,
	"GUSD":   true,
	"USDP":   true,
}

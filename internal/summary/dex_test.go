package summary

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

func swap(id, pool, pair, sender string, amountUSD float64, ts int64) *models.SwapEvent {
	return &models.SwapEvent{
		ID:           id,
		PoolID:       pool,
		Pair:         pair,
		Token0Symbol: "WETH",
		Token1Symbol: "USDC",
		Amount0:      1, // zero-for-one
		Amount1:      -1,
		AmountUSD:    amountUSD,
		Sender:       sender,
		Timestamp:    ts,
		FeeTier:      3000,
	}
}

func TestSummarizeDex_Overview(t *testing.T) {
	base := int64(1_700_000_400) // mid-hour
	swaps := []*models.SwapEvent{
		swap("s1", "pool-a", "WETH/USDC", "0xaaa", 120_000, base),
		swap("s2", "pool-a", "WETH/USDC", "0xbbb", 6_000, base+60),
		swap("s3", "pool-a", "WETH/USDC", "0xbbb", 6_000, base+120),
		swap("s4", "pool-b", "WETH/USDC", "0xccc", 6_000, base+3600),
		swap("s5", "pool-b", "WETH/USDC", "0xccc", 6_000, base+3700),
		swap("s6", "pool-b", "WETH/USDC", "0xddd", 6_000, base+3800),
	}

	s := SummarizeDex(swaps)

	assert.Equal(t, 6, s.Overview.TotalSwaps)
	assert.Equal(t, 150_000.0, s.Overview.TotalVolumeUSD)
	assert.Equal(t, 25_000.0, s.Overview.AvgSwapUSD)
	assert.Equal(t, 6_000.0, s.Overview.MedianSwapUSD)
	assert.Equal(t, 2, s.Overview.UniquePools)
	assert.Equal(t, 4, s.Overview.UniqueAddresses)

	// Exactly one trade crossed the large-swap floor, in the 100k-250k range
	require.Len(t, s.LargeSwapDistribution, 5)
	assert.Equal(t, "50k-100k", s.LargeSwapDistribution[0].Label)
	assert.Equal(t, 0, s.LargeSwapDistribution[0].Count)
	assert.Equal(t, "100k-250k", s.LargeSwapDistribution[1].Label)
	assert.Equal(t, 1, s.LargeSwapDistribution[1].Count)
	assert.Equal(t, 120_000.0, s.LargeSwapDistribution[1].VolumeUSD)
	require.Len(t, s.LargeSwapDistribution[1].Samples, 1)
	assert.Equal(t, "s1", s.LargeSwapDistribution[1].Samples[0].ID)

	// pool-a carries more volume than pool-b
	require.Len(t, s.TopPools, 2)
	assert.Equal(t, "pool-a", s.TopPools[0].PoolID)
	assert.Equal(t, 132_000.0, s.TopPools[0].VolumeUSD)
	assert.Equal(t, 3, s.TopPools[0].SwapCount)

	// 0xaaa aggregated 120k and is the only whale
	require.Len(t, s.Whales, 1)
	assert.Equal(t, "0xaaa", s.Whales[0].Address)

	// Two distinct hours of activity
	require.Len(t, s.HourlyVolume, 2)
	assert.Less(t, s.HourlyVolume[0].HourStart, s.HourlyVolume[1].HourStart)
	assert.Equal(t, 132_000.0, s.HourlyVolume[0].VolumeUSD)
	assert.Equal(t, 18_000.0, s.HourlyVolume[1].VolumeUSD)
}

func TestSummarizeDex_Empty(t *testing.T) {
	s := SummarizeDex(nil)

	assert.Equal(t, 0, s.Overview.TotalSwaps)
	assert.Equal(t, 0.0, s.Overview.TotalVolumeUSD)
	// Empty, not nil, so JSON serializes arrays rather than nulls
	assert.NotNil(t, s.TopPools)
	assert.NotNil(t, s.LargeSwapDistribution)
	assert.NotNil(t, s.HourlyVolume)
	assert.Empty(t, s.TopPools)
}

func TestSummarizeDex_Deterministic(t *testing.T) {
	// Many swaps spread over maps whose iteration order is random; the
	// digest must still serialize byte-identically run over run.
	var swaps []*models.SwapEvent
	for i := 0; i < 200; i++ {
		swaps = append(swaps, swap(
			fmt.Sprintf("s%03d", i),
			fmt.Sprintf("pool-%d", i%7),
			fmt.Sprintf("P%d/USDC", i%7),
			fmt.Sprintf("0x%04d", i%23),
			float64(1_000*(i%90+1)),
			1_700_000_000+int64(i*137),
		))
	}

	first, err := json.Marshal(SummarizeDex(swaps))
	require.NoError(t, err)
	second, err := json.Marshal(SummarizeDex(swaps))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Input order must not matter either
	reversed := make([]*models.SwapEvent, len(swaps))
	for i, sw := range swaps {
		reversed[len(swaps)-1-i] = sw
	}
	third, err := json.Marshal(SummarizeDex(reversed))
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestSummarizeDex_ListCaps(t *testing.T) {
	var swaps []*models.SwapEvent
	for i := 0; i < 50; i++ {
		// 50 distinct pools and senders, every sender above the whale line
		swaps = append(swaps, swap(
			fmt.Sprintf("s%02d", i),
			fmt.Sprintf("pool-%02d", i),
			fmt.Sprintf("T%02d/USDC", i),
			fmt.Sprintf("0x%02d", i),
			150_000,
			1_700_000_000,
		))
	}

	s := SummarizeDex(swaps)
	assert.Len(t, s.TopPools, 10)
	assert.Len(t, s.Whales, 10)
	assert.Len(t, s.PairFlows, 10)
}

func TestSummarizeDex_PairFlowDirection(t *testing.T) {
	base := int64(1_700_000_000)
	sell := swap("s1", "p", "WETH/USDC", "0xa", 10_000, base) // Amount0 > 0
	buy := swap("s2", "p", "WETH/USDC", "0xb", 4_000, base)
	buy.Amount0 = -1
	buy.Amount1 = 1

	s := SummarizeDex([]*models.SwapEvent{sell, buy})

	require.Len(t, s.PairFlows, 1)
	fl := s.PairFlows[0]
	assert.Equal(t, 10_000.0, fl.VolumeZeroToOneUSD)
	assert.Equal(t, 4_000.0, fl.VolumeOneToZeroUSD)
	assert.Equal(t, 6_000.0, fl.NetFlowUSD)
}

func TestSummarizeDex_HourlyWindowCap(t *testing.T) {
	// 30 distinct hours; only the most recent 24 survive
	var swaps []*models.SwapEvent
	for i := 0; i < 30; i++ {
		swaps = append(swaps, swap(
			fmt.Sprintf("s%02d", i), "p", "WETH/USDC", "0xa",
			1_000, 1_700_000_000+int64(i)*3600,
		))
	}

	s := SummarizeDex(swaps)
	require.Len(t, s.HourlyVolume, 24)
	// Oldest surviving bucket is hour 6 of the series
	expected := (int64(1_700_000_000) + 6*3600) / 3600 * 3600
	assert.Equal(t, expected, s.HourlyVolume[0].HourStart)
}

func TestSummarizeDex_BucketCompleteness(t *testing.T) {
	base := int64(1_700_000_400)
	swaps := []*models.SwapEvent{
		// Below the floor, never bucketed
		swap("u1", "p", "WETH/USDC", "0xa", 10_000, base),
		swap("u2", "p", "WETH/USDC", "0xa", 49_999, base),
		// One or two trades per bucket, boundaries inclusive on the floor
		swap("b1", "p", "WETH/USDC", "0xa", 50_000, base),
		swap("b2", "p", "WETH/USDC", "0xa", 75_000, base),
		swap("b3", "p", "WETH/USDC", "0xa", 100_000, base),
		swap("b4", "p", "WETH/USDC", "0xa", 240_000, base),
		swap("b5", "p", "WETH/USDC", "0xa", 250_000, base),
		swap("b6", "p", "WETH/USDC", "0xa", 500_000, base),
		swap("b7", "p", "WETH/USDC", "0xa", 999_999, base),
		swap("b8", "p", "WETH/USDC", "0xa", 1_000_000, base),
		swap("b9", "p", "WETH/USDC", "0xa", 5_000_000, base),
	}

	s := SummarizeDex(swaps)
	dist := s.LargeSwapDistribution
	require.Len(t, dist, 5)

	assert.Equal(t, "50k-100k", dist[0].Label)
	assert.Equal(t, 2, dist[0].Count)
	assert.Equal(t, 125_000.0, dist[0].VolumeUSD)
	assert.Equal(t, 2, dist[1].Count)
	assert.Equal(t, 340_000.0, dist[1].VolumeUSD)
	assert.Equal(t, 1, dist[2].Count)
	assert.Equal(t, 2, dist[3].Count)
	assert.Equal(t, 1_499_999.0, dist[3].VolumeUSD)
	// Top bucket is open-ended
	assert.Equal(t, "1M+", dist[4].Label)
	assert.Equal(t, 2, dist[4].Count)
	assert.Equal(t, 6_000_000.0, dist[4].VolumeUSD)

	// Every trade at or above the floor lands in exactly one bucket
	total := 0
	for _, b := range dist {
		total += b.Count
	}
	assert.Equal(t, 9, total)
}

func TestSummarizeDex_FeeTierListCapped(t *testing.T) {
	var swaps []*models.SwapEvent
	for i := 0; i < 30; i++ {
		sw := swap(fmt.Sprintf("f%02d", i), "p", "WETH/USDC", "0xa", 1_000, 1_700_000_400)
		sw.FeeTier = (i + 1) * 100
		swaps = append(swaps, sw)
	}

	s := SummarizeDex(swaps)
	require.Len(t, s.FeeTiers, constants.MaxTokenRankings)
	assert.Equal(t, 100, s.FeeTiers[0].FeeTier)
	assert.Equal(t, 1000, s.FeeTiers[len(s.FeeTiers)-1].FeeTier)
}

package summary

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

func derivEvent(id, entityType, account string) *models.DerivEvent {
	ev := &models.DerivEvent{ID: id, Account: account, Asset: "ETH"}
	ev.EntityType = entityType
	return ev
}

func TestSummarizeDerivatives_Overview(t *testing.T) {
	sw := derivEvent("s1", "swap", "0xaaa")
	sw.AmountInUSD = 100_000
	sw.AmountOutUSD = 98_000

	snap := derivEvent("ps1", "positionSnapshot", "0xaaa")
	snap.BalanceUSD = 250_000

	liq := derivEvent("l1", "liquidation", "0xbbb")
	liq.AmountUSD = 40_000

	long := derivEvent("p1", "position", "0xccc")
	long.Side = "LONG"
	long.BalanceUSD = 300_000

	short := derivEvent("p2", "position", "0xddd")
	short.Side = "SHORT"
	short.BalanceUSD = 100_000

	s := SummarizeDerivatives([]*models.DerivEvent{sw, snap, liq, long, short})

	// Swap volume is the average of the in and out legs
	assert.Equal(t, 99_000.0, s.Overview.TotalSwapVolumeUSD)
	assert.Equal(t, 40_000.0, s.Overview.TotalLiquidationUSD)
	assert.Equal(t, 300_000.0, s.Overview.LongOpenInterestUSD)
	assert.Equal(t, 100_000.0, s.Overview.ShortOpenInterestUSD)
	assert.Equal(t, 0.75, s.Overview.LongPct)
	assert.Equal(t, 1, s.Overview.SwapCount)
	assert.Equal(t, 1, s.Overview.SnapshotCount)
	assert.Equal(t, 1, s.Overview.LiquidationCount)
	assert.Equal(t, 2, s.Overview.PositionCount)

	require.Len(t, s.Assets, 1)
	assert.Equal(t, "ETH", s.Assets[0].Asset)
	assert.Equal(t, 300_000.0, s.Assets[0].LongUSD)
	assert.Equal(t, 100_000.0, s.Assets[0].ShortUSD)
	assert.Equal(t, 40_000.0, s.Assets[0].LiquidationUSD)
}

func TestSummarizeDerivatives_WhaleScore(t *testing.T) {
	sw := derivEvent("s1", "swap", "0xwhale")
	sw.AmountInUSD = 200_000
	sw.AmountOutUSD = 200_000

	snap1 := derivEvent("ps1", "positionSnapshot", "0xwhale")
	snap1.BalanceUSD = 500_000
	snap2 := derivEvent("ps2", "positionSnapshot", "0xwhale")
	snap2.BalanceUSD = 450_000

	s := SummarizeDerivatives([]*models.DerivEvent{sw, snap1, snap2})

	require.Len(t, s.Whales, 1)
	w := s.Whales[0]
	assert.Equal(t, "0xwhale", w.Account)
	assert.Equal(t, 200_000.0, w.SwapVolumeUSD)
	// Max, not sum, of observed snapshot balances
	assert.Equal(t, 500_000.0, w.MaxPositionUSD)
	assert.Equal(t, 2, w.UpdateCount)
	// 0.5*200000 + 0.4*500000 + 100*2
	assert.Equal(t, 300_200.0, w.Score)
}

func TestSummarizeDerivatives_WhaleOrdering(t *testing.T) {
	big := derivEvent("s1", "swap", "0xbig")
	big.AmountInUSD = 1_000_000
	big.AmountOutUSD = 1_000_000

	small := derivEvent("s2", "swap", "0xsmall")
	small.AmountInUSD = 10_000
	small.AmountOutUSD = 10_000

	s := SummarizeDerivatives([]*models.DerivEvent{small, big})

	require.Len(t, s.Whales, 2)
	assert.Equal(t, "0xbig", s.Whales[0].Account)
	assert.Equal(t, "0xsmall", s.Whales[1].Account)
}

func TestSummarizeDerivatives_Empty(t *testing.T) {
	s := SummarizeDerivatives(nil)
	assert.Equal(t, 0.0, s.Overview.LongPct)
	assert.NotNil(t, s.Assets)
	assert.NotNil(t, s.Whales)
}

func TestSummarizeDerivatives_AssetListCapped(t *testing.T) {
	var events []*models.DerivEvent
	for i := 0; i < 500; i++ {
		p := derivEvent(fmt.Sprintf("p%03d", i), "position", fmt.Sprintf("0x%03d", i))
		p.Asset = fmt.Sprintf("A%03d", i)
		p.Side = "LONG"
		p.BalanceUSD = float64(i+1) * 1_000
		events = append(events, p)
	}

	s := SummarizeDerivatives(events)

	require.Len(t, s.Assets, constants.MaxTokenRankings)
	// Highest open interest survives the cut
	assert.Equal(t, "A499", s.Assets[0].Asset)
	assert.Equal(t, 500_000.0, s.Assets[0].LongUSD)
	assert.Equal(t, "A490", s.Assets[len(s.Assets)-1].Asset)
}

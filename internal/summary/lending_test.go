package summary

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

func lendingEvent(id, entityType, account string, amountUSD float64, ts int64) *models.LendingEvent {
	ev := &models.LendingEvent{
		ID:        id,
		Account:   account,
		AmountUSD: amountUSD,
		Timestamp: ts,
		MarketID:  "market-1",
	}
	ev.EntityType = entityType
	return ev
}

func TestSummarizeLending_MarketHealth(t *testing.T) {
	events := []*models.LendingEvent{
		lendingEvent("d1", "deposit", "0xaaa", 1_000_000, 1_700_000_000),
		lendingEvent("b1", "borrow", "0xbbb", 850_000, 1_700_000_100),
	}
	markets := []*models.Market{{
		ID:                     "market-1",
		Name:                   "WETH Market",
		InputTokenSymbol:       "WETH",
		TotalDepositBalanceUSD: 1_000_000,
		TotalBorrowBalanceUSD:  850_000,
		LiquidationThreshold:   80,
		Rates: []models.MarketRate{
			{Side: "BORROWER", Type: "VARIABLE", Rate: 3.65},
			{Side: "LENDER", Type: "VARIABLE", Rate: 1.825},
			{Side: "BORROWER", Type: "STABLE", Rate: 9.99}, // ignored
		},
	}}

	s := SummarizeLending(events, markets)

	assert.Equal(t, 850_000.0, s.Overview.TotalBorrowUSD)
	assert.Equal(t, 1_000_000.0, s.Overview.TotalDepositUSD)
	assert.Equal(t, 0.85, s.Overview.BorrowToDepositRatio)
	assert.Equal(t, 2, s.Overview.EventCount)
	assert.Equal(t, 1, s.Overview.MarketCount)

	require.Len(t, s.Markets, 1)
	m := s.Markets[0]
	assert.Equal(t, 0.85, m.Utilization)
	assert.Equal(t, 150_000.0, m.LiquidationBufferUSD)
	// buffer / (deposits * threshold/100) = 150k / 800k
	assert.Equal(t, 0.1875, m.BufferPctOfThreshold)
	// 3.65% annual variable -> exactly 0.01% daily on 850k borrows
	assert.Equal(t, 85.0, m.DailyBorrowVelocityUSD)
	assert.Equal(t, 50.0, m.DailyDepositVelocityUSD)

	// 0.85 utilization breaches the risk level
	require.Len(t, s.RiskSignals, 1)
	assert.Equal(t, "high_utilization", s.RiskSignals[0].Kind)
	assert.Equal(t, "market-1", s.RiskSignals[0].MarketID)
}

func TestSummarizeLending_NegativeBuffer(t *testing.T) {
	markets := []*models.Market{{
		ID:                     "m-bad",
		Name:                   "Underwater",
		TotalDepositBalanceUSD: 100_000,
		TotalBorrowBalanceUSD:  130_000,
	}}

	s := SummarizeLending(nil, markets)

	// Both signals fire: utilization 1.3 and a negative buffer
	require.Len(t, s.RiskSignals, 2)
	kinds := []string{s.RiskSignals[0].Kind, s.RiskSignals[1].Kind}
	assert.Contains(t, kinds, "high_utilization")
	assert.Contains(t, kinds, "negative_buffer")
	assert.Equal(t, -30_000.0, s.Markets[0].LiquidationBufferUSD)
}

func TestSummarizeLending_AccountRankings(t *testing.T) {
	events := []*models.LendingEvent{
		lendingEvent("b1", "borrow", "0xboth", 500_000, 0),
		lendingEvent("d1", "deposit", "0xboth", 200_000, 0),
		lendingEvent("b2", "borrow", "0xonly-borrow", 300_000, 0),
		lendingEvent("d2", "deposit", "0xonly-deposit", 400_000, 0),
	}

	s := SummarizeLending(events, nil)

	require.Len(t, s.TopBorrowers, 2)
	assert.Equal(t, "0xboth", s.TopBorrowers[0].Account)
	assert.Equal(t, "0xonly-borrow", s.TopBorrowers[1].Account)

	require.Len(t, s.TopDepositors, 2)
	assert.Equal(t, "0xonly-deposit", s.TopDepositors[0].Account)

	// Only the account active on both sides has a net exposure entry
	require.Len(t, s.NetExposures, 1)
	assert.Equal(t, "0xboth", s.NetExposures[0].Account)
	assert.Equal(t, 300_000.0, s.NetExposures[0].NetExposureUSD)
}

func TestSummarizeLending_ZeroDeposits(t *testing.T) {
	events := []*models.LendingEvent{
		lendingEvent("b1", "borrow", "0xaaa", 50_000, 0),
	}

	s := SummarizeLending(events, nil)

	// No deposits: the ratio degrades to zero instead of dividing by zero
	assert.Equal(t, 0.0, s.Overview.BorrowToDepositRatio)
	assert.Equal(t, 50_000.0, s.Overview.TotalBorrowUSD)
}

func TestSummarizeLending_Deterministic(t *testing.T) {
	var events []*models.LendingEvent
	for i := 0; i < 100; i++ {
		kind := "borrow"
		if i%2 == 0 {
			kind = "deposit"
		}
		events = append(events, lendingEvent(
			fmt.Sprintf("e%03d", i), kind,
			fmt.Sprintf("0x%02d", i%17),
			float64(10_000*(i%9+1)),
			1_700_000_000+int64(i*61),
		))
	}

	first, err := json.Marshal(SummarizeLending(events, nil))
	require.NoError(t, err)
	second, err := json.Marshal(SummarizeLending(events, nil))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

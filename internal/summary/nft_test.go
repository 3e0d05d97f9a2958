package summary

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

func nftEvent(id, entityType string, blockTime int64) *models.NFTEvent {
	ev := &models.NFTEvent{ID: id, BlockTime: blockTime}
	ev.EntityType = entityType
	return ev
}

func TestSummarizeNFT_SplitsByEntityType(t *testing.T) {
	events := []*models.NFTEvent{
		nftEvent("t1", "transfer", 100),
		nftEvent("t2", "transfer", 200),
		nftEvent("m1", "mint", 150),
		nftEvent("tok1", "token", 0),
		nftEvent("p1", "project", 0),
		nftEvent("x1", "unknown", 0), // ignored
	}

	s := SummarizeNFT(events)

	assert.Equal(t, 2, s.Overview.TotalTransfers)
	assert.Equal(t, 1, s.Overview.TotalMints)
	assert.Equal(t, 1, s.Overview.TotalProjects)
	assert.Equal(t, 1, s.Overview.TotalTokens)
}

func TestSummarizeNFT_RecentActivityOrder(t *testing.T) {
	var events []*models.NFTEvent
	for i := 0; i < 20; i++ {
		events = append(events, nftEvent(fmt.Sprintf("t%02d", i), "transfer", int64(1000+i)))
	}

	s := SummarizeNFT(events)

	// Newest first, capped at 15
	require.Len(t, s.RecentTransfers, 15)
	assert.Equal(t, int64(1019), s.RecentTransfers[0].BlockTime)
	assert.Equal(t, int64(1005), s.RecentTransfers[14].BlockTime)
}

func TestSummarizeNFT_ProjectRanking(t *testing.T) {
	quiet := nftEvent("p-quiet", "project", 0)
	quiet.Name = "Quiet"
	quiet.TransferCount = 5
	quiet.MintCount = 5

	busy := nftEvent("p-busy", "project", 0)
	busy.Name = "Busy"
	busy.TransferCount = 80
	busy.MintCount = 20

	// Same combined score as quiet, more invocations, wins the tie
	tied := nftEvent("p-tied", "project", 0)
	tied.Name = "Tied"
	tied.TransferCount = 8
	tied.MintCount = 2
	tied.InvocationCount = 99

	s := SummarizeNFT([]*models.NFTEvent{quiet, busy, tied})

	require.Len(t, s.FeaturedProjects, 3)
	assert.Equal(t, "p-busy", s.FeaturedProjects[0].ID)
	assert.Equal(t, int64(100), s.FeaturedProjects[0].ActivityScore)
	assert.Equal(t, "p-tied", s.FeaturedProjects[1].ID)
	assert.Equal(t, "p-quiet", s.FeaturedProjects[2].ID)
}

func TestSummarizeNFT_TokenRankingCap(t *testing.T) {
	var events []*models.NFTEvent
	for i := 0; i < 15; i++ {
		ev := nftEvent(fmt.Sprintf("tok%02d", i), "token", 0)
		ev.TokenID = fmt.Sprintf("%d", i)
		ev.TransferCount = int64(i)
		events = append(events, ev)
	}

	s := SummarizeNFT(events)

	require.Len(t, s.TopTokens, 10)
	assert.Equal(t, int64(14), s.TopTokens[0].TransferCount)
}

func TestSummarizeNFT_Empty(t *testing.T) {
	s := SummarizeNFT(nil)
	assert.Equal(t, 0, s.Overview.TotalTransfers)
	assert.NotNil(t, s.TopTokens)
	assert.NotNil(t, s.RecentTransfers)
	assert.NotNil(t, s.FeaturedProjects)
}

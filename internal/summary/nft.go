package summary

import (
	"sort"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// SummarizeNFT reduces a flat NFT payload to a bounded digest. Rows share one
// shape and are split on the EntityType discriminator.
func SummarizeNFT(events []*models.NFTEvent) *NFTSummary {
	s := &NFTSummary{
		TopTokens:        []NFTTokenStat{},
		RecentTransfers:  []NFTActivity{},
		RecentMints:      []NFTActivity{},
		FeaturedProjects: []NFTProjectStat{},
	}

	var transfers, mints []*models.NFTEvent
	var tokens []NFTTokenStat
	var projects []NFTProjectStat

	for _, ev := range events {
		switch ev.EntityType {
		case "transfer":
			transfers = append(transfers, ev)
		case "mint":
			mints = append(mints, ev)
		case "token":
			tokens = append(tokens, NFTTokenStat{
				TokenID:       ev.TokenID,
				Name:          ev.Name,
				TransferCount: ev.TransferCount,
			})
		case "project":
			projects = append(projects, NFTProjectStat{
				ID:              ev.ID,
				Name:            ev.Name,
				TransferCount:   ev.TransferCount,
				MintCount:       ev.MintCount,
				InvocationCount: ev.InvocationCount,
				ActivityScore:   ev.TransferCount + ev.MintCount,
			})
		}
	}

	s.Overview = NFTOverview{
		TotalTransfers: len(transfers),
		TotalMints:     len(mints),
		TotalProjects:  len(projects),
		TotalTokens:    len(tokens),
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].TransferCount != tokens[j].TransferCount {
			return tokens[i].TransferCount > tokens[j].TransferCount
		}
		return tokens[i].TokenID < tokens[j].TokenID
	})
	if len(tokens) > constants.MaxTokenRankings {
		tokens = tokens[:constants.MaxTokenRankings]
	}
	s.TopTokens = tokens

	s.RecentTransfers = recentActivity(transfers)
	s.RecentMints = recentActivity(mints)

	sort.Slice(projects, func(i, j int) bool {
		if projects[i].ActivityScore != projects[j].ActivityScore {
			return projects[i].ActivityScore > projects[j].ActivityScore
		}
		if projects[i].InvocationCount != projects[j].InvocationCount {
			return projects[i].InvocationCount > projects[j].InvocationCount
		}
		return projects[i].ID < projects[j].ID
	})
	if len(projects) > constants.MaxTokenRankings {
		projects = projects[:constants.MaxTokenRankings]
	}
	s.FeaturedProjects = projects

	return s
}

// recentActivity sorts by block time descending and keeps a fixed count.
func recentActivity(events []*models.NFTEvent) []NFTActivity {
	sorted := make([]*models.NFTEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockTime != sorted[j].BlockTime {
			return sorted[i].BlockTime > sorted[j].BlockTime
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > constants.MaxRecentActivity {
		sorted = sorted[:constants.MaxRecentActivity]
	}

	out := make([]NFTActivity, 0, len(sorted))
	for _, ev := range sorted {
		out = append(out, NFTActivity{
			ID:        ev.ID,
			TokenID:   ev.TokenID,
			From:      ev.From,
			To:        ev.To,
			BlockTime: ev.BlockTime,
		})
	}
	return out
}

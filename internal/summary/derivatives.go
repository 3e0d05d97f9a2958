package summary

import (
	"sort"
	"strings"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// Whale score weights. Swap volume carries most of the signal; update
// frequency is a proxy for active position management.
const (
	whaleSwapWeight     = 0.5
	whalePositionWeight = 0.4
	whaleUpdateWeight   = 100.0
)

// SummarizeDerivatives splits derivative rows by entity type and reduces them
// to open-interest, liquidation and whale digests.
func SummarizeDerivatives(events []*models.DerivEvent) *DerivativesSummary {
	s := &DerivativesSummary{
		Assets: []AssetBreakdown{},
		Whales: []DerivWhale{},
	}

	type whaleAcc struct {
		swapVolume  float64
		maxPosition float64
		updates     int
	}

	var swapVolume, liquidationUSD, longOI, shortOI float64
	var swapCount, snapshotCount, liquidationCount, positionCount int
	assets := make(map[string]*AssetBreakdown)
	whales := make(map[string]*whaleAcc)

	assetOf := func(ev *models.DerivEvent) *AssetBreakdown {
		a := assets[ev.Asset]
		if a == nil {
			a = &AssetBreakdown{Asset: ev.Asset}
			assets[ev.Asset] = a
		}
		return a
	}
	whaleOf := func(account string) *whaleAcc {
		w := whales[account]
		if w == nil {
			w = &whaleAcc{}
			whales[account] = w
		}
		return w
	}

	for _, ev := range events {
		switch ev.EntityType {
		case "swap":
			swapCount++
			// Average of in/out sides so a round trip is not double counted.
			vol := (ev.AmountInUSD + ev.AmountOutUSD) / 2
			swapVolume += vol
			whaleOf(ev.Account).swapVolume += vol

		case "positionSnapshot":
			snapshotCount++
			w := whaleOf(ev.Account)
			w.updates++
			if ev.BalanceUSD > w.maxPosition {
				w.maxPosition = ev.BalanceUSD
			}

		case "liquidation":
			liquidationCount++
			liquidationUSD += ev.AmountUSD
			assetOf(ev).LiquidationUSD += ev.AmountUSD

		case "position":
			positionCount++
			a := assetOf(ev)
			if strings.EqualFold(ev.Side, "LONG") {
				longOI += ev.BalanceUSD
				a.LongUSD += ev.BalanceUSD
			} else {
				shortOI += ev.BalanceUSD
				a.ShortUSD += ev.BalanceUSD
			}
			w := whaleOf(ev.Account)
			if ev.BalanceUSD > w.maxPosition {
				w.maxPosition = ev.BalanceUSD
			}
		}
	}

	s.Overview = DerivOverview{
		TotalSwapVolumeUSD:   roundUSD(swapVolume),
		TotalLiquidationUSD:  roundUSD(liquidationUSD),
		LongOpenInterestUSD:  roundUSD(longOI),
		ShortOpenInterestUSD: roundUSD(shortOI),
		LongPct:              roundRatio(safeDiv(longOI, longOI+shortOI)),
		SwapCount:            swapCount,
		SnapshotCount:        snapshotCount,
		LiquidationCount:     liquidationCount,
		PositionCount:        positionCount,
	}

	for _, a := range assets {
		s.Assets = append(s.Assets, AssetBreakdown{
			Asset:          a.Asset,
			LongUSD:        roundUSD(a.LongUSD),
			ShortUSD:       roundUSD(a.ShortUSD),
			LiquidationUSD: roundUSD(a.LiquidationUSD),
		})
	}
	sort.Slice(s.Assets, func(i, j int) bool {
		vi := s.Assets[i].LongUSD + s.Assets[i].ShortUSD
		vj := s.Assets[j].LongUSD + s.Assets[j].ShortUSD
		if vi != vj {
			return vi > vj
		}
		return s.Assets[i].Asset < s.Assets[j].Asset
	})
	if len(s.Assets) > constants.MaxTokenRankings {
		s.Assets = s.Assets[:constants.MaxTokenRankings]
	}

	for account, w := range whales {
		score := whaleSwapWeight*w.swapVolume + whalePositionWeight*w.maxPosition + whaleUpdateWeight*float64(w.updates)
		if score <= 0 {
			continue
		}
		s.Whales = append(s.Whales, DerivWhale{
			Account:        account,
			SwapVolumeUSD:  roundUSD(w.swapVolume),
			MaxPositionUSD: roundUSD(w.maxPosition),
			UpdateCount:    w.updates,
			Score:          roundUSD(score),
		})
	}
	sort.Slice(s.Whales, func(i, j int) bool {
		if s.Whales[i].Score != s.Whales[j].Score {
			return s.Whales[i].Score > s.Whales[j].Score
		}
		return s.Whales[i].Account < s.Whales[j].Account
	})
	if len(s.Whales) > constants.MaxWhales {
		s.Whales = s.Whales[:constants.MaxWhales]
	}

	return s
}

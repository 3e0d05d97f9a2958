package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// Correlate derives cross-protocol relationships that no single domain fetch
// can see. It consumes the raw DEX and lending events of the run plus the two
// domains' already-computed summaries.
func Correlate(swaps []*models.SwapEvent, lending []*models.LendingEvent, dex *DexSummary, lend *LendingSummary) *CrossSummary {
	c := &CrossSummary{
		StablecoinPairVolumes: []PairVolume{},
		OverlappingActors:     []OverlapActor{},
		HourlyComparison:      []CombinedBucket{},
		LeverageLoops:         []LeverageLoop{},
	}

	var totalVolume, stableVolume float64
	stablePairs := make(map[string]float64)
	swapCounts := make(map[string]int)
	hours := make(map[int64]*CombinedBucket)

	hourOf := func(ts int64) *CombinedBucket {
		hour := ts - ts%3600
		b := hours[hour]
		if b == nil {
			b = &CombinedBucket{HourStart: hour}
			hours[hour] = b
		}
		return b
	}

	for _, sw := range swaps {
		totalVolume += sw.AmountUSD
		swapCounts[sw.Sender]++
		hourOf(sw.Timestamp).DexVolumeUSD += sw.AmountUSD

		if isStablecoin(sw.Token0Symbol) || isStablecoin(sw.Token1Symbol) {
			stableVolume += sw.AmountUSD
			stablePairs[sw.Pair] += sw.AmountUSD
		}
	}

	var totalBorrow float64
	borrowByAccount := make(map[string]float64)
	for _, ev := range lending {
		if ev.EntityType != "borrow" {
			continue
		}
		totalBorrow += ev.AmountUSD
		borrowByAccount[ev.Account] += ev.AmountUSD
		hourOf(ev.Timestamp).BorrowVolumeUSD += ev.AmountUSD
	}

	c.VolumeToBorrowRatio = roundRatio(safeDiv(totalVolume, totalBorrow))
	c.StablecoinVolumeShare = roundRatio(safeDiv(stableVolume, totalVolume))
	c.StablecoinVolumeUSD = roundUSD(stableVolume)

	for pair, vol := range stablePairs {
		c.StablecoinPairVolumes = append(c.StablecoinPairVolumes, PairVolume{Pair: pair, VolumeUSD: roundUSD(vol)})
	}
	sort.Slice(c.StablecoinPairVolumes, func(i, j int) bool {
		if c.StablecoinPairVolumes[i].VolumeUSD != c.StablecoinPairVolumes[j].VolumeUSD {
			return c.StablecoinPairVolumes[i].VolumeUSD > c.StablecoinPairVolumes[j].VolumeUSD
		}
		return c.StablecoinPairVolumes[i].Pair < c.StablecoinPairVolumes[j].Pair
	})
	if len(c.StablecoinPairVolumes) > constants.MaxTopPools {
		c.StablecoinPairVolumes = c.StablecoinPairVolumes[:constants.MaxTopPools]
	}

	// Addresses with activity on both sides are the overlapping actors.
	for addr, count := range swapCounts {
		borrow, ok := borrowByAccount[addr]
		if !ok || borrow <= 0 || count == 0 {
			continue
		}
		c.OverlappingActors = append(c.OverlappingActors, OverlapActor{
			Address:   addr,
			SwapCount: count,
			BorrowUSD: roundUSD(borrow),
		})
	}
	sort.Slice(c.OverlappingActors, func(i, j int) bool {
		if c.OverlappingActors[i].BorrowUSD != c.OverlappingActors[j].BorrowUSD {
			return c.OverlappingActors[i].BorrowUSD > c.OverlappingActors[j].BorrowUSD
		}
		return c.OverlappingActors[i].Address < c.OverlappingActors[j].Address
	})
	if len(c.OverlappingActors) > constants.MaxOverlapActors {
		c.OverlappingActors = c.OverlappingActors[:constants.MaxOverlapActors]
	}

	for _, b := range hours {
		c.HourlyComparison = append(c.HourlyComparison, CombinedBucket{
			HourStart:       b.HourStart,
			DexVolumeUSD:    roundUSD(b.DexVolumeUSD),
			BorrowVolumeUSD: roundUSD(b.BorrowVolumeUSD),
		})
	}
	sort.Slice(c.HourlyComparison, func(i, j int) bool {
		return c.HourlyComparison[i].HourStart < c.HourlyComparison[j].HourStart
	})
	if len(c.HourlyComparison) > constants.MaxCombinedBuckets {
		c.HourlyComparison = c.HourlyComparison[len(c.HourlyComparison)-constants.MaxCombinedBuckets:]
	}

	c.LeverageLoops = inferLeverageLoops(dex, lend)

	return c
}

// inferLeverageLoops links pairs with positive net directional flow to a
// lending market whose token symbol textually appears in the pair label.
// Substring matching has visible false-positive risk (a "USD" market matches
// "USDC/USDT"); the note spells out that this is a heuristic association.
func inferLeverageLoops(dex *DexSummary, lend *LendingSummary) []LeverageLoop {
	loops := []LeverageLoop{}
	if dex == nil || lend == nil {
		return loops
	}

	for _, flow := range dex.PairFlows {
		if flow.NetFlowUSD <= 0 {
			continue
		}
		pairUpper := strings.ToUpper(flow.Pair)
		for _, m := range lend.Markets {
			token := strings.ToUpper(strings.TrimSpace(m.Token))
			if token == "" || !strings.Contains(pairUpper, token) {
				continue
			}
			loops = append(loops, LeverageLoop{
				Pair:        flow.Pair,
				MarketID:    m.MarketID,
				MarketToken: m.Token,
				NetFlowUSD:  flow.NetFlowUSD,
				Note: fmt.Sprintf(
					"possible leverage loop: net %s flow into %s while %s market carries %.2f USD borrows (heuristic token-name match, not a proven link)",
					flow.Pair, m.Token, m.Name, m.BorrowUSD),
			})
			break
		}
		if len(loops) >= constants.MaxLoopInferences {
			break
		}
	}
	return loops
}

func isStablecoin(symbol string) bool {
	return constants.StablecoinSymbols[strings.ToUpper(symbol)]
}

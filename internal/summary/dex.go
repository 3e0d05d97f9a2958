package summary

import (
	"sort"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// SummarizeDex reduces a raw swap list to a fixed-shape, bounded-size digest.
// It is a pure function: order-independent over its input and deterministic
// in its output, including tie-breaks.
func SummarizeDex(swaps []*models.SwapEvent) *DexSummary {
	s := &DexSummary{
		TopPools:              []PoolStat{},
		Whales:                []WhaleStat{},
		LargeSwapDistribution: []SwapBucket{},
		HourlyVolume:          []HourlyBucket{},
		TokenVolumes:          []TokenVolume{},
		FeeTiers:              []FeeTierStat{},
		PairFlows:             []PairFlow{},
	}
	if len(swaps) == 0 {
		return s
	}

	var totalUSD float64
	amounts := make([]float64, 0, len(swaps))

	pools := make(map[string]*PoolStat)
	addrs := make(map[string]*WhaleStat)
	tokens := make(map[string]*TokenVolume)
	feeTiers := make(map[int]*FeeTierStat)
	flows := make(map[string]*PairFlow)
	hours := make(map[int64]*HourlyBucket)

	var large []LargeSwap

	for _, sw := range swaps {
		totalUSD += sw.AmountUSD
		amounts = append(amounts, sw.AmountUSD)

		p := pools[sw.PoolID]
		if p == nil {
			p = &PoolStat{PoolID: sw.PoolID, Pair: sw.Pair}
			pools[sw.PoolID] = p
		}
		p.SwapCount++
		p.VolumeUSD += sw.AmountUSD

		a := addrs[sw.Sender]
		if a == nil {
			a = &WhaleStat{Address: sw.Sender}
			addrs[sw.Sender] = a
		}
		a.SwapCount++
		a.VolumeUSD += sw.AmountUSD

		for _, sym := range []string{sw.Token0Symbol, sw.Token1Symbol} {
			if sym == "" {
				continue
			}
			t := tokens[sym]
			if t == nil {
				t = &TokenVolume{Symbol: sym}
				tokens[sym] = t
			}
			t.SwapCount++
			t.VolumeUSD += sw.AmountUSD
		}

		f := feeTiers[sw.FeeTier]
		if f == nil {
			f = &FeeTierStat{FeeTier: sw.FeeTier}
			feeTiers[sw.FeeTier] = f
		}
		f.SwapCount++
		f.VolumeUSD += sw.AmountUSD

		fl := flows[sw.Pair]
		if fl == nil {
			fl = &PairFlow{Pair: sw.Pair}
			flows[sw.Pair] = fl
		}
		if sw.ZeroForOne() {
			fl.VolumeZeroToOneUSD += sw.AmountUSD
		} else {
			fl.VolumeOneToZeroUSD += sw.AmountUSD
		}

		hour := sw.Timestamp - sw.Timestamp%3600
		h := hours[hour]
		if h == nil {
			h = &HourlyBucket{HourStart: hour}
			hours[hour] = h
		}
		h.Count++
		h.VolumeUSD += sw.AmountUSD

		if sw.AmountUSD >= constants.LargeSwapFloor {
			large = append(large, LargeSwap{
				ID:        sw.ID,
				Pair:      sw.Pair,
				Sender:    sw.Sender,
				AmountUSD: roundUSD(sw.AmountUSD),
				Timestamp: sw.Timestamp,
			})
		}
	}

	sort.Float64s(amounts)
	median := amounts[len(amounts)/2]
	if len(amounts)%2 == 0 {
		median = (amounts[len(amounts)/2-1] + amounts[len(amounts)/2]) / 2
	}

	s.Overview = DexOverview{
		TotalSwaps:      len(swaps),
		TotalVolumeUSD:  roundUSD(totalUSD),
		AvgSwapUSD:      roundUSD(totalUSD / float64(len(swaps))),
		MedianSwapUSD:   roundUSD(median),
		UniquePools:     len(pools),
		UniqueAddresses: len(addrs),
	}

	s.TopPools = topPools(pools)
	s.Whales = whaleAddresses(addrs)
	s.LargeSwapDistribution = bucketLargeSwaps(large)
	s.HourlyVolume = recentHours(hours, constants.MaxHourlyBuckets)
	s.TokenVolumes = rankTokenVolumes(tokens)
	s.FeeTiers = rankFeeTiers(feeTiers)
	s.PairFlows = rankPairFlows(flows)

	return s
}

func topPools(pools map[string]*PoolStat) []PoolStat {
	out := make([]PoolStat, 0, len(pools))
	for _, p := range pools {
		out = append(out, PoolStat{
			PoolID:    p.PoolID,
			Pair:      p.Pair,
			SwapCount: p.SwapCount,
			VolumeUSD: roundUSD(p.VolumeUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeUSD != out[j].VolumeUSD {
			return out[i].VolumeUSD > out[j].VolumeUSD
		}
		return out[i].PoolID < out[j].PoolID
	})
	if len(out) > constants.MaxTopPools {
		out = out[:constants.MaxTopPools]
	}
	return out
}

func whaleAddresses(addrs map[string]*WhaleStat) []WhaleStat {
	out := make([]WhaleStat, 0)
	for _, a := range addrs {
		if a.VolumeUSD < constants.WhaleVolumeThreshold {
			continue
		}
		out = append(out, WhaleStat{
			Address:   a.Address,
			SwapCount: a.SwapCount,
			VolumeUSD: roundUSD(a.VolumeUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeUSD != out[j].VolumeUSD {
			return out[i].VolumeUSD > out[j].VolumeUSD
		}
		return out[i].Address < out[j].Address
	})
	if len(out) > constants.MaxWhales {
		out = out[:constants.MaxWhales]
	}
	return out
}

// bucketLargeSwaps distributes trades at or above the large-swap floor into
// fixed USD ranges; the top bucket is open-ended. Each bucket keeps a small
// sample of its largest trades.
func bucketLargeSwaps(large []LargeSwap) []SwapBucket {
	sort.Slice(large, func(i, j int) bool {
		if large[i].AmountUSD != large[j].AmountUSD {
			return large[i].AmountUSD > large[j].AmountUSD
		}
		return large[i].ID < large[j].ID
	})

	floors := constants.LargeSwapBucketFloors
	buckets := make([]SwapBucket, len(floors))
	for i := range buckets {
		buckets[i] = SwapBucket{Label: constants.LargeSwapBucketLabels[i], Samples: []LargeSwap{}}
	}

	for _, ls := range large {
		idx := 0
		for i := len(floors) - 1; i >= 0; i-- {
			if ls.AmountUSD >= floors[i] {
				idx = i
				break
			}
		}
		b := &buckets[idx]
		b.Count++
		b.VolumeUSD += ls.AmountUSD
		if len(b.Samples) < constants.MaxBucketSamples {
			b.Samples = append(b.Samples, ls)
		}
	}

	for i := range buckets {
		buckets[i].VolumeUSD = roundUSD(buckets[i].VolumeUSD)
	}
	return buckets
}

// recentHours sorts hourly buckets by hour and keeps the most recent max.
func recentHours(hours map[int64]*HourlyBucket, max int) []HourlyBucket {
	out := make([]HourlyBucket, 0, len(hours))
	for _, h := range hours {
		out = append(out, HourlyBucket{
			HourStart: h.HourStart,
			VolumeUSD: roundUSD(h.VolumeUSD),
			Count:     h.Count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourStart < out[j].HourStart })
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

func rankTokenVolumes(tokens map[string]*TokenVolume) []TokenVolume {
	out := make([]TokenVolume, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, TokenVolume{
			Symbol:    t.Symbol,
			SwapCount: t.SwapCount,
			VolumeUSD: roundUSD(t.VolumeUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeUSD != out[j].VolumeUSD {
			return out[i].VolumeUSD > out[j].VolumeUSD
		}
		return out[i].Symbol < out[j].Symbol
	})
	if len(out) > constants.MaxTokenRankings {
		out = out[:constants.MaxTokenRankings]
	}
	return out
}

func rankFeeTiers(feeTiers map[int]*FeeTierStat) []FeeTierStat {
	out := make([]FeeTierStat, 0, len(feeTiers))
	for _, f := range feeTiers {
		out = append(out, FeeTierStat{
			FeeTier:   f.FeeTier,
			SwapCount: f.SwapCount,
			VolumeUSD: roundUSD(f.VolumeUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeeTier < out[j].FeeTier })
	if len(out) > constants.MaxTokenRankings {
		out = out[:constants.MaxTokenRankings]
	}
	return out
}

func rankPairFlows(flows map[string]*PairFlow) []PairFlow {
	out := make([]PairFlow, 0, len(flows))
	for _, fl := range flows {
		out = append(out, PairFlow{
			Pair:               fl.Pair,
			VolumeZeroToOneUSD: roundUSD(fl.VolumeZeroToOneUSD),
			VolumeOneToZeroUSD: roundUSD(fl.VolumeOneToZeroUSD),
			NetFlowUSD:         roundUSD(fl.VolumeZeroToOneUSD - fl.VolumeOneToZeroUSD),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		vi := out[i].VolumeZeroToOneUSD + out[i].VolumeOneToZeroUSD
		vj := out[j].VolumeZeroToOneUSD + out[j].VolumeOneToZeroUSD
		if vi != vj {
			return vi > vj
		}
		return out[i].Pair < out[j].Pair
	})
	if len(out) > constants.MaxTopPools {
		out = out[:constants.MaxTopPools]
	}
	return out
}

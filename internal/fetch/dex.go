package fetch

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
	"github.com/aman-zulfiqar/onchain-intel/internal/subgraph"
)

const dexSwapsQuery = `
query recentSwaps($first: Int!, $skip: Int!, $since: BigInt!) {
  swaps(first: $first, skip: $skip, orderBy: timestamp, orderDirection: desc,
        where: { timestamp_gte: $since }) {
    id
    timestamp
    amountUSD
    amount0
    amount1
    sender
    recipient
    pool {
      id
      feeTier
      token0 { symbol }
      token1 { symbol }
    }
  }
}`

type gqlSwap struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	AmountUSD string `json:"amountUSD"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Pool      struct {
		ID      string `json:"id"`
		FeeTier string `json:"feeTier"`
		Token0  struct {
			Symbol string `json:"symbol"`
		} `json:"token0"`
		Token1 struct {
			Symbol string `json:"symbol"`
		} `json:"token1"`
	} `json:"pool"`
}

// DexSwaps fetches swaps in the trailing window from every DEX source, up to
// limit rows per source.
func (f *Fetcher) DexSwaps(ctx context.Context, limit int) []*models.SwapEvent {
	since := f.windowStart()
	var out []*models.SwapEvent

	for _, src := range f.Registry.ByDomain(models.DomainDex) {
		endpoint := f.Registry.Endpoint(src, f.BaseURL)

		rows, err := subgraphFetchAll(ctx, f, endpoint, dexSwapsQuery, "swaps", since, limit,
			func(r gqlSwap) gqlSwap { return r })
		if err != nil {
			f.logUnitFailure(src, "swap", err)
			continue
		}

		for _, r := range rows {
			out = append(out, &models.SwapEvent{
				EventTags:    f.tags(src, "swap"),
				ID:           r.ID,
				Timestamp:    parseI(r.Timestamp),
				PoolID:       r.Pool.ID,
				Pair:         fmt.Sprintf("%s/%s", r.Pool.Token0.Symbol, r.Pool.Token1.Symbol),
				Token0Symbol: r.Pool.Token0.Symbol,
				Token1Symbol: r.Pool.Token1.Symbol,
				Amount0:      parseF(r.Amount0),
				Amount1:      parseF(r.Amount1),
				AmountUSD:    parseF(r.AmountUSD),
				Sender:       r.Sender,
				Recipient:    r.Recipient,
				FeeTier:      int(parseI(r.Pool.FeeTier)),
			})
		}

		f.Logger.WithField("source", src.ID).WithField("rows", len(rows)).Debug("fetched dex swaps")
	}
	return out
}

// subgraphFetchAll wires one time-bounded entity list into the generic
// paginator. The entity field name is the key the rows arrive under in the
// data object.
func subgraphFetchAll[T any, R any](ctx context.Context, f *Fetcher, endpoint, query, entity string, since int64, limit int, convert func(T) R) ([]R, error) {
	return fetchAllPages(ctx, f, endpoint, entity, limit, convert, func(first, skip int) subgraph.Request {
		return subgraphRequest(query, first, skip, since)
	})
}

// subgraphFetchAllRanked pages through a list ordered by rank rather than
// time, so its requests carry no window bound.
func subgraphFetchAllRanked[T any, R any](ctx context.Context, f *Fetcher, endpoint, query, entity string, limit int, convert func(T) R) ([]R, error) {
	return fetchAllPages(ctx, f, endpoint, entity, limit, convert, func(first, skip int) subgraph.Request {
		return pagedRequest(query, first, skip)
	})
}

func fetchAllPages[T any, R any](ctx context.Context, f *Fetcher, endpoint, entity string, limit int, convert func(T) R, build func(first, skip int) subgraph.Request) ([]R, error) {
	page := func(ctx context.Context, first, skip int) ([]T, error) {
		var data map[string][]T
		err := f.Client.Query(ctx, endpoint, build(first, skip), &data)
		if err != nil {
			return nil, err
		}
		return data[entity], nil
	}

	rows, err := subgraph.FetchAll(ctx, page, limit, constants.PageBatchSize)
	if err != nil {
		return nil, err
	}

	out := make([]R, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert(r))
	}
	return out, nil
}

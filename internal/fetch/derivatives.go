package fetch

import (
	"context"
	"sync"

	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

const derivSwapsQuery = `
query recentSwaps($first: Int!, $skip: Int!, $since: BigInt!) {
  swaps(first: $first, skip: $skip, orderBy: timestamp, orderDirection: desc,
        where: { timestamp_gte: $since }) {
    id
    timestamp
    account { id }
    amountInUSD
    amountOutUSD
  }
}`

const derivSnapshotsQuery = `
query recentSnapshots($first: Int!, $skip: Int!, $since: BigInt!) {
  positionSnapshots(first: $first, skip: $skip, orderBy: timestamp, orderDirection: desc,
                    where: { timestamp_gte: $since }) {
    id
    timestamp
    account { id }
    position { asset { symbol } side }
    balanceUSD
  }
}`

const derivLiquidationsQuery = `
query recentLiquidations($first: Int!, $skip: Int!, $since: BigInt!) {
  liquidates(first: $first, skip: $skip, orderBy: timestamp, orderDirection: desc,
             where: { timestamp_gte: $since }) {
    id
    timestamp
    account { id }
    asset { symbol }
    amountUSD
  }
}`

const derivPositionsQuery = `
query openPositions($first: Int!, $skip: Int!) {
  positions(first: $first, skip: $skip, orderBy: balanceUSD, orderDirection: desc,
            where: { balanceUSD_gt: 0 }) {
    id
    account { id }
    asset { symbol }
    side
    balanceUSD
  }
}`

type gqlDerivRow struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Account   struct {
		ID string `json:"id"`
	} `json:"account"`
	Asset struct {
		Symbol string `json:"symbol"`
	} `json:"asset"`
	Position struct {
		Asset struct {
			Symbol string `json:"symbol"`
		} `json:"asset"`
		Side string `json:"side"`
	} `json:"position"`
	Side         string `json:"side"`
	AmountInUSD  string `json:"amountInUSD"`
	AmountOutUSD string `json:"amountOutUSD"`
	AmountUSD    string `json:"amountUSD"`
	BalanceUSD   string `json:"balanceUSD"`
}

// Derivatives fetches the four independent entity types concurrently from
// every derivatives source. The domain budget splits unevenly across entity
// types to reflect their typical volume and informational density.
func (f *Fetcher) Derivatives(ctx context.Context, limit int) []*models.DerivEvent {
	since := f.windowStart()
	var out []*models.DerivEvent

	units := []struct {
		query      string
		entity     string
		entityType string
		limit      int
	}{
		{derivSwapsQuery, "swaps", "swap", share(limit, constants.DerivSwapShare)},
		{derivSnapshotsQuery, "positionSnapshots", "positionSnapshot", share(limit, constants.DerivSnapshotShare)},
		{derivLiquidationsQuery, "liquidates", "liquidation", share(limit, constants.DerivLiquidationShare)},
		{derivPositionsQuery, "positions", "position", share(limit, constants.DerivPositionShare)},
	}

	for _, src := range f.Registry.ByDomain(models.DomainDerivatives) {
		endpoint := f.Registry.Endpoint(src, f.BaseURL)

		results := make([][]*models.DerivEvent, len(units))
		var wg sync.WaitGroup
		for i, u := range units {
			wg.Add(1)
			go func(i int, query, entity, entityType string, unitLimit int) {
				defer wg.Done()
				results[i] = f.derivRows(ctx, src, endpoint, query, entity, entityType, since, unitLimit)
			}(i, u.query, u.entity, u.entityType, u.limit)
		}
		wg.Wait()

		for _, rows := range results {
			out = append(out, rows...)
		}
	}
	return out
}

func (f *Fetcher) derivRows(ctx context.Context, src models.Source, endpoint, query, entity, entityType string, since int64, limit int) []*models.DerivEvent {
	convert := func(r gqlDerivRow) gqlDerivRow { return r }

	// Open positions rank by balance, not time, so their query carries no
	// window bound.
	var rows []gqlDerivRow
	var err error
	if entityType == "position" {
		rows, err = subgraphFetchAllRanked(ctx, f, endpoint, query, entity, limit, convert)
	} else {
		rows, err = subgraphFetchAll(ctx, f, endpoint, query, entity, since, limit, convert)
	}
	if err != nil {
		f.logUnitFailure(src, entityType, err)
		return nil
	}

	out := make([]*models.DerivEvent, 0, len(rows))
	for _, r := range rows {
		asset := r.Asset.Symbol
		side := r.Side
		if entityType == "positionSnapshot" {
			asset = r.Position.Asset.Symbol
			side = r.Position.Side
		}
		out = append(out, &models.DerivEvent{
			EventTags:    f.tags(src, entityType),
			ID:           r.ID,
			Timestamp:    parseI(r.Timestamp),
			Account:      r.Account.ID,
			Asset:        asset,
			Side:         side,
			AmountInUSD:  parseF(r.AmountInUSD),
			AmountOutUSD: parseF(r.AmountOutUSD),
			AmountUSD:    parseF(r.AmountUSD),
			BalanceUSD:   parseF(r.BalanceUSD),
		})
	}
	return out
}

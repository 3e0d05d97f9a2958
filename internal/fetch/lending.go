package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// Markets are a small top-N snapshot, cheap to re-fetch in full each run.
const topMarketsCount = 25

const lendingEventsQueryTmpl = `
query recentEvents($first: Int!, $skip: Int!, $since: BigInt!) {
  %s(first: $first, skip: $skip, orderBy: timestamp, orderDirection: desc,
     where: { timestamp_gte: $since }) {
    id
    timestamp
    amount
    amountUSD
    account { id }
    asset { symbol }
    market { id }
  }
}`

// Reduced shape for sources whose rows lack nested relations.
const lendingEventsFlatQueryTmpl = `
query recentEvents($first: Int!, $skip: Int!, $since: BigInt!) {
  %s(first: $first, skip: $skip, orderBy: timestamp, orderDirection: desc,
     where: { timestamp_gte: $since }) {
    id
    timestamp
    amount
    amountUSD
    account
  }
}`

const topMarketsQuery = `
query topMarkets($first: Int!, $skip: Int!) {
  markets(first: $first, skip: $skip, orderBy: totalValueLockedUSD, orderDirection: desc) {
    id
    name
    inputToken { symbol }
    totalDepositBalanceUSD
    totalBorrowBalanceUSD
    liquidationThreshold
    maximumLTV
    rates {
      side
      type
      rate
    }
  }
}`

type gqlLendingEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Amount    string `json:"amount"`
	AmountUSD string `json:"amountUSD"`
	Account   struct {
		ID string `json:"id"`
	} `json:"account"`
	Asset struct {
		Symbol string `json:"symbol"`
	} `json:"asset"`
	Market struct {
		ID string `json:"id"`
	} `json:"market"`
}

type gqlLendingEventFlat struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Amount    string `json:"amount"`
	AmountUSD string `json:"amountUSD"`
	Account   string `json:"account"`
}

type gqlMarket struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	InputToken struct {
		Symbol string `json:"symbol"`
	} `json:"inputToken"`
	TotalDepositBalanceUSD string `json:"totalDepositBalanceUSD"`
	TotalBorrowBalanceUSD  string `json:"totalBorrowBalanceUSD"`
	LiquidationThreshold   string `json:"liquidationThreshold"`
	MaximumLTV             string `json:"maximumLTV"`
	Rates                  []struct {
		Side string `json:"side"`
		Type string `json:"type"`
		Rate string `json:"rate"`
	} `json:"rates"`
}

// Lending fetches borrow and deposit events plus market snapshots from every
// lending source. Borrows, deposits and markets are independent, so they fan
// out concurrently per source and join before the next source starts.
func (f *Fetcher) Lending(ctx context.Context, limit int) ([]*models.LendingEvent, []*models.Market) {
	since := f.windowStart()
	var events []*models.LendingEvent
	var markets []*models.Market

	for _, src := range f.Registry.ByDomain(models.DomainLending) {
		endpoint := f.Registry.Endpoint(src, f.BaseURL)

		var (
			wg         sync.WaitGroup
			borrows    []*models.LendingEvent
			deposits   []*models.LendingEvent
			srcMarkets []*models.Market
		)

		wg.Add(3)
		go func() {
			defer wg.Done()
			borrows = f.lendingEvents(ctx, src, endpoint, "borrows", "borrow", since, limit)
		}()
		go func() {
			defer wg.Done()
			deposits = f.lendingEvents(ctx, src, endpoint, "deposits", "deposit", since, limit)
		}()
		go func() {
			defer wg.Done()
			srcMarkets = f.markets(ctx, src, endpoint)
		}()
		wg.Wait()

		events = append(events, borrows...)
		events = append(events, deposits...)
		markets = append(markets, srcMarkets...)
	}
	return events, markets
}

// lendingEvents pulls one entity list (borrows or deposits), switching to the
// reduced query shape for flat-schema sources instead of failing the domain.
func (f *Fetcher) lendingEvents(ctx context.Context, src models.Source, endpoint, entity, entityType string, since int64, limit int) []*models.LendingEvent {
	var out []*models.LendingEvent

	if src.FlatSchema {
		query := fmt.Sprintf(lendingEventsFlatQueryTmpl, entity)
		rows, err := subgraphFetchAll(ctx, f, endpoint, query, entity, since, limit,
			func(r gqlLendingEventFlat) gqlLendingEventFlat { return r })
		if err != nil {
			f.logUnitFailure(src, entityType, err)
			return nil
		}
		for _, r := range rows {
			out = append(out, &models.LendingEvent{
				EventTags: f.tags(src, entityType),
				ID:        r.ID,
				Timestamp: parseI(r.Timestamp),
				Account:   r.Account,
				Amount:    parseF(r.Amount),
				AmountUSD: parseF(r.AmountUSD),
			})
		}
		return out
	}

	query := fmt.Sprintf(lendingEventsQueryTmpl, entity)
	rows, err := subgraphFetchAll(ctx, f, endpoint, query, entity, since, limit,
		func(r gqlLendingEvent) gqlLendingEvent { return r })
	if err != nil {
		f.logUnitFailure(src, entityType, err)
		return nil
	}
	for _, r := range rows {
		out = append(out, &models.LendingEvent{
			EventTags:   f.tags(src, entityType),
			ID:          r.ID,
			Timestamp:   parseI(r.Timestamp),
			Account:     r.Account.ID,
			Amount:      parseF(r.Amount),
			AmountUSD:   parseF(r.AmountUSD),
			TokenSymbol: r.Asset.Symbol,
			MarketID:    r.Market.ID,
		})
	}
	return out
}

// markets grabs the top-N snapshot ordered by TVL. It is a ranked view, not a
// windowed one, so the query carries no time bound.
func (f *Fetcher) markets(ctx context.Context, src models.Source, endpoint string) []*models.Market {
	var data struct {
		Markets []gqlMarket `json:"markets"`
	}
	err := f.Client.Query(ctx, endpoint, pagedRequest(topMarketsQuery, topMarketsCount, 0), &data)
	if err != nil {
		f.logUnitFailure(src, "market", err)
		return nil
	}

	out := make([]*models.Market, 0, len(data.Markets))
	for _, m := range data.Markets {
		market := &models.Market{
			EventTags:              f.tags(src, "market"),
			ID:                     m.ID,
			Name:                   m.Name,
			InputTokenSymbol:       m.InputToken.Symbol,
			TotalDepositBalanceUSD: parseF(m.TotalDepositBalanceUSD),
			TotalBorrowBalanceUSD:  parseF(m.TotalBorrowBalanceUSD),
			LiquidationThreshold:   parseF(m.LiquidationThreshold),
			MaximumLTV:             parseF(m.MaximumLTV),
		}
		for _, r := range m.Rates {
			market.Rates = append(market.Rates, models.MarketRate{
				Side: r.Side,
				Type: r.Type,
				Rate: parseF(r.Rate),
			})
		}
		out = append(out, market)
	}
	return out
}

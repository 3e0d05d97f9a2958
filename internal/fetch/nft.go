package fetch

import (
	"context"
	"sync"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// Projects and tokens are small ranked snapshots; transfers and mints page
// through the trailing window.
const nftSnapshotCount = 50

const nftTransfersQuery = `
query recentTransfers($first: Int!, $skip: Int!, $since: BigInt!) {
  transfers(first: $first, skip: $skip, orderBy: blockTimestamp, orderDirection: desc,
            where: { blockTimestamp_gte: $since }) {
    id
    token { id name }
    from
    to
    blockTimestamp
  }
}`

const nftMintsQuery = `
query recentMints($first: Int!, $skip: Int!, $since: BigInt!) {
  mints(first: $first, skip: $skip, orderBy: blockTimestamp, orderDirection: desc,
        where: { blockTimestamp_gte: $since }) {
    id
    token { id name }
    to
    blockTimestamp
  }
}`

const nftSnapshotQuery = `
query snapshot($first: Int!) {
  projects(first: $first, orderBy: transferCount, orderDirection: desc) {
    id
    name
    transferCount
    mintCount
    invocationCount
  }
  tokens(first: $first, orderBy: transferCount, orderDirection: desc) {
    id
    name
    transferCount
  }
}`

type gqlNFTTransfer struct {
	ID    string `json:"id"`
	Token struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"token"`
	From           string `json:"from"`
	To             string `json:"to"`
	BlockTimestamp string `json:"blockTimestamp"`
}

type gqlNFTProject struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TransferCount   string `json:"transferCount"`
	MintCount       string `json:"mintCount"`
	InvocationCount string `json:"invocationCount"`
}

type gqlNFTToken struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TransferCount string `json:"transferCount"`
}

// NFT fetches transfers, mints and the project/token snapshot from every NFT
// source, returning everything as one flat list discriminated by EntityType.
func (f *Fetcher) NFT(ctx context.Context, limit int) []*models.NFTEvent {
	since := f.windowStart()
	var out []*models.NFTEvent

	for _, src := range f.Registry.ByDomain(models.DomainNFT) {
		endpoint := f.Registry.Endpoint(src, f.BaseURL)

		var (
			wg        sync.WaitGroup
			transfers []*models.NFTEvent
			mints     []*models.NFTEvent
			snapshot  []*models.NFTEvent
		)

		wg.Add(3)
		go func() {
			defer wg.Done()
			transfers = f.nftActivity(ctx, src, endpoint, nftTransfersQuery, "transfers", "transfer", since, limit)
		}()
		go func() {
			defer wg.Done()
			mints = f.nftActivity(ctx, src, endpoint, nftMintsQuery, "mints", "mint", since, limit)
		}()
		go func() {
			defer wg.Done()
			snapshot = f.nftSnapshot(ctx, src, endpoint)
		}()
		wg.Wait()

		out = append(out, transfers...)
		out = append(out, mints...)
		out = append(out, snapshot...)
	}
	return out
}

func (f *Fetcher) nftActivity(ctx context.Context, src models.Source, endpoint, query, entity, entityType string, since int64, limit int) []*models.NFTEvent {
	rows, err := subgraphFetchAll(ctx, f, endpoint, query, entity, since, limit,
		func(r gqlNFTTransfer) gqlNFTTransfer { return r })
	if err != nil {
		f.logUnitFailure(src, entityType, err)
		return nil
	}

	out := make([]*models.NFTEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.NFTEvent{
			EventTags: f.tags(src, entityType),
			ID:        r.ID,
			Name:      r.Token.Name,
			TokenID:   r.Token.ID,
			From:      r.From,
			To:        r.To,
			BlockTime: parseI(r.BlockTimestamp),
		})
	}
	return out
}

// nftSnapshot grabs the single-page project/token ranking. No paging and no
// time bound; the snapshot query declares only $first.
func (f *Fetcher) nftSnapshot(ctx context.Context, src models.Source, endpoint string) []*models.NFTEvent {
	var data struct {
		Projects []gqlNFTProject `json:"projects"`
		Tokens   []gqlNFTToken   `json:"tokens"`
	}
	err := f.Client.Query(ctx, endpoint, snapshotRequest(nftSnapshotQuery, nftSnapshotCount), &data)
	if err != nil {
		f.logUnitFailure(src, "project", err)
		return nil
	}

	out := make([]*models.NFTEvent, 0, len(data.Projects)+len(data.Tokens))
	for _, p := range data.Projects {
		out = append(out, &models.NFTEvent{
			EventTags:       f.tags(src, "project"),
			ID:              p.ID,
			Name:            p.Name,
			TransferCount:   parseI(p.TransferCount),
			MintCount:       parseI(p.MintCount),
			InvocationCount: parseI(p.InvocationCount),
		})
	}
	for _, t := range data.Tokens {
		out = append(out, &models.NFTEvent{
			EventTags:     f.tags(src, "token"),
			ID:            t.ID,
			Name:          t.Name,
			TokenID:       t.ID,
			TransferCount: parseI(t.TransferCount),
		})
	}
	return out
}

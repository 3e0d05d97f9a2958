// Package fetch retrieves raw events from the registered sources. Each domain
// builds its own query text and shares the generic paginated fetcher. Failures
// are isolated per source and per entity type: a failing unit is logged and
// contributes an empty list, never aborting sibling units.
package fetch

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
	"github.com/aman-zulfiqar/onchain-intel/internal/registry"
	"github.com/aman-zulfiqar/onchain-intel/internal/subgraph"
)

type Fetcher struct {
	Client   *subgraph.Client
	Registry *registry.Registry
	BaseURL  string
	Logger   *logrus.Logger
	Window   time.Duration

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func New(client *subgraph.Client, reg *registry.Registry, baseURL string, windowHours int, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Fetcher{
		Client:   client,
		Registry: reg,
		BaseURL:  baseURL,
		Logger:   logger,
		Window:   time.Duration(windowHours) * time.Hour,
		Now:      time.Now,
	}
}

// windowStart is the trailing lower time bound for every query in a run.
// There is no resumable cursor across runs; each run re-fetches the window.
func (f *Fetcher) windowStart() int64 {
	return f.Now().Add(-f.Window).Unix()
}

func (f *Fetcher) tags(s models.Source, entityType string) models.EventTags {
	return models.EventTags{
		Protocol:   s.Protocol,
		Network:    s.Network,
		SourceName: s.DisplayName,
		EntityType: entityType,
		FetchedAt:  f.Now().UTC(),
	}
}

func (f *Fetcher) logUnitFailure(s models.Source, entityType string, err error) {
	f.Logger.WithFields(logrus.Fields{
		"source": s.ID,
		"entity": entityType,
	}).WithError(err).Warn("source fetch failed, continuing with empty data")
}

// share splits a domain budget by ratio, never returning less than one row.
func share(limit int, ratio float64) int {
	n := int(float64(limit) * ratio)
	if n < 1 {
		n = 1
	}
	return n
}

// subgraphRequest builds the standard paginated, time-bounded request shape
// shared by every domain query.
func subgraphRequest(query string, first, skip int, since int64) subgraph.Request {
	return subgraph.Request{
		Query: query,
		Variables: map[string]any{
			"first": first,
			"skip":  skip,
			"since": strconv.FormatInt(since, 10),
		},
	}
}

// pagedRequest is the shape for rank-ordered lists with no time bound. The
// variables must match the document's declarations exactly; gateways reject
// documents that declare variables they never use.
func pagedRequest(query string, first, skip int) subgraph.Request {
	return subgraph.Request{
		Query: query,
		Variables: map[string]any{
			"first": first,
			"skip":  skip,
		},
	}
}

// snapshotRequest is the shape for single-page top-N snapshots.
func snapshotRequest(query string, first int) subgraph.Request {
	return subgraph.Request{
		Query:     query,
		Variables: map[string]any{"first": first},
	}
}

// Subgraph numeric fields arrive as decimal strings.
func parseF(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseI(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some sources publish timestamps as decimals.
		return int64(parseF(s))
	}
	return v
}
